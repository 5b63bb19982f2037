package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bookwise/bookwise-server/internal/domain"
)

// Batch is the raw output of one source table or file.
type Batch struct {
	Source    domain.Source
	Origin    string // file path or table name
	Rows      []RawRow
	Malformed int  // rows skipped before normalization
	Missing   bool // the origin did not exist
}

// Source produces raw rows. Implementations must be safe to call from their
// own goroutine.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Batch, error)
}

// CSVFile is a Source reading one CSV export from disk.
// A file that does not exist yields an empty batch marked Missing.
type CSVFile struct {
	Path string
	Kind domain.Source
}

// Name implements Source.
func (f CSVFile) Name() string {
	return fmt.Sprintf("%s csv (%s)", f.Kind, f.Path)
}

// Load implements Source.
func (f CSVFile) Load(ctx context.Context) ([]Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := Batch{Source: f.Kind, Origin: f.Path}

	file, err := os.Open(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		batch.Missing = true
		return []Batch{batch}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer file.Close()

	rows, malformed, err := ReadCSV(file, f.Kind)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	batch.Rows = rows
	batch.Malformed = malformed

	return []Batch{batch}, nil
}

// DirSources returns the CSV sources of a data directory, Goodreads first.
// Empty file names fall back to the default export names.
func DirSources(dir, goodreadsFile, kindleFile string) []Source {
	if goodreadsFile == "" {
		goodreadsFile = GoodreadsFileName
	}
	if kindleFile == "" {
		kindleFile = KindleFileName
	}
	return []Source{
		CSVFile{Path: resolve(dir, goodreadsFile), Kind: domain.SourceGoodreads},
		CSVFile{Path: resolve(dir, kindleFile), Kind: domain.SourceKindle},
	}
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
