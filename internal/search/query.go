package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/bookwise/bookwise-server/internal/normalize"
)

var errClosed = errors.New("title index is closed")

// pageSize is how many hits are fetched per round trip while collecting
// distinct titles.
const pageSize = 100

// wildcardReplacer strips characters that carry meaning in wildcard queries.
var wildcardReplacer = strings.NewReplacer("*", "", "?", "")

// Suggest returns up to limit distinct titles matching input.
//
// Titles whose normalized key starts with the input come first, followed by
// titles that contain it elsewhere. Within each group titles appear in
// catalog order. An input that normalizes to nothing yields no suggestions.
func (s *TitleIndex) Suggest(ctx context.Context, input string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}

	needle := wildcardReplacer.Replace(normalize.TitleKey(input))
	if needle == "" || limit <= 0 {
		return []string{}, nil
	}

	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	prefixRows := make(map[int]struct{})

	prefix := bleve.NewPrefixQuery(needle)
	prefix.SetField("key")
	err := s.collect(ctx, prefix, limit, func(row int) {
		prefixRows[row] = struct{}{}
		out = s.appendTitle(out, seen, row)
	}, func() bool { return len(out) >= limit })
	if err != nil {
		return nil, fmt.Errorf("prefix query: %w", err)
	}
	if len(out) >= limit {
		return out, nil
	}

	contains := bleve.NewWildcardQuery("*" + needle + "*")
	contains.SetField("key")
	err = s.collect(ctx, contains, limit, func(row int) {
		if _, ok := prefixRows[row]; ok {
			return
		}
		out = s.appendTitle(out, seen, row)
	}, func() bool { return len(out) >= limit })
	if err != nil {
		return nil, fmt.Errorf("substring query: %w", err)
	}

	return out, nil
}

// appendTitle adds the title of row unless an identical title is already
// present.
func (s *TitleIndex) appendTitle(out []string, seen map[string]struct{}, row int) []string {
	if row < 0 || row >= len(s.titles) {
		return out
	}
	title := s.titles[row]
	if _, dup := seen[title]; dup {
		return out
	}
	seen[title] = struct{}{}
	return append(out, title)
}

// collect pages through q in row order, calling visit for every hit until
// done reports true or the results are exhausted.
func (s *TitleIndex) collect(ctx context.Context, q query.Query, limit int, visit func(row int), done func() bool) error {
	size := max(pageSize, limit)
	for from := 0; ; from += size {
		req := bleve.NewSearchRequestOptions(q, size, from, false)
		req.SortBy([]string{"_id"})

		res, err := s.index.SearchInContext(ctx, req)
		if err != nil {
			return err
		}

		for _, hit := range res.Hits {
			row, ok := rowFromID(hit.ID)
			if !ok {
				s.logger.Warn("skipping title hit with malformed id", "id", hit.ID)
				continue
			}
			visit(row)
			if done() {
				return nil
			}
		}

		if len(res.Hits) < size || uint64(from+size) >= res.Total {
			return nil
		}
	}
}
