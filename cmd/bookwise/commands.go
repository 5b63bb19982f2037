package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookwise/bookwise-server/internal/catalog"
	"github.com/bookwise/bookwise-server/internal/domain"
	"github.com/bookwise/bookwise-server/internal/logger"
	"github.com/bookwise/bookwise-server/internal/service"
	"github.com/bookwise/bookwise-server/internal/store/sqlite"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dataPath      string
	goodreadsFile string
	kindleFile    string
	sqlitePath    string
	maxFeatures   int
	logLevel      string
	jsonOutput    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "bookwise",
		Short:         "Content-based book recommendations from Goodreads and Kindle exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.dataPath, "data", "data", "Directory holding the CSV exports")
	pf.StringVar(&g.goodreadsFile, "goodreads-file", catalog.GoodreadsFileName, "Goodreads export, relative to --data")
	pf.StringVar(&g.kindleFile, "kindle-file", catalog.KindleFileName, "Kindle export, relative to --data")
	pf.StringVar(&g.sqlitePath, "sqlite", "", "SQLite catalog database")
	pf.IntVar(&g.maxFeatures, "max-features", 0, "Vocabulary cap, 0 = unlimited")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.BoolVar(&g.jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newRecommendCmd(g),
		newTextCmd(g),
		newBrowseCmd(g),
		newSuggestCmd(g),
		newGenresCmd(g),
		newStatsCmd(g),
		newImportCmd(g),
	)
	return rootCmd
}

func (g *globalFlags) logger() *slog.Logger {
	return logger.New(logger.Config{
		Writer: os.Stderr,
		Format: logger.FormatPretty,
		Level:  logger.ParseLevel(g.logLevel),
	}).Logger
}

// openCatalog builds a catalog service over the configured sources. The
// returned cleanup closes the service and the database.
func (g *globalFlags) openCatalog(ctx context.Context) (*service.CatalogService, func(), error) {
	log := g.logger()

	sources := catalog.DirSources(g.dataPath, g.goodreadsFile, g.kindleFile)

	var store *sqlite.Store
	if g.sqlitePath != "" {
		var err error
		store, err = sqlite.Open(g.sqlitePath, log)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, store)
	}

	svc := service.NewCatalogService(
		catalog.NewLoader(log, sources...),
		service.CatalogOptions{MaxFeatures: g.maxFeatures},
		log,
	)
	cleanup := func() {
		_ = svc.Close()
		if store != nil {
			_ = store.Close()
		}
	}

	if _, err := svc.Rebuild(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// optionalK returns nil unless --k was given, so the service applies its
// default.
func optionalK(cmd *cobra.Command, k int) *int {
	if !cmd.Flags().Changed("k") {
		return nil
	}
	return &k
}

func newRecommendCmd(g *globalFlags) *cobra.Command {
	var (
		k      int
		genre  string
		source string
	)

	cmd := &cobra.Command{
		Use:   "recommend <title>",
		Short: "Recommend books similar to a catalog title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := g.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := svc.Recommend(cmd.Context(), service.RecommendRequest{
				Title:  args[0],
				K:      optionalK(cmd, k),
				Genre:  genre,
				Source: source,
			})
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			renderRecommendations(cmd.OutOrStdout(), "Because you liked "+resp.Query.Title, resp.Items)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of recommendations")
	cmd.Flags().StringVar(&genre, "genre", "", "Only recommend books whose genre contains this text")
	cmd.Flags().StringVar(&source, "source", "", "Only recommend books from this source (Goodreads or Kindle)")
	return cmd
}

func newTextCmd(g *globalFlags) *cobra.Command {
	var (
		k      int
		genre  string
		source string
	)

	cmd := &cobra.Command{
		Use:   "text <description>",
		Short: "Recommend books matching a free-text description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := g.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := svc.RecommendByText(cmd.Context(), service.TextRecommendRequest{
				Text:   args[0],
				K:      optionalK(cmd, k),
				Genre:  genre,
				Source: source,
			})
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			renderRecommendations(cmd.OutOrStdout(), fmt.Sprintf("Matches for %q", args[0]), resp.Items)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of recommendations")
	cmd.Flags().StringVar(&genre, "genre", "", "Only recommend books whose genre contains this text")
	cmd.Flags().StringVar(&source, "source", "", "Only recommend books from this source")
	return cmd
}

func newBrowseCmd(g *globalFlags) *cobra.Command {
	var req service.BrowseRequest

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List catalog books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := g.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := svc.Browse(cmd.Context(), req)
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			renderBooks(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Genre, "genre", "", "Only list books whose genre contains this text")
	cmd.Flags().StringVar(&req.Source, "source", "", "Only list books from this source")
	cmd.Flags().StringVar(&req.Sort, "sort", "none", "Sort order: none, rating or rating_desc")
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "Number of books to skip")
	return cmd
}

func newSuggestCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <partial title>",
		Short: "Suggest catalog titles for a partial input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := g.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := svc.Suggest(cmd.Context(), service.SuggestRequest{Query: args[0], Limit: limit})
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			renderList(cmd.OutOrStdout(), "Suggestions", resp.Titles)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of titles")
	return cmd
}

func newGenresCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List the genres present in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := g.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			genres, err := svc.Genres(cmd.Context())
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), genres)
			}
			renderList(cmd.OutOrStdout(), "Genres", genres)
			return nil
		},
	}
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := g.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func newImportCmd(g *globalFlags) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the CSV exports into the SQLite catalog database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.sqlitePath == "" {
				return fmt.Errorf("--sqlite is required")
			}
			return runImport(cmd, g, replace)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Delete existing rows of each imported source first")
	return cmd
}

func runImport(cmd *cobra.Command, g *globalFlags, replace bool) error {
	ctx := cmd.Context()
	log := g.logger()

	store, err := sqlite.Open(g.sqlitePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// One ImportRows call, so --replace clears the tables exactly once.
	var rows []catalog.RawRow
	imported := make(map[domain.Source]int)
	for _, src := range catalog.DirSources(g.dataPath, g.goodreadsFile, g.kindleFile) {
		batches, err := src.Load(ctx)
		if err != nil {
			return err
		}
		for _, batch := range batches {
			if batch.Missing {
				log.Warn("export not found, skipping", "path", batch.Origin)
				continue
			}
			rows = append(rows, batch.Rows...)
			imported[batch.Source] += len(batch.Rows)
		}
	}

	if _, err := store.ImportRows(ctx, rows, replace); err != nil {
		return fmt.Errorf("import into %s: %w", g.sqlitePath, err)
	}
	if err := store.Checkpoint(ctx); err != nil {
		return err
	}

	counts, err := store.CountRows(ctx)
	if err != nil {
		return err
	}

	if g.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"imported": imported,
			"total":    counts,
		})
	}
	renderImport(cmd.OutOrStdout(), g.sqlitePath, imported, counts)
	return nil
}
