package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/logger"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "tfidf",
		Usage:     "Rank the documents of a directory by TF-IDF relevance to a token",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Corpus directory to index",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name of the corpus index",
				Value: "default",
			},
			&cli.StringFlag{
				Name:  "missing-files",
				Usage: "How non-regular entries are indexed (empty, error)",
				Value: "empty",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of documents indexed in parallel",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "rank",
				Usage:     "List documents by descending TF-IDF score for a token",
				ArgsUsage: "<token>",
				Action:    rankCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of documents to print (0 for all)",
					},
				},
			},
			{
				Name:      "idf",
				Usage:     "Print the inverse document frequency of a token",
				ArgsUsage: "<token>",
				Action:    idfCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print corpus index statistics",
				Action: statsCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	logger.SetupWriter(os.Stderr, c.String("log-level"), "text")
	return nil
}

func corpusConfig(c *cli.Context) (config.CorpusConfig, error) {
	cfg := config.CorpusConfig{
		Dir:          c.String("dir"),
		Name:         c.String("name"),
		MissingFiles: c.String("missing-files"),
		Workers:      c.Int("workers"),
	}
	if err := cfg.Validate(); err != nil {
		return config.CorpusConfig{}, err
	}
	return cfg, nil
}

func buildEngine(c *cli.Context) (*indexer.Engine, error) {
	cfg, err := corpusConfig(c)
	if err != nil {
		return nil, err
	}
	engine := indexer.NewEngine(cfg, nil, nil)
	if _, err := engine.Build(c.Context); err != nil {
		return nil, err
	}
	return engine, nil
}

func tokenArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one token, got %d arguments", c.Command.Name, c.NArg())
	}
	return c.Args().First(), nil
}

func rankCommand(c *cli.Context) error {
	token, err := tokenArg(c)
	if err != nil {
		return err
	}
	engine, err := buildEngine(c)
	if err != nil {
		return err
	}
	result, err := executor.New(engine).Execute(c.Context, token, c.Int("limit"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, result)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tNAME\tPATH")
	for _, doc := range result.Results {
		fmt.Fprintf(tw, "%.8f\t%s\t%s\n", doc.Score, doc.Name, doc.Path)
	}
	return tw.Flush()
}

func idfCommand(c *cli.Context) error {
	token, err := tokenArg(c)
	if err != nil {
		return err
	}
	engine, err := buildEngine(c)
	if err != nil {
		return err
	}
	stats, err := executor.New(engine).Term(token)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, stats)
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\tidf=%.8f\tdf=%d\tdocs=%d\n",
		stats.Token, stats.IDF, stats.DocumentFrequency, stats.TotalDocs)
	return err
}

func statsCommand(c *cli.Context) error {
	engine, err := buildEngine(c)
	if err != nil {
		return err
	}
	ix, err := engine.Index()
	if err != nil {
		return err
	}
	stats := ix.Stats()
	if c.Bool("json") {
		return writeJSON(c.App.Writer, stats)
	}
	return printStats(c.App.Writer, stats)
}

func printStats(w io.Writer, stats index.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", stats.ID)
	fmt.Fprintf(tw, "name\t%s\n", stats.Name)
	fmt.Fprintf(tw, "dir\t%s\n", stats.Dir)
	fmt.Fprintf(tw, "state\t%s\n", stats.State)
	fmt.Fprintf(tw, "documents\t%d\n", stats.Documents)
	fmt.Fprintf(tw, "vocabulary\t%d\n", stats.VocabularySize)
	fmt.Fprintf(tw, "tokens\t%d\n", stats.TotalTokens)
	fmt.Fprintf(tw, "build time\t%s\n", stats.BuildDuration)
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
