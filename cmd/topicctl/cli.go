package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/topicdex/internal/domain/analysis/request"
	topicdex "github.com/kailas-cloud/topicdex/pkg/sdk"
)

// corpus is the input file layout, the same as the POST /analyze body.
type corpus struct {
	Embeddings   [][]float32 `json:"embeddings"`
	Documents    []string    `json:"documents"`
	DocumentIDs  []string    `json:"document_ids"`
	MinTopicSize *int        `json:"min_topic_size"`
	NrTopics     *int        `json:"nr_topics"`
	Language     string      `json:"language"`
	NGramRange   []int       `json:"n_gram_range"`
}

type topicOutput struct {
	ID        int      `json:"id"`
	Label     string   `json:"label"`
	Keywords  []string `json:"keywords"`
	Documents []string `json:"documents"`
	Size      int      `json:"size"`
}

type output struct {
	Topics           []topicOutput  `json:"topics"`
	TopicAssignments map[string]int `json:"topic_assignments"`
	Outliers         []string       `json:"outliers"`
	Statistics       struct {
		TotalDocuments       int `json:"total_documents"`
		NumTopics            int `json:"num_topics"`
		NumOutliers          int `json:"num_outliers"`
		NumDocumentsInTopics int `json:"num_documents_in_topics"`
	} `json:"statistics"`
	Advisories []string `json:"advisories,omitempty"`
}

func run(ctx context.Context, args []string, version string) error {
	var logLevel string
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.Command{
		Name:    "topicctl",
		Usage:   "Discover topics in an embedded document corpus",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("TOPICDEX_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return ctx, fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdAnalyze(func() *slog.Logger { return logger }),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logger.Error("failed to run topicctl", "error", err)
		return err
	}
	return nil
}

func cmdAnalyze(logger func() *slog.Logger) *cli.Command {
	var (
		input  string
		out    string
		pretty bool
	)

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Cluster a corpus file and print the topics as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "Corpus JSON file (- for stdin)",
				Value:       "-",
				Destination: &input,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Result file (- for stdout)",
				Value:       "-",
				Destination: &out,
			},
			&cli.BoolFlag{
				Name:        "pretty",
				Usage:       "Indent the JSON output",
				Destination: &pretty,
			},
			&cli.IntFlag{
				Name:  "min-topic-size",
				Usage: "Override the corpus min_topic_size",
			},
			&cli.IntFlag{
				Name:  "nr-topics",
				Usage: "Override the corpus nr_topics",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Override the corpus language (english, french, multilingual)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			in, err := readCorpus(input, c.Root().Reader)
			if err != nil {
				return err
			}
			if c.IsSet("min-topic-size") {
				n := c.Int("min-topic-size")
				in.MinTopicSize = &n
			}
			if c.IsSet("nr-topics") {
				n := c.Int("nr-topics")
				in.NrTopics = &n
			}
			if c.IsSet("language") {
				in.Language = c.String("language")
			}

			client, err := topicdex.New(ctx, topicdex.WithoutStore(), topicdex.WithLogger(logger()))
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			defer client.Close()

			docs, params, err := in.toSDK()
			if err != nil {
				return fmt.Errorf("invalid parameters: %w", err)
			}
			res, err := client.Analyze(ctx, docs, params)
			if err != nil {
				return fmt.Errorf("analyze %d documents: %w", len(docs), err)
			}
			for _, a := range res.Advisories {
				logger().Warn("Analysis advisory", "advisory", a)
			}
			logger().Info("Analysis completed",
				"documents", res.Stats.TotalDocuments,
				"topics", res.Stats.Topics,
				"outliers", res.Stats.Outliers,
			)

			return writeResult(out, c.Root().Writer, toOutput(res), pretty)
		},
	}
}

func readCorpus(path string, stdin io.Reader) (corpus, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return corpus{}, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if r == nil {
		r = os.Stdin
	}

	var in corpus
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return corpus{}, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}

func writeResult(path string, stdout io.Writer, v output, pretty bool) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if w == nil {
		w = os.Stdout
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// toSDK converts the corpus into SDK arguments. Explicit parameters are
// checked here because the SDK treats zero values as defaults.
func (c corpus) toSDK() ([]topicdex.Document, topicdex.Params, error) {
	// Length mismatches are reported by validation, so pad instead of failing here.
	n := max(len(c.Embeddings), len(c.Documents), len(c.DocumentIDs))
	docs := make([]topicdex.Document, 0, n)
	for i := range n {
		var d topicdex.Document
		if i < len(c.DocumentIDs) {
			d.ID = c.DocumentIDs[i]
		}
		if i < len(c.Documents) {
			d.Text = c.Documents[i]
		}
		if i < len(c.Embeddings) {
			d.Embedding = c.Embeddings[i]
		}
		docs = append(docs, d)
	}

	p := topicdex.Params{Language: topicdex.Language(c.Language)}
	if c.MinTopicSize != nil {
		if err := request.ValidateMinTopicSize(*c.MinTopicSize); err != nil {
			return nil, topicdex.Params{}, err
		}
		p.MinTopicSize = *c.MinTopicSize
	}
	if c.NrTopics != nil {
		if err := request.ValidateNrTopics(*c.NrTopics); err != nil {
			return nil, topicdex.Params{}, err
		}
		p.NrTopics = *c.NrTopics
	}
	if len(c.NGramRange) == 2 {
		p.NGramMin, p.NGramMax = c.NGramRange[0], c.NGramRange[1]
	}
	return docs, p, nil
}

func toOutput(res topicdex.Result) output {
	var o output
	o.Topics = make([]topicOutput, len(res.Topics))
	for i, t := range res.Topics {
		o.Topics[i] = topicOutput{ID: t.ID, Label: t.Label, Keywords: t.Keywords, Documents: t.Documents, Size: t.Size}
	}
	o.TopicAssignments = res.Assignments
	o.Outliers = res.Outliers
	if o.Outliers == nil {
		o.Outliers = []string{}
	}
	o.Statistics.TotalDocuments = res.Stats.TotalDocuments
	o.Statistics.NumTopics = res.Stats.Topics
	o.Statistics.NumOutliers = res.Stats.Outliers
	o.Statistics.NumDocumentsInTopics = res.Stats.DocumentsInTopics
	o.Advisories = res.Advisories
	return o
}
