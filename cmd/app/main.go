package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/cdmbridge/internal"
	"github.com/starford/cdmbridge/internal/mcpserver"
	"github.com/starford/cdmbridge/internal/persistence/modeljson"
	pkgconfig "github.com/starford/cdmbridge/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// stderrLogger keeps stdout free for command output.
func stderrLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func convert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src := cmd.Args().First()
	if src == "" {
		return fmt.Errorf("convert: a model.json file (or - for stdin) is required")
	}
	from := cmd.String("from")
	if from != "model.json" && from != "cdm-folder" {
		return fmt.Errorf("convert: unknown source format %q (model.json, cdm-folder)", from)
	}
	if from == "cdm-folder" && src == "-" {
		return fmt.Errorf("convert: a cdm-folder source must be a *.cdm.json file")
	}
	var data []byte
	if src == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return fmt.Errorf("convert: read %s: %w", src, err)
	}

	b, err := internal.Open(cfg, stderrLogger(cfg), false)
	if err != nil {
		return err
	}
	defer b.Close()

	folder := cmd.String("folder")
	if from == "cdm-folder" {
		doc, err := b.Service.ConvertCdmFolderDocument(ctx, data, path.Join(folder, filepath.Base(src)))
		if err != nil {
			return err
		}
		return writeOutput(cmd.String("out"), doc.Normalized)
	}

	var out []byte
	switch to := cmd.String("to"); to {
	case "model.json":
		out, _, err = b.Service.RoundTripModelJSON(ctx, data, folder)
	case "cdm-folder":
		exp, expErr := b.Service.ExportCdmFolder(ctx, data, folder, cmd.Bool("write"))
		if expErr != nil {
			return expErr
		}
		out, err = exportListing(exp.Documents, cmd.Bool("write"))
	default:
		return fmt.Errorf("convert: unknown target format %q (model.json, cdm-folder)", to)
	}
	if err != nil {
		return err
	}
	return writeOutput(cmd.String("out"), out)
}

// exportListing renders exported documents: their names when written,
// their content otherwise.
func exportListing(docs map[string]json.RawMessage, written bool) ([]byte, error) {
	if written {
		names := make([]string, 0, len(docs))
		for name := range docs {
			names = append(names, name)
		}
		sort.Strings(names)
		return json.MarshalIndent(names, "", "  ")
	}
	return json.MarshalIndent(docs, "", "  ")
}

func writeOutput(path string, out []byte) error {
	out = append(out, '\n')
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func schema(_ context.Context, cmd *cli.Command) error {
	out, err := json.MarshalIndent(modeljson.Schema(), "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd.String("out"), out)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)
	slog.SetDefault(logger)

	b, err := internal.Open(cfg, logger, true)
	if err != nil {
		return err
	}
	defer b.Close()

	if _, err := b.Service.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return mcpserver.New(b.Service, version).ServeStdio()
}

func main() {
	outFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Write output to this file instead of stdout",
		}
	}

	cmd := &cli.Command{
		Name:    "cdmbridge",
		Usage:   "Convert CDM model.json manifests, export CDM folders and keep a catalog of entities",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE stream and file watcher",
				Action: serve,
			},
			{
				Name:      "convert",
				Usage:     "Convert a model.json file or a CDM folder document",
				ArgsUsage: "<model.json|*.cdm.json|->",
				Action:    convert,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Source format: model.json or cdm-folder",
						Value: "model.json",
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Corpus folder the model lives in",
						Value: "/",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Target format: model.json or cdm-folder",
						Value: "model.json",
					},
					&cli.BoolFlag{
						Name:  "write",
						Usage: "Store cdm-folder documents in the corpus",
					},
					outFlag(),
				},
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON Schema of model.json",
				Action: schema,
				Flags:  []cli.Flag{outFlag()},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
