package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/tagprogress/internal"
	"github.com/starford/tagprogress/internal/progress"
	pkgconfig "github.com/starford/tagprogress/pkg/config"
)

var version = "dev"

// loadOptions reads the config file named by --config. A missing file keeps
// the defaults.
func loadOptions(cmd *cli.Command, extra ...internal.Option) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	return append(opts, extra...), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// reportRequest maps the shared option flags onto engine options.
func reportRequest(cmd *cli.Command) internal.ReportRequest {
	return internal.ReportRequest{
		JSON:  cmd.Bool("json"),
		Limit: int(cmd.Int("limit")),
		Apply: func(o *progress.Options) {
			if cmd.IsSet("mode") {
				o.Mode = progress.Mode(cmd.String("mode"))
			}
			if cmd.IsSet("only-rang") {
				o.OnlyRang = cmd.String("only-rang")
			}
			if cmd.IsSet("exclude-rang") {
				o.ExcludeRang = cmd.String("exclude-rang")
			}
			if cmd.IsSet("children") {
				o.IncludeChildren = cmd.Bool("children")
			}
			if cmd.IsSet("subject") {
				o.SubjectFilter = cmd.StringSlice("subject")
			}
			if cmd.IsSet("mask") {
				o.SuspendMaskThreshold = cmd.Float("mask")
			}
			if cmd.IsSet("overlap") {
				o.OverlapThreshold = cmd.Float("overlap")
			}
			if cmd.IsSet("mature-ivl") {
				o.MatureInterval = int(cmd.Int("mature-ivl"))
			}
		},
	}
}

func optionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "items, sdd or subject"},
		&cli.StringFlag{Name: "only-rang", Usage: "keep only notes tagged rang::<value>"},
		&cli.StringFlag{Name: "exclude-rang", Usage: "drop notes tagged rang::<value>"},
		&cli.BoolFlag{Name: "children", Usage: "list child tags as units"},
		&cli.StringSliceFlag{Name: "subject", Aliases: []string{"s"}, Usage: "only count notes under this subject tag (repeatable)"},
		&cli.FloatFlag{Name: "mask", Usage: "hide units whose unsuspended share is at or below this ratio"},
		&cli.FloatFlag{Name: "overlap", Usage: "minimum subject overlap in subject mode (ratio or percent)"},
		&cli.IntFlag{Name: "mature-ivl", Usage: "interval in days from which a review card is mature"},
		&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "show at most this many units"},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "tagprogress",
		Usage:   "Learning progress per EDN item, SDD situation and subject, computed from an Anki collection",
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
				Usage:  "Run the HTTP API with live refresh",
				Action: serve,
			},
			{
				Name:  "overview",
				Usage: "Print the progress overview",
				Flags: optionFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
					if err != nil {
						return err
					}
					return internal.PrintOverview(ctx, os.Stdout, reportRequest(cmd), opts...)
				},
			},
			{
				Name:      "tag",
				Usage:     "Print the statistics of one tag",
				ArgsUsage: "<tag>",
				Flags:     optionFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					tag := cmd.Args().First()
					if tag == "" {
						return fmt.Errorf("tag argument is required")
					}
					opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
					if err != nil {
						return err
					}
					return internal.PrintTag(ctx, os.Stdout, tag, reportRequest(cmd), opts...)
				},
			},
			{
				Name:  "export",
				Usage: "Write the overview as CSV",
				Flags: append(optionFlags(), &cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "CSV file to write (default stdout)",
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
					if err != nil {
						return err
					}
					out := os.Stdout
					if path := cmd.String("output"); path != "" {
						f, err := os.Create(path)
						if err != nil {
							return fmt.Errorf("create %s: %w", path, err)
						}
						defer f.Close()
						out = f
					}
					return internal.Export(ctx, out, reportRequest(cmd), opts...)
				},
			},
			{
				Name:      "import",
				Usage:     "Load a YAML deck into the collection",
				ArgsUsage: "<deck.yaml>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("deck argument is required")
					}
					opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
					if err != nil {
						return err
					}
					n, err := internal.Import(ctx, path, opts...)
					if err != nil {
						return err
					}
					fmt.Printf("imported %d notes\n", n)
					return nil
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the MCP tools on stdio",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "enable", Usage: "switch the mcp_tools module on before serving"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
					if err != nil {
						return err
					}
					return internal.ServeMCP(ctx, cmd.Bool("enable"), opts...)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
