// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/respostas/config"
	"github.com/poiesic/respostas/reembed"
	"github.com/poiesic/respostas/search"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "respostas",
		Usage: "Semantic answer bank for institutional correspondence",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to a rotating file instead of stderr",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file (default: " + config.DefaultFile + " if present)",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Team login (default: the configured user)",
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Team password (prompted for when omitted)",
				EnvVars: []string{"RESPOSTAS_LOGIN_PASSWORD"},
			},
		},
		Before: setupLogger,
		After:  closeLogger,
		Commands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Register a received document and the reply sent",
				Action: addCommand,
				Flags: append(fieldFlags(),
					&cli.BoolFlag{
						Name:  "stdin",
						Usage: "Read the received text from standard input",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Find previously answered documents similar to a new one",
				ArgsUsage: "<text>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   fmt.Sprintf("Number of results (1-%d, default: the configured top_k)", search.MaxTopK),
					},
					&cli.BoolFlag{
						Name:  "stdin",
						Usage: "Read the query text from standard input",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List every stored record",
				Action: listCommand,
				Flags:  listFlags(),
			},
			{
				Name:      "filter",
				Usage:     "List records containing a term in any text field",
				ArgsUsage: "<term>",
				Action:    filterCommand,
				Flags:     listFlags(),
			},
			{
				Name:      "show",
				Usage:     "Show one record in full",
				ArgsUsage: "<position>",
				Action:    showCommand,
			},
			{
				Name:      "edit",
				Usage:     "Change fields of a stored record",
				ArgsUsage: "<position>",
				Action:    editCommand,
				Flags:     fieldFlags(),
			},
			{
				Name:      "import",
				Usage:     "Append the records of a CSV file in respostas.csv layout",
				ArgsUsage: "<file.csv>",
				Action:    importCommand,
			},
			{
				Name:      "export",
				Usage:     "Write every record to a CSV file in respostas.csv layout",
				ArgsUsage: "[file.csv]",
				Action:    exportCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Recompute stale embeddings, or all of them after a model change",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Re-embed every record, not only stale ones",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of batches embedded concurrently",
						Value: reembed.DefaultConfig().PoolSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "hash-password",
				Usage:  "Print a bcrypt hash for the access.password_hash setting",
				Action: hashPasswordCommand,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration",
				Action: configCommand,
			},
		},
	}
}

func fieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "process",
			Aliases: []string{"p"},
			Usage:   "SEI process number",
		},
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Document type (oficio, requerimento, indicacao, outro)",
		},
		&cli.StringFlag{
			Name:    "number",
			Aliases: []string{"n"},
			Usage:   "Document number",
		},
		&cli.StringFlag{
			Name:    "authorship",
			Aliases: []string{"a"},
			Usage:   "Author of the received document (e.g. Dep. Federal João Silva - PT/SP)",
		},
		&cli.StringFlag{
			Name:  "received",
			Usage: "Text of the received document",
		},
		&cli.StringFlag{
			Name:  "reply",
			Usage: "Text of the institutional reply",
		},
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "full",
			Usage: "Print every field instead of one line per record",
		},
	}
}

var logFile io.WriteCloser

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	var out io.Writer = os.Stderr
	if path := c.String("log-file"); path != "" {
		logFile = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // Megabytes
			MaxBackups: 5,
			MaxAge:     30, // Days
			Compress:   true,
		}
		out = logFile
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func closeLogger(c *cli.Context) error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
