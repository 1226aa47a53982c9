package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/respostas/reembed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findFlag[T cli.Flag](t *testing.T, flags []cli.Flag, name string) T {
	t.Helper()
	for _, flag := range flags {
		if f, ok := flag.(T); ok && flag.Names()[0] == name {
			return f
		}
	}
	t.Fatalf("flag %q not found", name)
	var zero T
	return zero
}

func TestAppCommands(t *testing.T) {
	app := newApp()

	for _, name := range []string{"add", "search", "list", "filter", "show", "edit", "import", "export", "reembed", "hash-password", "config"} {
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(t, app, name)
			assert.NotNil(t, cmd.Action)
			assert.NotEmpty(t, cmd.Usage)
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	app := newApp()

	t.Run("log-level defaults to info with alias -l", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, app.Flags, "log-level")
		assert.Equal(t, "info", f.Value)
		assert.Contains(t, f.Aliases, "l")
	})

	t.Run("config has alias -c and no default", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, app.Flags, "config")
		assert.Empty(t, f.Value)
		assert.Contains(t, f.Aliases, "c")
	})

	t.Run("password can come from the environment", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, app.Flags, "password")
		assert.Equal(t, []string{"RESPOSTAS_LOGIN_PASSWORD"}, f.EnvVars)
	})
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "reembed")

	t.Run("all defaults to false", func(t *testing.T) {
		f := findFlag[*cli.BoolFlag](t, cmd.Flags, "all")
		assert.False(t, f.Value)
	})

	t.Run("batch-size has default value", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](t, cmd.Flags, "batch-size")
		assert.Equal(t, reembed.DefaultBatchSize, f.Value)
	})

	t.Run("report-interval has default value of 100", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](t, cmd.Flags, "report-interval")
		assert.Equal(t, 100, f.Value)
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](t, cmd.Flags, "max-retries")
		assert.Equal(t, 3, f.Value)
	})

	t.Run("pool-size is positive", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](t, cmd.Flags, "pool-size")
		assert.Positive(t, f.Value)
	})
}

func TestFieldFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "add")

	for _, name := range []string{"process", "type", "number", "authorship", "received", "reply"} {
		t.Run(name, func(t *testing.T) {
			f := findFlag[*cli.StringFlag](t, cmd.Flags, name)
			assert.Empty(t, f.Value)
			assert.False(t, f.Required)
		})
	}
}

func TestReembedCommandValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero batch size", []string{"--batch-size", "0"}, "batch-size"},
		{"zero pool size", []string{"--pool-size", "0"}, "pool-size"},
		{"zero report interval", []string{"--report-interval", "0"}, "report-interval"},
		{"zero retries", []string{"--max-retries", "0"}, "max-retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			err := app.Run(append([]string{"respostas", "reembed"}, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						assert.True(t, slog.Default().Enabled(c.Context, tc.expected))
						assert.False(t, slog.Default().Enabled(c.Context, tc.expected-1))
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log file receives records", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "respostas.log")
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
				&cli.StringFlag{Name: "log-file"},
			},
			Before: setupLogger,
			After:  closeLogger,
			Action: func(c *cli.Context) error {
				slog.Info("written to file", "answer", 42)
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-file", path})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written to file")
		assert.Contains(t, string(data), "answer=42")
	})
}

func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}
