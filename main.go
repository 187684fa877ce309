package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	app "github.com/rocketscienceinc/minesweeper-backend/internal"
	"github.com/rocketscienceinc/minesweeper-backend/internal/config"
)

// main - is the entry point of the application. It parses the command line and runs the chosen command.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "minesweeper",
		Usage: "minesweeper server with game history and replays",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the yaml config",
				Value:   "config.yml",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP and WebSocket servers",
				Action: serve,
			},
			{
				Name:  "history",
				Usage: "print finished games, most recent first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "player", Usage: "only games of this player"},
				},
				Action: printHistory,
			},
			{
				Name:      "replay",
				Usage:     "replay a finished game in the terminal",
				ArgsUsage: "<game-id>",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "pace", Usage: "delay between moves, overrides the config"},
				},
				Action: replayGame,
			},
		},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	conf := initConfig(cmd.String("config"))
	logger := initLogger(conf, os.Stdout)

	return app.RunApp(ctx, logger, conf)
}

// initialize config.
func initConfig(path string) *config.Config {
	if !filepath.IsAbs(path) {
		baseDir, err := os.Getwd()
		if err != nil {
			panic(fmt.Errorf("failed to get current directory: %w", err))
		}

		path = filepath.Join(baseDir, path)
	}

	return config.MustLoad(path)
}

// initialize logger.
func initLogger(conf *config.Config, out io.Writer) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}
