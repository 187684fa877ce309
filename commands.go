package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	app "github.com/rocketscienceinc/minesweeper-backend/internal"
	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/internal/minesweeper"
	"github.com/rocketscienceinc/minesweeper-backend/internal/replay"
	"github.com/rocketscienceinc/minesweeper-backend/internal/usecase"
)

var errGameIDRequired = errors.New("a numeric game id is required")

func printHistory(ctx context.Context, cmd *cli.Command) error {
	conf := initConfig(cmd.String("config"))
	logger := initLogger(conf, os.Stderr)

	gameRepo, closeRepo := app.OpenGameRepository(ctx, logger, conf)
	defer closeRepo()

	manager := usecase.NewGameManager(logger, gameRepo, conf.Game.MaxSize)

	var (
		games []*entity.GameRecord
		err   error
	)

	if player := cmd.String("player"); player != "" {
		games, err = manager.PlayerHistory(ctx, player)
	} else {
		games, err = manager.History(ctx)
	}

	if err != nil {
		return err
	}

	return writeHistory(cmd.Root().Writer, games)
}

func writeHistory(out io.Writer, games []*entity.GameRecord) error {
	if len(games) == 0 {
		_, err := fmt.Fprintln(out, "no games played yet")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tPLAYER\tBOARD\tRESULT\tMOVES")

	for _, game := range games {
		fmt.Fprintf(w, "%d\t%s\t%s\t%dx%d/%d\t%s\t%d\n",
			game.ID, game.Date.Local().Format(time.DateTime), game.Player,
			game.Size, game.Size, game.Mines, game.Status, game.MovesCount)
	}

	return w.Flush()
}

func replayGame(ctx context.Context, cmd *cli.Command) error {
	gameID, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return errGameIDRequired
	}

	conf := initConfig(cmd.String("config"))
	logger := initLogger(conf, os.Stderr)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gameRepo, closeRepo := app.OpenGameRepository(ctx, logger, conf)
	defer closeRepo()

	if gameRepo == nil {
		return apperror.ErrPersistenceDisabled
	}

	pace := conf.Replay.Pace
	if cmd.IsSet("pace") {
		pace = cmd.Duration("pace")
	}

	out := cmd.Root().Writer

	driver := replay.NewDriver(logger, gameRepo, pace)
	result, err := driver.Start(ctx, gameID, func(step replay.Step) {
		fmt.Fprintf(out, "move %d: reveal (%d,%d) -> %s\n", step.MoveNumber, step.X, step.Y, step.Outcome)
		if renderErr := minesweeper.Render(out, step.Game); renderErr != nil {
			logger.Error("failed to render board", "error", renderErr)
		}
		fmt.Fprintln(out)
	})
	if err != nil {
		return fmt.Errorf("failed to replay game %d: %w", gameID, err)
	}

	return writeResult(out, result)
}

func writeResult(out io.Writer, result *replay.Result) error {
	outcome := result.Outcome
	if outcome == "" {
		outcome = "unfinished"
	}

	_, err := fmt.Fprintf(out, "game %d replayed in %d moves: %s (recorded %s, matches: %t)\n",
		result.GameID, result.StepsPlayed, outcome, result.RecordedStatus, result.Matches)

	return err
}
