package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"dotsandboxes/engine"
	"dotsandboxes/experiments"
	"dotsandboxes/game"
	"dotsandboxes/meta"
	"dotsandboxes/render"
	"dotsandboxes/searcher"
	"dotsandboxes/searcher/agent"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	rows := flag.Int("rows", meta.ROWS, "Number of box rows")
	cols := flag.Int("cols", meta.COLS, "Number of box columns")
	depthA := flag.Int("depth-a", meta.DEPTH, "Search depth of agent A")
	depthB := flag.Int("depth-b", meta.DEPTH, "Search depth of agent B")
	deadline := flag.Duration("deadline", meta.DEADLINE, "Time an agent has to answer a prompt")
	pacing := flag.Duration("pacing", meta.PACING, "Pause after each applied move")
	seed := flag.Uint64("seed", 0, "Random seed, 0 seeds from the clock")
	start := flag.String("start", "", "Starting player (A or B), random when empty")
	level := flag.String("log-level", "info", "Log level")
	experiment := flag.Bool("experiment", false, "Run the depth experiment instead of a single match")
	games := flag.Int("games", meta.NUM_GAMES, "Games per match up in the experiment")
	out := flag.String("out", "experiments", "Output directory for experiment results")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Err(err).Msgf("unknown log level %q, using info", *level)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *experiment {
		settings := experiments.DefaultSettings()
		settings.Rows, settings.Cols = *rows, *cols
		settings.Games = *games
		settings.Deadline = *deadline
		settings.Seed = *seed
		settings.OutDir = *out
		if _, err := experiments.RunDepthExperiment(ctx, settings); err != nil {
			log.Fatal().Err(err).Msg("depth experiment failed")
		}
		return
	}

	options := []engine.Option{
		engine.WithDeadline(*deadline),
		engine.WithPacing(*pacing),
		engine.WithSeed(*seed),
	}
	if *start != "" {
		p, err := game.ParsePlayer(*start)
		if err != nil {
			log.Fatal().Err(err).Msgf("invalid starting player %q", *start)
		}
		options = append(options, engine.WithStartingPlayer(p))
	}

	grid := game.NewGrid(*rows, *cols)
	agentA := agent.NewMinimaxAgent(searcher.NewMinimax(searcher.WithDepth(*depthA), searcher.WithSeed(*seed+1)))
	agentB := agent.NewMinimaxAgent(searcher.NewMinimax(searcher.WithDepth(*depthB), searcher.WithSeed(*seed+2)))
	e := engine.LocalEngine(grid, agentA, agentB, options...)

	result, err := e.Run(ctx, render.NewText(os.Stdout, grid).Handle)
	if err != nil || result.Aborted {
		log.Error().Err(err).Str("match", result.MatchID).Msg("match aborted")
		os.Exit(1)
	}
	log.Info().Str("match", result.MatchID).Msgf("match finished in %s, winner %s", result.Duration, result.Winner())
}
