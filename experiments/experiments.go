package experiments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dotsandboxes/engine"
	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
	"dotsandboxes/meta"
	"dotsandboxes/searcher"
	"dotsandboxes/searcher/agent"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Settings shared by every game of an experiment.
type Settings struct {
	Rows     int
	Cols     int
	Games    int // Per match up
	Parallel int // Games played at once
	Deadline time.Duration
	Seed     uint64
	OutDir   string
}

func DefaultSettings() Settings {
	return Settings{
		Rows:     meta.ROWS,
		Cols:     meta.COLS,
		Games:    meta.NUM_GAMES,
		Parallel: 4,
		Deadline: meta.DEADLINE,
		Seed:     1,
		OutDir:   "experiments",
	}
}

// Tally of one match up, from the first agent's point of view.
type Tally struct {
	Agent1  metrics.AgentConfig
	Agent2  metrics.AgentConfig
	Wins    int
	Losses  int
	Ties    int
	Aborted int
}

var depthConfigs = []metrics.AgentConfig{
	{ID: 1, Kind: metrics.RandomAgent},
	{ID: 2, Kind: metrics.MinimaxAgent, Depth: 1},
	{ID: 3, Kind: metrics.MinimaxAgent, Depth: 2},
	{ID: 4, Kind: metrics.MinimaxAgent, Depth: 3},
	{ID: 5, Kind: metrics.MinimaxAgent, Depth: 4},
}

// RunDepthExperiment pairs the reference depth-3 agent against the random
// baseline and against every other depth.
func RunDepthExperiment(ctx context.Context, settings Settings) ([]Tally, error) {
	baseline := metrics.AgentConfig{ID: 0, Kind: metrics.MinimaxAgent, Depth: meta.DEPTH}
	matchUps := [][]metrics.AgentConfig{}
	for _, config := range depthConfigs {
		matchUps = append(matchUps, []metrics.AgentConfig{baseline, config})
	}

	return runExperiment(ctx, "depth", append(depthConfigs, baseline), matchUps, settings)
}

type gameTask struct {
	id      int
	agent1  metrics.AgentConfig
	agent2  metrics.AgentConfig
	swapped bool // agent2 plays A
	seed    uint64
}

func runExperiment(ctx context.Context, name string, configs []metrics.AgentConfig, matchUps [][]metrics.AgentConfig, settings Settings) ([]Tally, error) {
	log.Info().Msgf("starting %s experiment...", name)

	var tasks []gameTask
	for _, matchUp := range matchUps {
		for i := 0; i < settings.Games; i++ {
			tasks = append(tasks, gameTask{
				id:      len(tasks) + 1,
				agent1:  matchUp[0],
				agent2:  matchUp[1],
				swapped: i%2 == 1, // Alternate who plays A
				seed:    settings.Seed + uint64(len(tasks)),
			})
		}
	}

	var (
		mu          sync.Mutex
		gameRecords = make([]metrics.GameRecord, len(tasks))
		moveRecords = make([][]metrics.MoveRecord, len(tasks))
		results     = make([]engine.Result, len(tasks))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(settings.Parallel, 1))
	for i, task := range tasks {
		g.Go(func() error {
			result, err := runGame(gctx, task, settings)
			if err != nil && !result.Aborted {
				return fmt.Errorf("game %d: %w", task.id, err)
			}

			first, second := task.agent1.ID, task.agent2.ID
			if task.swapped {
				first, second = second, first
			}
			mu.Lock()
			defer mu.Unlock()
			results[i] = result
			gameRecords[i] = metrics.GameRecord{ID: task.id, Agent1: first, Agent2: second, GameMetric: result.GameMetric()}
			for _, m := range result.Moves {
				moveRecords[i] = append(moveRecords[i], metrics.MoveRecord{Game: task.id, MoveMetric: m})
			}
			log.Info().Msgf("completed game %d of %d with winner: %s", task.id, len(tasks), result.Winner())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().Msgf("completed %s experiment", name)

	tallies := tally(matchUps, tasks, results)
	var flat []metrics.MoveRecord
	for _, records := range moveRecords {
		flat = append(flat, records...)
	}
	if err := store(name, configs, gameRecords, flat, settings.OutDir); err != nil {
		return tallies, err
	}
	return tallies, nil
}

func runGame(ctx context.Context, task gameTask, settings Settings) (engine.Result, error) {
	r := rand.New(rand.NewSource(task.seed))
	agentA := createAgent(task.agent1, r.Uint64())
	agentB := createAgent(task.agent2, r.Uint64())
	if task.swapped {
		agentA, agentB = agentB, agentA
	}

	e := engine.LocalEngine(game.NewGrid(settings.Rows, settings.Cols), agentA, agentB,
		engine.WithPacing(0),
		engine.WithDeadline(settings.Deadline),
		engine.WithSeed(r.Uint64()),
	)
	return e.Run(ctx, nil)
}

func createAgent(config metrics.AgentConfig, seed uint64) agent.Agent {
	switch config.Kind {
	case metrics.RandomAgent:
		return agent.NewRandomAgent(rand.New(rand.NewSource(seed)))
	case metrics.MinimaxAgent:
		return agent.NewMinimaxAgent(searcher.NewMinimax(
			searcher.WithDepth(config.Depth),
			searcher.WithSeed(seed),
			searcher.WithMetrics(),
		))
	}
	panic(fmt.Sprintf("unknown agent kind %q", config.Kind))
}

func tally(matchUps [][]metrics.AgentConfig, tasks []gameTask, results []engine.Result) []Tally {
	tallies := make([]Tally, len(matchUps))
	for i, matchUp := range matchUps {
		tallies[i] = Tally{Agent1: matchUp[0], Agent2: matchUp[1]}
	}
	gamesPer := len(tasks) / max(len(matchUps), 1)
	for i, task := range tasks {
		t := &tallies[i/gamesPer]
		result := results[i]
		// agent1 plays A unless swapped
		mine := game.PlayerA
		if task.swapped {
			mine = game.PlayerB
		}
		switch {
		case result.Aborted:
			t.Aborted++
		case result.Winner() == game.None:
			t.Ties++
		case result.Winner() == mine:
			t.Wins++
		default:
			t.Losses++
		}
	}
	return tallies
}

func store(name string, configs []metrics.AgentConfig, games []metrics.GameRecord, moves []metrics.MoveRecord, root string) error {
	writer, err := metrics.NewWriter(root, name)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}

	if err := writer.WriteAgentConfigs(configs); err != nil {
		return fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	if err := writer.WriteGameRecords(games); err != nil {
		return fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")

	if err := writer.WriteMoveRecords(moves); err != nil {
		return fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Str("dir", writer.Dir()).Msg("stored move records")
	return nil
}
