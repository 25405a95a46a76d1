package gamemaster

import (
	"context"
	"sync"
	"testing"
	"time"

	"dotsandboxes/communication"
	"dotsandboxes/experiments/metrics"
	"dotsandboxes/game"
	"dotsandboxes/player"
	"dotsandboxes/searcher/agent"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func h(r, c int) game.Line {
	return game.NewLine(game.Point{Row: r, Col: c}, game.Point{Row: r, Col: c + 1})
}

func v(r, c int) game.Line {
	return game.NewLine(game.Point{Row: r, Col: c}, game.Point{Row: r + 1, Col: c})
}

// scriptedAgent answers each prompt with the first line of its script that
// is still free on the prompt's board, and records the prompts it saw.
type scriptedAgent struct {
	player  game.Player
	link    communication.Link
	script  []game.Line
	mu      sync.Mutex
	prompts []communication.Prompt
}

func (a *scriptedAgent) run(ctx context.Context) {
	for {
		prompt, err := a.link.ReceiveState(ctx, time.Second)
		if err != nil {
			return
		}
		a.mu.Lock()
		a.prompts = append(a.prompts, prompt)
		a.mu.Unlock()

		idx := -1
		for i, line := range a.script {
			if prompt.Board.LineOwner(line) == game.None {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		if err := a.link.SendAction(ctx, communication.Action{Seq: prompt.Seq, Player: a.player, Line: a.script[idx]}); err != nil {
			return
		}
	}
}

// answer waits for a prompt on link and replies to it with line.
func answer(t *testing.T, link communication.Link, player game.Player, line game.Line) communication.Prompt {
	t.Helper()
	prompt, err := link.ReceiveState(context.Background(), time.Second)
	require.NoError(t, err)
	require.NoError(t, link.SendAction(context.Background(), communication.Action{Seq: prompt.Seq, Player: player, Line: line}))
	return prompt
}

func (a *scriptedAgent) seen() []communication.Prompt {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]communication.Prompt(nil), a.prompts...)
}

func drain(f *communication.Fabric) []communication.RenderEvent {
	f.CloseRender()
	var events []communication.RenderEvent
	for ev := range f.RenderStream() {
		events = append(events, ev)
	}
	return events
}

func startAgents(ctx context.Context, agents ...*scriptedAgent) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, a := range agents {
		wg.Add(1)
		go func(a *scriptedAgent) {
			defer wg.Done()
			a.run(ctx)
		}(a)
	}
	return &wg
}

func TestRunGameScriptedChain(t *testing.T) {
	// Border lines alternate without completing anything, then B opens the
	// chain and A takes all four boxes with two extra turns.
	grid := game.NewGrid(2, 2)
	f := communication.NewFabric(grid.NumLines() + 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agentA := &scriptedAgent{player: game.PlayerA, link: f.Link(game.PlayerA),
		script: []game.Line{h(0, 0), h(2, 0), v(0, 0), v(0, 2), h(1, 0), v(0, 1), v(1, 1)}}
	agentB := &scriptedAgent{player: game.PlayerB, link: f.Link(game.PlayerB),
		script: []game.Line{h(0, 1), h(2, 1), v(1, 0), v(1, 2), h(1, 1)}}
	wg := startAgents(ctx, agentA, agentB)

	gm := NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(time.Second), WithMatchID("chain"))
	outcome, err := gm.RunGame(ctx)
	cancel()
	wg.Wait()

	require.NoError(t, err)
	require.False(t, outcome.Aborted)
	require.Equal(t, game.ScoreBoard{A: 4, B: 0}, outcome.Scores)
	require.Equal(t, 12, outcome.Steps)
	require.Len(t, outcome.Moves, 12)
	require.Equal(t, 2, outcome.Moves[10].Completed)
	require.Equal(t, 2, outcome.Moves[11].Completed)

	events := drain(f)
	require.Len(t, events, 13, "One update per move and a single game over")
	for i, ev := range events[:12] {
		require.Equal(t, communication.UpdateEvent, ev.Kind)
		require.Equal(t, i+1, ev.Step)
		require.Equal(t, "chain", ev.MatchID)
	}
	last := events[12]
	require.Equal(t, communication.GameOverEvent, last.Kind)
	require.Equal(t, game.ScoreBoard{A: 4, B: 0}, last.Scores)
	require.Equal(t, game.PlayerA, last.Scores.Winner())

	// Extra-turn law: A was prompted again right after each completion
	require.Len(t, agentA.seen(), 7)
	require.Len(t, agentB.seen(), 5)
	for _, p := range agentA.seen() {
		require.Equal(t, game.PlayerA, p.Turn)
	}
}

func TestRunGameTimeout(t *testing.T) {
	grid := game.NewGrid(2, 2)
	f := communication.NewFabric(grid.NumLines() + 1)

	gm := NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(30*time.Millisecond))
	start := time.Now()
	outcome, err := gm.RunGame(context.Background())

	require.ErrorIs(t, err, communication.ErrProtocolTimeout)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	require.True(t, outcome.Aborted)
	require.Equal(t, game.ScoreBoard{}, outcome.Scores, "No score should be finalized")

	events := drain(f)
	require.Len(t, events, 1)
	require.Equal(t, communication.AbortedEvent, events[0].Kind)
	require.Contains(t, events[0].Reason, "agent A")
	for _, ev := range events {
		require.NotEqual(t, communication.GameOverEvent, ev.Kind)
	}
}

func TestRunGameInvalidActions(t *testing.T) {
	type result struct {
		outcome Outcome
		err     error
	}
	run := func(gm *GameMaster) <-chan result {
		done := make(chan result, 1)
		go func() {
			outcome, err := gm.RunGame(context.Background())
			done <- result{outcome, err}
		}()
		return done
	}

	t.Run("action from the wrong player is discarded and the mover is prompted again", func(t *testing.T) {
		grid := game.NewGrid(1, 1)
		lines := grid.Lines()
		f := communication.NewFabric(grid.NumLines() + 1)
		linkA, linkB := f.Link(game.PlayerA), f.Link(game.PlayerB)
		done := run(NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(time.Second)))

		// B answers A's prompt out of turn
		first, err := linkA.ReceiveState(context.Background(), time.Second)
		require.NoError(t, err)
		require.NoError(t, linkB.SendAction(context.Background(), communication.Action{Seq: first.Seq, Player: game.PlayerB, Line: lines[0]}))

		again := answer(t, linkA, game.PlayerA, lines[1])
		answer(t, linkB, game.PlayerB, lines[0])
		answer(t, linkA, game.PlayerA, lines[2])
		answer(t, linkB, game.PlayerB, lines[3])
		res := <-done

		require.NoError(t, res.err)
		require.Greater(t, again.Seq, first.Seq)
		require.Equal(t, game.PlayerA, again.Turn)
		require.Equal(t, 4, res.outcome.Steps)
		require.Equal(t, game.PlayerA, res.outcome.Moves[0].Player, "Out-of-turn action should not be applied")
		require.Equal(t, lines[1], res.outcome.Moves[0].Line)
		require.Equal(t, game.ScoreBoard{A: 0, B: 1}, res.outcome.Scores)

		events := drain(f)
		require.Equal(t, game.None, events[0].Lines[lines[0]])
		require.Equal(t, game.PlayerA, events[0].Lines[lines[1]])
	})

	t.Run("answer to an earlier prompt is dropped without a new prompt", func(t *testing.T) {
		grid := game.NewGrid(1, 1)
		lines := grid.Lines()
		f := communication.NewFabric(grid.NumLines() + 1)
		linkA, linkB := f.Link(game.PlayerA), f.Link(game.PlayerB)
		done := run(NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(time.Second)))

		prompt, err := linkA.ReceiveState(context.Background(), time.Second)
		require.NoError(t, err)
		require.NoError(t, linkA.SendAction(context.Background(), communication.Action{Seq: prompt.Seq - 1, Player: game.PlayerA, Line: lines[0]}))
		require.NoError(t, linkA.SendAction(context.Background(), communication.Action{Seq: prompt.Seq, Player: game.PlayerA, Line: lines[1]}))

		next := answer(t, linkB, game.PlayerB, lines[0])
		answer(t, linkA, game.PlayerA, lines[2])
		answer(t, linkB, game.PlayerB, lines[3])
		res := <-done

		require.NoError(t, res.err)
		require.Equal(t, prompt.Seq+1, next.Seq, "Dropping a stale answer should not prompt anyone")
		require.Equal(t, lines[1], res.outcome.Moves[0].Line, "Stale answer should not be applied")
		require.Equal(t, 4, res.outcome.Steps)
	})

	t.Run("owned line is discarded and the same mover is prompted again", func(t *testing.T) {
		grid := game.NewGrid(1, 1)
		lines := grid.Lines()
		f := communication.NewFabric(grid.NumLines() + 1)
		linkA, linkB := f.Link(game.PlayerA), f.Link(game.PlayerB)
		done := run(NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(time.Second)))

		answer(t, linkA, game.PlayerA, lines[0])
		answer(t, linkB, game.PlayerB, lines[0])
		again := answer(t, linkB, game.PlayerB, lines[1])
		answer(t, linkA, game.PlayerA, lines[2])
		answer(t, linkB, game.PlayerB, lines[3])
		res := <-done

		require.NoError(t, res.err)
		require.Equal(t, game.PlayerB, again.Turn, "B should be prompted again after drawing an owned line")
		require.Equal(t, game.PlayerA, again.Board.LineOwner(lines[0]))
		require.Equal(t, game.ScoreBoard{A: 0, B: 1}, res.outcome.Scores)
		require.Equal(t, 4, res.outcome.Steps)
	})
}

// thinkingAgent takes a while over each move, so other messages can arrive
// while it decides.
type thinkingAgent struct {
	delay time.Duration
	inner agent.Agent
}

func (a thinkingAgent) FindMove(b *game.Board, p game.Player) (game.Line, metrics.SearchMetric, bool) {
	time.Sleep(a.delay)
	return a.inner.FindMove(b, p)
}

func TestRunGameWithPlayerLoops(t *testing.T) {
	grid := game.NewGrid(2, 2)
	f := communication.NewFabric(grid.NumLines() + 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i, id := range game.Players {
		a := thinkingAgent{delay: 20 * time.Millisecond, inner: agent.NewRandomAgent(rand.New(rand.NewSource(uint64(i + 1))))}
		p := player.NewPlayer(id, f.Link(id), a)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Play(ctx)
		}()
	}

	gm := NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(time.Second))
	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := gm.RunGame(ctx)
		done <- result{outcome, err}
	}()

	// B speaks out of turn while A is still deciding on the first prompt
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.Link(game.PlayerB).SendAction(ctx, communication.Action{Seq: 1, Player: game.PlayerB, Line: grid.Lines()[0]}))

	res := <-done
	cancel()
	wg.Wait()

	require.NoError(t, res.err)
	require.Equal(t, 12, res.outcome.Steps)
	for _, m := range res.outcome.Moves {
		// The random agent reports how many free lines it saw
		require.Equal(t, grid.NumLines()-(m.Step-1), m.Candidates, "Move %d should be decided on the board it was applied to", m.Step)
	}
}

func TestRunGameTurnDeadline(t *testing.T) {
	grid := game.NewGrid(1, 1)
	f := communication.NewFabric(grid.NumLines() + 1)
	link := f.Link(game.PlayerA)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A answers every prompt with a line off the grid
	offGrid := game.NewLine(game.Point{Row: 0, Col: 0}, game.Point{Row: 1, Col: 1})
	go func() {
		for {
			prompt, err := link.ReceiveState(ctx, time.Second)
			if err != nil {
				return
			}
			time.Sleep(5 * time.Millisecond)
			if err := link.SendAction(ctx, communication.Action{Seq: prompt.Seq, Player: game.PlayerA, Line: offGrid}); err != nil {
				return
			}
		}
	}()

	gm := NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(50*time.Millisecond))
	start := time.Now()
	outcome, err := gm.RunGame(ctx)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, communication.ErrProtocolTimeout)
	require.True(t, outcome.Aborted)
	require.Zero(t, outcome.Steps)
	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	require.Less(t, elapsed, time.Second, "Invalid answers should not extend the turn's deadline")
}

func TestSnapshotsAreIndependent(t *testing.T) {
	grid := game.NewGrid(1, 1)
	f := communication.NewFabric(grid.NumLines() + 1)
	gm := NewGameMaster(f, grid, game.PlayerA, WithPacing(0), WithDeadline(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		gm.RunGame(ctx)
	}()

	prompt, err := f.Link(game.PlayerA).ReceiveState(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, prompt.Board.Apply(game.PlayerA, grid.Lines()[0]))

	require.Equal(t, game.None, gm.Snapshot().LineOwner(grid.Lines()[0]), "Agent edits should not reach the canonical board")
	cancel()
	<-done
}

func TestNewGameMasterStartingPlayer(t *testing.T) {
	grid := game.NewGrid(1, 1)

	t.Run("given starting player is kept", func(t *testing.T) {
		gm := NewGameMaster(communication.NewFabric(1), grid, game.PlayerB)

		require.Equal(t, game.PlayerB, gm.Starting())
		require.Equal(t, game.PlayerB, gm.Turn())
	})

	t.Run("missing starting player is drawn from the injected source", func(t *testing.T) {
		seen := map[game.Player]bool{}
		for seed := uint64(0); seed < 20; seed++ {
			first := NewGameMaster(communication.NewFabric(1), grid, game.None, WithRand(rand.New(rand.NewSource(seed))))
			again := NewGameMaster(communication.NewFabric(1), grid, game.None, WithRand(rand.New(rand.NewSource(seed))))
			require.Equal(t, first.Starting(), again.Starting())
			require.True(t, first.Starting().Valid())
			seen[first.Starting()] = true
		}
		require.Len(t, seen, 2)
	})
}
