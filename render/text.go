// Package render draws the render stream as plain text.
package render

import (
	"fmt"
	"io"
	"strings"

	"dotsandboxes/communication"
	"dotsandboxes/game"
)

// Text writes a picture of the board for every update and a closing line
// for game over or abort.
type Text struct {
	w    io.Writer
	grid *game.Grid
}

func NewText(w io.Writer, grid *game.Grid) *Text {
	return &Text{w: w, grid: grid}
}

// Handle matches the engine's observe callback.
func (t *Text) Handle(event communication.RenderEvent) {
	switch event.Kind {
	case communication.UpdateEvent:
		fmt.Fprintf(t.w, "move %d\n%s\n", event.Step, t.Draw(event.Lines, event.Boxes))
	case communication.GameOverEvent:
		fmt.Fprintf(t.w, "Game Over! %s (A %d - B %d)\n", verdict(event.Scores), event.Scores.A, event.Scores.B)
	case communication.AbortedEvent:
		fmt.Fprintf(t.w, "Game aborted after %d moves: %s\n", event.Step, event.Reason)
	}
}

func verdict(scores game.ScoreBoard) string {
	if w := scores.Winner(); w != game.None {
		return fmt.Sprintf("Agent %s wins!", w)
	}
	return "It's a tie!"
}

// Draw renders dots as '+', drawn lines as '---' or '|', and owned boxes by
// their owner's letter.
func (t *Text) Draw(lines map[game.Line]game.Player, boxes map[game.Box]game.Player) string {
	var sb strings.Builder
	for i := 0; i <= t.grid.Rows; i++ {
		sb.WriteString("+")
		for j := 0; j < t.grid.Cols; j++ {
			if lines[game.NewLine(game.Point{Row: i, Col: j}, game.Point{Row: i, Col: j + 1})] != game.None {
				sb.WriteString("---")
			} else {
				sb.WriteString("   ")
			}
			sb.WriteString("+")
		}
		sb.WriteString("\n")
		if i == t.grid.Rows {
			break
		}

		for j := 0; j <= t.grid.Cols; j++ {
			if lines[game.NewLine(game.Point{Row: i, Col: j}, game.Point{Row: i + 1, Col: j})] != game.None {
				sb.WriteString("|")
			} else {
				sb.WriteString(" ")
			}
			if j == t.grid.Cols {
				break
			}
			if owner := boxes[game.Box{Row: i, Col: j}]; owner != game.None {
				fmt.Fprintf(&sb, " %s ", owner)
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
