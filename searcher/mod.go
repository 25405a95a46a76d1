// Package searcher picks Dots-and-Boxes moves by fixed-depth minimax.
//
// A ply is a single line placement. Completing a box keeps the move with the
// same side, so a maximizing node may be followed by another maximizing node.
// Every position is scored from the root player's perspective.
package searcher

import (
	"dotsandboxes/game"
	"dotsandboxes/meta"
)

// DefaultDepth is the search depth when none is configured.
const DefaultDepth = meta.DEPTH

// evaluate scores a leaf as root's boxes minus the opponent's boxes.
func evaluate(b *game.Board, root game.Player) int {
	return b.Advantage(root)
}
