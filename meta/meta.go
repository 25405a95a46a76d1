// meta/meta.go
package meta

import "time"

// ROWS and COLS define the reference board: 2x2 boxes on 3x3 dots.
const ROWS = 2
const COLS = 2

// DEPTH defines the number of line placements each agent searches ahead.
const DEPTH = 3

// DEADLINE defines how long a participant may stay silent before the match is aborted.
const DEADLINE = 5 * time.Second

// PACING defines the pause after every applied move, for the renderer.
const PACING = 1 * time.Second

// NUM_GAMES defines the number of games per experiment match up.
const NUM_GAMES = 20
