package engine

import (
	"math"
	"time"
)

// recencyFloor keeps old memories from decaying to zero relevance; they
// stay reachable when nothing fresher matches.
const recencyFloor = 0.1

// recencyWeight is the exponential decay factor for a memory of the given
// age: 1.0 at age zero, halving every halfLife.
func recencyWeight(age, halfLife time.Duration) float64 {
	if age <= 0 || halfLife <= 0 {
		return 1.0
	}
	w := math.Pow(0.5, age.Hours()/halfLife.Hours())
	if w < recencyFloor {
		return recencyFloor
	}
	return w
}
