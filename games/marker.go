/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math/rand/v2"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// Point is a position in logical pixels, relative to the top-left corner of
// the play area.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Marker is one clickable game piece. ID and Label never change during a
// session; Label is the ground truth for ordering.
type Marker struct {
	ID       int
	Label    string
	Position Point
	Color    colorful.Color
	Revealed bool
	Disabled bool
}

func newMarker(index int, pos Point, rng *rand.Rand) *Marker {
	id := index + 1

	return &Marker{
		ID:       id,
		Label:    strconv.Itoa(id),
		Position: pos,
		Color:    randomColor(rng),
		Revealed: true,
	}
}

// randomColor draws each channel uniformly, clamped to 8 bits so the hex
// form round-trips exactly.
func randomColor(rng *rand.Rand) colorful.Color {
	r, g, b := rng.IntN(256), rng.IntN(256), rng.IntN(256)

	return colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}
}
