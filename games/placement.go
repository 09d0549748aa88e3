/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

const (
	// SlotWidth is the horizontal space reserved per marker in the opening row.
	SlotWidth float64 = 160
	// RowY is the vertical position of the opening row.
	RowY float64 = 300
)

// Plan lays out count markers in a single row centered in the viewport. The
// i-th position belongs to the marker labeled i+1.
func Plan(count int, viewportWidth float64) []Point {
	if count <= 0 {
		return nil
	}

	totalWidth := float64(count) * SlotWidth
	startX := max(0, (viewportWidth-totalWidth)/2)

	points := make([]Point, count)
	for i := range points {
		points[i] = Point{
			X: startX + float64(i)*SlotWidth,
			Y: RowY,
		}
	}

	return points
}
