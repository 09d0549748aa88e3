package games

import "testing"

func TestPlanRowIsOrderedAndDisjoint(t *testing.T) {
	for _, width := range []float64{0, 400, 1280, 1920} {
		for count := MinMarkers; count <= MaxMarkers; count++ {
			points := Plan(count, width)
			if len(points) != count {
				t.Fatalf("Plan(%d, %.0f): expected %d points, got %d", count, width, count, len(points))
			}

			for i, p := range points {
				if p.Y != RowY {
					t.Fatalf("Plan(%d, %.0f): point %d has y %.1f, expected %.1f", count, width, i, p.Y, RowY)
				}
				if p.X < 0 {
					t.Fatalf("Plan(%d, %.0f): point %d has negative x %.1f", count, width, i, p.X)
				}
				if i > 0 && p.X-points[i-1].X < SlotWidth {
					t.Fatalf("Plan(%d, %.0f): points %d and %d overlap", count, width, i-1, i)
				}
			}
		}
	}
}

func TestPlanCentersRow(t *testing.T) {
	points := Plan(3, 1000)

	// 3*160 = 480 wide, so the row starts at (1000-480)/2.
	if points[0].X != 260 {
		t.Fatalf("expected row to start at 260, got %.1f", points[0].X)
	}
	if points[2].X != 580 {
		t.Fatalf("expected last marker at 580, got %.1f", points[2].X)
	}
}

func TestPlanClampsNarrowViewport(t *testing.T) {
	points := Plan(7, 300)
	if points[0].X != 0 {
		t.Fatalf("expected row to start at 0 in a narrow viewport, got %.1f", points[0].X)
	}
}

func TestPlanEmpty(t *testing.T) {
	if points := Plan(0, 1000); len(points) != 0 {
		t.Fatalf("expected no points, got %d", len(points))
	}
}
