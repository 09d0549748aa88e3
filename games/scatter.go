/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math/rand/v2"
	"time"
)

const (
	// MarkerWidth and MarkerHeight keep scattered markers inside the viewport.
	MarkerWidth  float64 = 100
	MarkerHeight float64 = 50

	DefaultRoundInterval = 2 * time.Second
)

// Viewport is the size of the play area in logical pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scatter repositions a set of markers at random, once per round, for a fixed
// number of rounds.
type Scatter struct {
	clock    Clock
	interval time.Duration
	rng      *rand.Rand
	mover    Mover
	viewport func() Viewport

	// wrap decorates every timer callback before it is armed. The Machine
	// uses it to take its lock and drop callbacks from stale sessions.
	wrap func(func()) func()

	markers []*Marker
	round   int
	total   int
	moved   int
	timer   Timer
	done    func()
	stopped bool
}

func newScatter(clock Clock, interval time.Duration, rng *rand.Rand, mover Mover, viewport func() Viewport, wrap func(func()) func()) *Scatter {
	if wrap == nil {
		wrap = func(f func()) func() { return f }
	}

	return &Scatter{
		clock:    clock,
		interval: interval,
		rng:      rng,
		mover:    mover,
		viewport: viewport,
		wrap:     wrap,
	}
}

// Run starts scattering markers for the given number of rounds and calls done
// once the last round has been applied. With zero rounds done is called
// before Run returns.
func (s *Scatter) Run(markers []*Marker, rounds int, done func()) {
	s.markers = markers
	s.round = 0
	s.total = rounds
	s.done = done
	s.stopped = false

	if rounds <= 0 {
		s.finish()
		return
	}

	s.arm()
}

// Cancel stops any armed round and forgets the progress made. done is never
// called after Cancel.
func (s *Scatter) Cancel() {
	s.stopped = true
	s.round = 0
	s.markers = nil
	s.done = nil

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Progress reports how many rounds have been applied out of how many.
func (s *Scatter) Progress() (completed, total int) {
	return s.round, s.total
}

func (s *Scatter) arm() {
	s.timer = s.clock.AfterFunc(s.interval, s.wrap(s.tick))
}

func (s *Scatter) tick() {
	if s.stopped {
		return
	}

	s.timer = nil

	if !s.applyRound() {
		return
	}

	s.round++
	if s.round >= s.total {
		s.finish()
		return
	}

	s.arm()
}

// applyRound moves every marker once. The round counts as complete only when
// all of them have been moved.
func (s *Scatter) applyRound() bool {
	vp := s.viewport()
	spanX := max(0, vp.Width-MarkerWidth)
	spanY := max(0, vp.Height-MarkerHeight)

	s.moved = 0
	for _, m := range s.markers {
		m.Position = Point{
			X: s.rng.Float64() * spanX,
			Y: s.rng.Float64() * spanY,
		}
		s.mover.MoveMarker(m.ID, m.Position.X, m.Position.Y)
		s.moved++
	}

	return s.moved == len(s.markers)
}

func (s *Scatter) finish() {
	s.stopped = true

	done := s.done
	s.done = nil
	if done != nil {
		done()
	}
}
