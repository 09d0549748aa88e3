/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultTimeUnit = time.Second

type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlacing
	PhaseScattering
	PhaseAwaitingInput
	PhaseWon
	PhaseLost
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlacing:
		return "placing"
	case PhaseScattering:
		return "scattering"
	case PhaseAwaitingInput:
		return "awaiting_input"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeCorrect
	OutcomeWon
	OutcomeLost
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCorrect:
		return "correct"
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Options configures a Machine. Renderer and Notifier are required.
type Options struct {
	Renderer Renderer
	Notifier Notifier
	Clock    Clock
	Rand     *rand.Rand
	Logger   *zerolog.Logger

	// Viewport is used until the first Resize.
	Viewport Viewport

	// TimeUnit paces marker creation and the pause before scattering: each
	// waits Count units.
	TimeUnit time.Duration

	// RoundInterval separates scatter rounds.
	RoundInterval time.Duration

	// Rounds overrides the number of scatter rounds. Zero means one round
	// per marker.
	Rounds int
}

// Session is a copy of the state of the live game.
type Session struct {
	Phase           Phase
	Count           int
	Rounds          int
	RoundsCompleted int
	Expected        int
	Markers         []Marker
}

// Machine runs one game session at a time: placement, scattering, then
// click validation.
type Machine struct {
	mu sync.Mutex

	renderer Renderer
	notifier Notifier
	clock    Clock
	rng      *rand.Rand
	log      zerolog.Logger

	timeUnit time.Duration
	rounds   int
	viewport Viewport

	// epoch identifies the live session. Timer callbacks armed for an
	// older epoch are dropped.
	epoch   uint64
	phase   Phase
	config  SessionConfig
	layout  []Point
	markers []*Marker
	pending Timer
	scatter *Scatter
	judge   *Validator
}

func NewMachine(opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.TimeUnit <= 0 {
		opts.TimeUnit = DefaultTimeUnit
	}
	if opts.RoundInterval <= 0 {
		opts.RoundInterval = DefaultRoundInterval
	}

	m := &Machine{
		renderer: opts.Renderer,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		rng:      opts.Rand,
		log:      *opts.Logger,
		timeUnit: opts.TimeUnit,
		rounds:   max(0, opts.Rounds),
		viewport: opts.Viewport,
	}

	m.scatter = newScatter(m.clock, opts.RoundInterval, m.rng, m.renderer, m.currentViewport, m.guard)

	return m
}

// Start begins a new session from the raw marker count. An invalid count
// notifies the player and leaves any running session untouched.
func (m *Machine) Start(raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := ParseConfig(raw)
	if err != nil {
		m.log.Debug().Str("input", raw).Msg("rejected marker count")
		m.notifier.Notify(MessageInvalidCount)

		return err
	}
	cfg.Rounds = m.rounds

	m.resetLocked()

	m.epoch++
	m.config = cfg
	m.layout = Plan(cfg.Count, m.viewport.Width)
	m.setPhase(PhasePlacing)

	m.log.Info().
		Uint64("session", m.epoch).
		Int("count", cfg.Count).
		Int("rounds", cfg.scatterRounds()).
		Msg("session started")

	m.after(m.delay(), m.placeLocked)

	return nil
}

// Click judges a click on the marker with the given ID.
func (m *Machine) Click(id int) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseAwaitingInput || m.judge == nil {
		return OutcomeIgnored
	}

	if id < 1 || id > len(m.markers) {
		return OutcomeIgnored
	}

	marker := m.markers[id-1]
	if marker.Disabled {
		return OutcomeIgnored
	}

	switch m.judge.Check(marker) {
	case VerdictCorrect:
		m.renderer.SetLabelVisible(marker.ID, true)

		return OutcomeCorrect
	case VerdictComplete:
		m.renderer.SetLabelVisible(marker.ID, true)
		m.setPhase(PhaseWon)
		m.log.Info().Uint64("session", m.epoch).Msg("session won")
		m.notifier.Notify(MessageVictory)

		return OutcomeWon
	case VerdictIncorrect:
		m.loseLocked()

		return OutcomeLost
	default:
		return OutcomeIgnored
	}
}

// Resize records the size of the play area. It applies to layouts and
// scatter rounds computed afterwards.
func (m *Machine) Resize(vp Viewport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viewport = vp
}

// Snapshot returns a copy of the live session.
func (m *Machine) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

// View calls f with a copy of the live session while holding the lock, so no
// render call can interleave between the copy and f. f must not call back
// into the Machine.
func (m *Machine) View(f func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f(m.snapshotLocked())
}

func (m *Machine) snapshotLocked() Session {
	completed, _ := m.scatter.Progress()
	if m.phase == PhasePlacing || m.phase == PhaseIdle {
		completed = 0
	}

	s := Session{
		Phase:           m.phase,
		Count:           m.config.Count,
		Rounds:          m.config.scatterRounds(),
		RoundsCompleted: completed,
		Markers:         make([]Marker, len(m.markers)),
	}
	if m.judge != nil {
		s.Expected = m.judge.Expected()
	}
	for i, mk := range m.markers {
		s.Markers[i] = *mk
	}

	return s
}

// Phase reports the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.phase
}

// Close discards the live session and cancels all pending work.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	m.epoch++
	m.config = SessionConfig{}
	m.setPhase(PhaseIdle)
}

func (m *Machine) setPhase(p Phase) {
	m.phase = p

	if o, ok := m.renderer.(PhaseObserver); ok {
		o.PhaseChanged(m.snapshotLocked())
	}
}

func (m *Machine) delay() time.Duration {
	return time.Duration(m.config.Count) * m.timeUnit
}

func (m *Machine) currentViewport() Viewport {
	return m.viewport
}

// guard binds f to the live session: the returned callback takes the lock
// and does nothing if a newer session has started since.
func (m *Machine) guard(f func()) func() {
	epoch := m.epoch

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.epoch != epoch {
			return
		}

		f()
	}
}

func (m *Machine) after(d time.Duration, f func()) {
	m.pending = m.clock.AfterFunc(d, m.guard(func() {
		m.pending = nil
		f()
	}))
}

func (m *Machine) resetLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.scatter.Cancel()
	m.renderer.Clear()

	m.markers = nil
	m.layout = nil
	m.judge = nil
}

func (m *Machine) placeLocked() {
	m.markers = make([]*Marker, len(m.layout))
	for i, pos := range m.layout {
		m.markers[i] = newMarker(i, pos, m.rng)
		m.renderer.CreateMarker(*m.markers[i])
	}

	m.log.Debug().Uint64("session", m.epoch).Int("markers", len(m.markers)).Msg("markers placed")

	m.after(m.delay(), m.scatterLocked)
}

func (m *Machine) scatterLocked() {
	m.setPhase(PhaseScattering)
	m.scatter.Run(m.markers, m.config.scatterRounds(), m.awaitInputLocked)
}

func (m *Machine) awaitInputLocked() {
	m.judge = NewValidator(m.markers)

	for _, mk := range m.markers {
		mk.Revealed = false
		m.renderer.SetLabelVisible(mk.ID, false)
	}

	m.setPhase(PhaseAwaitingInput)
	m.log.Debug().Uint64("session", m.epoch).Msg("awaiting input")
}

func (m *Machine) loseLocked() {
	for _, mk := range m.markers {
		mk.Revealed = true
		mk.Disabled = true
		m.renderer.SetLabelVisible(mk.ID, true)
		m.renderer.SetDisabled(mk.ID, true)
	}

	m.setPhase(PhaseLost)
	m.log.Info().Uint64("session", m.epoch).Msg("session lost")
	m.notifier.Notify(MessageIncorrectOrder)
}
