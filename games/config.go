/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinMarkers = 3
	MaxMarkers = 7
)

var ErrInvalidCount = errors.New("marker count must be a number between 3 and 7")

// SessionConfig holds the parameters of one game. Rounds is the number of
// scatter rounds; zero means one round per marker.
type SessionConfig struct {
	Count  int
	Rounds int
}

func (c SessionConfig) Validate() error {
	if c.Count < MinMarkers || c.Count > MaxMarkers {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, c.Count)
	}

	return nil
}

func (c SessionConfig) scatterRounds() int {
	if c.Rounds > 0 {
		return c.Rounds
	}

	return c.Count
}

// ParseConfig reads a marker count as typed by the player.
func ParseConfig(raw string) (SessionConfig, error) {
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return SessionConfig{}, fmt.Errorf("%w: %q", ErrInvalidCount, raw)
	}

	cfg := SessionConfig{Count: count}
	if err := cfg.Validate(); err != nil {
		return SessionConfig{}, err
	}

	return cfg, nil
}
