/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import "time"

// Timer is a pending callback armed by a Clock.
type Timer interface {
	Stop() bool
}

// Clock arms callbacks after a delay. The callback runs on a goroutine owned
// by the Clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by time.AfterFunc.
func RealClock() Clock {
	return realClock{}
}
