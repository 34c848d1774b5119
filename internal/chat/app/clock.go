package app

import "time"

// Clock supplies the engine's notion of now. The engine never reads
// time.Now directly so tests can drive the one-hour numbering window and
// ghost timeouts deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock wall-clock implementation
func SystemClock() Clock { return systemClock{} }
