package llm

import "time"

// SetClock replaces the fallback generator's time source.
func SetClock(f *FallbackGenerator, now func() time.Time) {
	f.now = now
}
