package workflow

import (
	"time"

	"github.com/ayusman/gesturebench/internal/gesture"
)

// DefaultCooldown is the minimum interval between two accepted labels.
const DefaultCooldown = 2 * time.Second

// Debouncer limits how often classifier output is considered at all. A label
// passes only when at least the cooldown has elapsed since the previous
// accepted label, and every accepted label restarts the cooldown, Unknown
// included.
type Debouncer struct {
	cooldown time.Duration
	last     time.Time
	primed   bool
}

// NewDebouncer creates a Debouncer. A non-positive cooldown uses DefaultCooldown.
func NewDebouncer(cooldown time.Duration) *Debouncer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Debouncer{cooldown: cooldown}
}

// Accept returns the label and true when it passes the cooldown window, or
// false when the tick falls inside it.
func (d *Debouncer) Accept(label gesture.Label, now time.Time) (gesture.Label, bool) {
	if d.primed && now.Sub(d.last) < d.cooldown {
		return "", false
	}
	d.last = now
	d.primed = true
	return label, true
}

// Cooldown returns the configured window.
func (d *Debouncer) Cooldown() time.Duration {
	return d.cooldown
}

// Reset forgets the last accepted time so the next label passes.
func (d *Debouncer) Reset() {
	d.last = time.Time{}
	d.primed = false
}
