package roster

import "time"

// Ticket describes a debounce wait the host must arrange. When Delay has elapsed the host hands
// Tag back to Debouncer.Expire; only the most recently issued tag produces a query.
type Ticket struct {
	Tag      uint64
	Delay    time.Duration
	Criteria Criteria
}

// Debouncer coalesces rapid text edits into one query. Each Schedule bumps a generation counter;
// a timer firing with an older generation is stale and does nothing, which makes superseding a
// timer equivalent to cancelling it.
type Debouncer struct {
	delay      time.Duration
	generation uint64
	pending    bool
	latest     Criteria
	stopped    bool
}

// NewDebouncer creates a debouncer with the given quiet period (DefaultDebounce when <= 0).
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any pending wait with a new one for c.
// POST: only the returned ticket's tag can expire into a query
func (d *Debouncer) Schedule(c Criteria) (Ticket, bool) {
	if d.stopped {
		return Ticket{}, false
	}
	d.generation++
	d.pending = true
	d.latest = c
	return Ticket{Tag: d.generation, Delay: d.delay, Criteria: c}, true
}

// Expire reports the criteria to query when tag is still the latest pending ticket.
func (d *Debouncer) Expire(tag uint64) (Criteria, bool) {
	if d.stopped || !d.pending || tag != d.generation {
		return Criteria{}, false
	}
	d.pending = false
	return d.latest, true
}

// Cancel drops the pending wait, if any. Returns true when something was pending.
func (d *Debouncer) Cancel() bool {
	was := d.pending
	d.generation++
	d.pending = false
	return was
}

// Pending reports whether a scheduled wait has not yet expired.
func (d *Debouncer) Pending() bool {
	return d.pending
}

// Stop cancels any pending wait and refuses further scheduling.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.stopped = true
}
