package roster

import "time"

// Op names the directory operation a failure came from.
type Op int

const (
	OpQuery Op = iota
	OpDelete
	OpEdit
	OpSummary
)

// String returns the operation name used in log events.
func (o Op) String() string {
	switch o {
	case OpDelete:
		return "delete"
	case OpEdit:
		return "edit"
	case OpSummary:
		return "summary"
	}
	return "query"
}

// Mutation identifies a one-shot delete or edit that the host has sent to the directory.
type Mutation struct {
	Op   Op
	ID   string
	Edit MemberEdit
}

// Snapshot is everything the renderer needs. It is a copy; mutating it has no effect on the engine.
type Snapshot struct {
	Criteria        Criteria
	Page            ResultPage
	HasPage         bool
	Loading         bool
	Error           string
	TotalPages      int
	DebouncePending bool
}

// Engine reconciles search text, status filter, and page cursor into directory queries.
// Every method is synchronous and returns what the host must do next: arm a timer (Ticket) or
// run a query (Request). The host reports completions back through DebounceExpired and Resolve.
//
// INVARIANT: the displayed page only ever comes from the latest issued request
// INVARIANT: nothing is dispatched after Close
type Engine struct {
	state    *QueryState
	debounce *Debouncer
	tracker  *QueryTracker
	errMsg   string
	closed   bool
}

// NewEngine creates an engine whose text edits wait delay before querying.
func NewEngine(delay time.Duration) *Engine {
	return &Engine{
		state:    NewQueryState(),
		debounce: NewDebouncer(delay),
		tracker:  &QueryTracker{},
	}
}

// Start issues the initial load with the default criteria.
func (e *Engine) Start() (Request, bool) {
	return e.dispatch()
}

// SetText records new search text and arms the debounce timer.
// POST: page == 1; no request is issued until the returned ticket expires
func (e *Engine) SetText(t string) (Ticket, bool) {
	if e.closed {
		return Ticket{}, false
	}
	c := e.state.SetText(t)
	return e.debounce.Schedule(c)
}

// DebounceExpired turns an expired ticket into a request. Superseded tags are ignored.
func (e *Engine) DebounceExpired(tag uint64) (Request, bool) {
	if e.closed {
		return Request{}, false
	}
	if _, ok := e.debounce.Expire(tag); !ok {
		return Request{}, false
	}
	return e.tracker.Issue(e.state.Criteria()), true
}

// SetStatus switches the status filter and queries immediately from page 1.
func (e *Engine) SetStatus(s Status) (Request, bool) {
	if e.closed {
		return Request{}, false
	}
	if _, ok := e.state.SetStatus(s); !ok {
		return Request{}, false
	}
	return e.dispatch()
}

// GoToPage moves to page p and queries immediately. Out-of-range pages are ignored.
func (e *Engine) GoToPage(p int) (Request, bool) {
	if e.closed {
		return Request{}, false
	}
	if _, ok := e.state.GoToPage(p); !ok {
		return Request{}, false
	}
	return e.dispatch()
}

// NextPage is GoToPage(current+1).
func (e *Engine) NextPage() (Request, bool) {
	return e.GoToPage(e.state.Criteria().Page + 1)
}

// PrevPage is GoToPage(current-1).
func (e *Engine) PrevPage() (Request, bool) {
	return e.GoToPage(e.state.Criteria().Page - 1)
}

// Refresh re-issues the current criteria.
func (e *Engine) Refresh() (Request, bool) {
	return e.dispatch()
}

// Resolve applies a completed query. Stale responses are dropped without touching the display.
func (e *Engine) Resolve(r Response) Outcome {
	if e.closed {
		return StaleDiscarded
	}
	// A text edit still waiting on its timer has already reset the page; keep that reset.
	inSync := e.inSync()
	outcome := e.tracker.Resolve(r)
	switch outcome {
	case Applied:
		e.state.Observe(r.Page, inSync)
		e.errMsg = ""
	case Failed:
		e.errMsg = Message(OpQuery, r.Err)
		if inSync {
			e.rollbackPage()
		}
	}
	return outcome
}

// inSync reports whether the current criteria are exactly what the latest request asked for.
func (e *Engine) inSync() bool {
	return !e.debounce.Pending() && e.tracker.LatestCriteria() == e.state.Criteria()
}

// rollbackPage returns the cursor to the displayed page after a failed page move, so the next
// page action steps from what is on screen.
// INVARIANT: text and status are never rolled back
func (e *Engine) rollbackPage() {
	if !e.tracker.HasPage() {
		return
	}
	shown, cur := e.tracker.ShownCriteria(), e.state.Criteria()
	if shown.Text != cur.Text || shown.Status != cur.Status {
		return
	}
	e.state.restorePage(e.tracker.Page().CurrentPage)
}

// PrepareEdit validates an edit before it is sent. A rejected edit raises the error flag and
// leaves the list alone.
// POST: on success the returned mutation carries the trimmed name and phone
func (e *Engine) PrepareEdit(id string, edit MemberEdit) (Mutation, error) {
	if err := edit.Validate(); err != nil {
		e.errMsg = Message(OpEdit, err)
		return Mutation{}, err
	}
	return Mutation{Op: OpEdit, ID: id, Edit: edit.Normalize()}, nil
}

// PrepareDelete builds the delete mutation for id.
func (e *Engine) PrepareDelete(id string) Mutation {
	return Mutation{Op: OpDelete, ID: id}
}

// MutationSettled records the outcome of a delete or edit. Failures raise the error flag and leave
// the displayed page as it was. Successes re-query the current criteria in place; a delete that
// empties the last page first pulls the cursor back to the new last page.
func (e *Engine) MutationSettled(m Mutation, err error) (Request, bool) {
	if e.closed {
		return Request{}, false
	}
	if err != nil {
		e.errMsg = Message(m.Op, err)
		return Request{}, false
	}
	if m.Op == OpDelete {
		e.state.clampPage(e.lastPageAfterDelete())
	}
	return e.dispatch()
}

// SummaryFailed raises the error flag for a failed dashboard fetch.
func (e *Engine) SummaryFailed(err error) {
	if e.closed || err == nil {
		return
	}
	e.errMsg = Message(OpSummary, err)
}

// Close tears the engine down. Pending timers are cancelled and later events are ignored.
func (e *Engine) Close() {
	e.debounce.Stop()
	e.closed = true
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	return e.closed
}

// Snapshot returns the state the renderer draws from.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Criteria:        e.state.Criteria(),
		Page:            e.tracker.Page(),
		HasPage:         e.tracker.HasPage(),
		Loading:         e.tracker.Phase() == Pending,
		Error:           e.errMsg,
		TotalPages:      e.state.TotalPages(),
		DebouncePending: e.debounce.Pending(),
	}
}

// dispatch issues the current criteria immediately. The request already carries the latest text,
// so a pending debounce is dropped rather than left to fire a duplicate.
func (e *Engine) dispatch() (Request, bool) {
	if e.closed {
		return Request{}, false
	}
	e.debounce.Cancel()
	return e.tracker.Issue(e.state.Criteria()), true
}

// lastPageAfterDelete predicts the page count once the deleted member is gone.
func (e *Engine) lastPageAfterDelete() int {
	page := e.tracker.Page()
	size := e.state.Criteria().PageSize
	if page.TotalMembers > 0 && size > 0 {
		remaining := page.TotalMembers - 1
		if remaining <= 0 {
			return 1
		}
		return (remaining + size - 1) / size
	}
	current := e.state.Criteria().Page
	if len(page.Results) <= 1 && current > 1 {
		return current - 1
	}
	return e.state.TotalPages()
}
