package roster

import "context"

// Outcome is the terminal state of one query.
type Outcome int

const (
	// Applied means the response replaced the displayed page.
	Applied Outcome = iota + 1
	// StaleDiscarded means a newer query had been issued, so the response was ignored.
	StaleDiscarded
	// Failed means the latest query failed; the previous page stays on screen.
	Failed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case StaleDiscarded:
		return "stale_discarded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Phase is the rest state of the query lifecycle.
type Phase int

const (
	Idle Phase = iota
	Pending
)

// Request is a query tagged with its sequence number.
type Request struct {
	Seq      uint64
	Criteria Criteria
}

// Response is the completion of a Request.
type Response struct {
	Seq  uint64
	Page ResultPage
	Err  error
}

// Execute performs req against dir. It is the only part of the roster that blocks.
func Execute(ctx context.Context, dir Directory, req Request) Response {
	page, err := dir.SearchDirectory(ctx, req.Criteria)
	return Response{Seq: req.Seq, Page: page, Err: err}
}

// QueryTracker hands out sequence numbers and decides which responses may touch the display.
type QueryTracker struct {
	issued  uint64
	latest  Criteria
	shown   Criteria
	page    ResultPage
	hasPage bool
	pending bool
	err     error
}

// Issue tags c with a sequence number greater than any issued before.
// POST: Phase() == Pending
func (q *QueryTracker) Issue(c Criteria) Request {
	q.issued++
	q.latest = c
	q.pending = true
	return Request{Seq: q.issued, Criteria: c}
}

// Latest returns the highest sequence number issued so far.
func (q *QueryTracker) Latest() uint64 {
	return q.issued
}

// Resolve applies r when it answers the latest request.
// INVARIANT: only the response whose Seq equals Latest() changes the page or the error flag
func (q *QueryTracker) Resolve(r Response) Outcome {
	if r.Seq != q.issued {
		return StaleDiscarded
	}
	q.pending = false
	if r.Err != nil {
		q.err = r.Err
		return Failed
	}
	q.page = r.Page
	q.shown = q.latest
	q.hasPage = true
	q.err = nil
	return Applied
}

// LatestCriteria returns the criteria of the latest issued request.
func (q *QueryTracker) LatestCriteria() Criteria {
	return q.latest
}

// ShownCriteria returns the criteria that produced the displayed page.
func (q *QueryTracker) ShownCriteria() Criteria {
	return q.shown
}

// Page returns the displayed result page.
func (q *QueryTracker) Page() ResultPage {
	return q.page
}

// HasPage reports whether any query has been applied yet.
func (q *QueryTracker) HasPage() bool {
	return q.hasPage
}

// Err returns the error of the latest failed query, nil after a success.
func (q *QueryTracker) Err() error {
	return q.err
}

// Phase reports whether the latest request is still in flight.
func (q *QueryTracker) Phase() Phase {
	if q.pending {
		return Pending
	}
	return Idle
}
