package roster

// QueryState is the single source of truth for what the roster is asking the directory for.
// It is not safe for concurrent use; the host event loop serialises every call.
type QueryState struct {
	criteria   Criteria
	totalPages int
}

// NewQueryState returns a holder initialised with DefaultCriteria.
func NewQueryState() *QueryState {
	return &QueryState{
		criteria:   DefaultCriteria(),
		totalPages: 1,
	}
}

// Criteria returns a copy of the current criteria.
func (s *QueryState) Criteria() Criteria {
	return s.criteria
}

// TotalPages returns the page count of the last applied result page, at least 1.
func (s *QueryState) TotalPages() int {
	if s.totalPages < 1 {
		return 1
	}
	return s.totalPages
}

// SetText replaces the search text and rewinds to the first page.
// POST: criteria.Text == t, criteria.Page == 1
func (s *QueryState) SetText(t string) Criteria {
	s.criteria.Text = t
	s.criteria.Page = 1
	return s.criteria
}

// SetStatus replaces the status filter and rewinds to the first page.
// PRE: status is one of Statuses
// POST: criteria.Status == status, criteria.Page == 1
func (s *QueryState) SetStatus(status Status) (Criteria, bool) {
	if _, err := ParseStatus(string(status)); err != nil {
		return s.criteria, false
	}
	s.criteria.Status = status
	s.criteria.Page = 1
	return s.criteria, true
}

// GoToPage moves the cursor to page p.
// PRE: none
// POST: Returns false and leaves the criteria untouched when p < 1 or p > TotalPages()
func (s *QueryState) GoToPage(p int) (Criteria, bool) {
	if p < 1 || p > s.TotalPages() {
		return s.criteria, false
	}
	s.criteria.Page = p
	return s.criteria, true
}

// Observe records the pagination metadata of an applied result page.
// With adoptPage the directory's current page wins over the requested one, since it may have
// clamped it. Callers pass false when the criteria have moved on since the request went out.
func (s *QueryState) Observe(page ResultPage, adoptPage bool) {
	s.totalPages = page.TotalPages
	if adoptPage && page.CurrentPage >= 1 {
		s.criteria.Page = page.CurrentPage
	}
}

// restorePage puts the cursor back on page p after a page move failed.
// Pages beyond the known total are ignored.
func (s *QueryState) restorePage(p int) {
	if p >= 1 && p <= s.TotalPages() {
		s.criteria.Page = p
	}
}

// clampPage pulls the cursor back to maxPage when it lies beyond it.
func (s *QueryState) clampPage(maxPage int) {
	if maxPage < 1 {
		maxPage = 1
	}
	if s.criteria.Page > maxPage {
		s.criteria.Page = maxPage
	}
	if s.totalPages > maxPage {
		s.totalPages = maxPage
	}
}
