package roster

import (
	"fmt"
	"strings"
	"time"
)

// PageSize is the fixed number of members shown per page.
const PageSize = 8

// DefaultDebounce is how long the search text must stay unchanged before a query is issued.
const DefaultDebounce = 400 * time.Millisecond

// Status selects which members a query returns.
type Status string

const (
	StatusAll     Status = "all"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Statuses lists the filter values in display order.
var Statuses = []Status{StatusAll, StatusActive, StatusExpired}

// ParseStatus converts a raw filter value to a Status.
// PRE: none
// POST: Returns an error for anything other than all, active or expired
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusAll:
		return StatusAll, nil
	case StatusActive:
		return StatusActive, nil
	case StatusExpired:
		return StatusExpired, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Criteria is the full description of one directory query.
type Criteria struct {
	Text     string
	Status   Status
	Page     int
	PageSize int
}

// DefaultCriteria returns the criteria used when the roster is first shown.
func DefaultCriteria() Criteria {
	return Criteria{
		Text:     "",
		Status:   StatusAll,
		Page:     1,
		PageSize: PageSize,
	}
}

// Valid reports whether the criteria can be sent to the directory.
// INVARIANT: exactly one status is selected and Page >= 1
func (c Criteria) Valid() bool {
	if c.Page < 1 || c.PageSize < 1 {
		return false
	}
	_, err := ParseStatus(string(c.Status))
	return err == nil
}

// Member is a read-only snapshot of one directory entry.
type Member struct {
	ID         string
	Name       string
	Phone      string
	Plan       string
	ExpiryDate time.Time
	LateDays   int
}

// Overdue reports whether the membership has lapsed.
func (m Member) Overdue() bool {
	return m.LateDays > 0
}

// ResultPage is one page of directory results.
type ResultPage struct {
	Results      []Member
	CurrentPage  int
	TotalPages   int
	TotalMembers int
}

// Empty reports whether the page holds no members.
func (p ResultPage) Empty() bool {
	return len(p.Results) == 0
}

// Summary holds membership counts for the dashboard header.
type Summary struct {
	Total   int
	Active  int
	Expired int
}

// ActivePercent returns the share of active members, 0 when there are none.
func (s Summary) ActivePercent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Active) / float64(s.Total) * 100
}

// MemberEdit carries a name/phone change for one member.
type MemberEdit struct {
	Name  string
	Phone string
}

// Normalize trims surrounding whitespace from both fields.
func (e MemberEdit) Normalize() MemberEdit {
	return MemberEdit{
		Name:  strings.TrimSpace(e.Name),
		Phone: strings.TrimSpace(e.Phone),
	}
}

// Validate rejects edits that would blank the name or phone.
// PRE: none
// POST: Returns an error wrapping ErrValidation when a field is empty
func (e MemberEdit) Validate() error {
	n := e.Normalize()
	if n.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if n.Phone == "" {
		return fmt.Errorf("%w: phone cannot be empty", ErrValidation)
	}
	return nil
}
