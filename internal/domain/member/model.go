package member

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxPhoneLength = 15
)

// DateLayout is the calendar-date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// Status filter values.
const (
	StatusAll     = "all"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Domain errors
var (
	ErrNotFound     = errors.New("member not found")
	ErrInvalidPlan  = errors.New("plan must be 1, 2, 3 or 6 months")
	ErrEmptyName    = errors.New("member name cannot be empty")
	ErrEmptyPhone   = errors.New("member phone cannot be empty")
	ErrNameTooLong  = fmt.Errorf("member name cannot exceed %d characters", MaxNameLength)
	ErrPhoneTooLong = fmt.Errorf("member phone cannot exceed %d characters", MaxPhoneLength)
)

// Plan is one purchasable membership length.
type Plan struct {
	Months int
	Days   int
	Amount int
}

var plans = map[int]Plan{
	1: {Months: 1, Days: 30, Amount: 1000},
	2: {Months: 2, Days: 60, Amount: 1500},
	3: {Months: 3, Days: 90, Amount: 2500},
	6: {Months: 6, Days: 180, Amount: 4500},
}

// PlanFor looks up the plan for a number of months.
// PRE: none
// POST: Returns ErrInvalidPlan for lengths outside the plan table
func PlanFor(months int) (Plan, error) {
	p, ok := plans[months]
	if !ok {
		return Plan{}, ErrInvalidPlan
	}
	return p, nil
}

// Member holds state for the concept.
type Member struct {
	ID         string
	Name       string
	Phone      string
	JoinDate   time.Time
	PlanMonths int
	Amount     int
	ExpiryDate time.Time
	CreatedAt  time.Time
}

// New builds a member whose amount and expiry follow from the plan.
// PRE: id is non-empty
// POST: ExpiryDate = JoinDate + plan days; Amount = plan price
func New(id, name, phone string, joinDate time.Time, planMonths int, now time.Time) (Member, error) {
	plan, err := PlanFor(planMonths)
	if err != nil {
		return Member{}, err
	}
	join := Day(joinDate)
	m := Member{
		ID:         id,
		Name:       strings.TrimSpace(name),
		Phone:      strings.TrimSpace(phone),
		JoinDate:   join,
		PlanMonths: plan.Months,
		Amount:     plan.Amount,
		ExpiryDate: join.AddDate(0, 0, plan.Days),
		CreatedAt:  now.UTC(),
	}
	if err := m.Validate(); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name and Phone are non-blank and within their length limits
func (m *Member) Validate() error {
	name := strings.TrimSpace(m.Name)
	phone := strings.TrimSpace(m.Phone)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if phone == "" {
		return ErrEmptyPhone
	}
	if utf8.RuneCountInString(phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if _, err := PlanFor(m.PlanMonths); err != nil {
		return err
	}
	return nil
}

// UpdateContact replaces name and phone, leaving the plan untouched.
// PRE: none
// POST: On error the member is unchanged
func (m *Member) UpdateContact(name, phone string) error {
	next := *m
	next.Name = strings.TrimSpace(name)
	next.Phone = strings.TrimSpace(phone)
	if err := next.Validate(); err != nil {
		return err
	}
	*m = next
	return nil
}

// IsActive reports whether the membership covers today.
// INVARIANT: ExpiryDate is not mutated
func (m *Member) IsActive(today time.Time) bool {
	return !m.ExpiryDate.Before(Day(today))
}

// LateDays returns how many days the membership has been expired, 0 while active.
func (m *Member) LateDays(today time.Time) int {
	t := Day(today)
	if !m.ExpiryDate.Before(t) {
		return 0
	}
	return int(t.Sub(m.ExpiryDate).Hours() / 24)
}

// IsValidError reports whether err is a validation failure rather than a storage fault.
func IsValidError(err error) bool {
	return errors.Is(err, ErrEmptyName) || errors.Is(err, ErrEmptyPhone) ||
		errors.Is(err, ErrNameTooLong) || errors.Is(err, ErrPhoneTooLong) ||
		errors.Is(err, ErrInvalidPlan)
}

// ParseStatus maps a raw filter value to a status, treating anything unknown as all.
func ParseStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StatusActive:
		return StatusActive
	case StatusExpired:
		return StatusExpired
	}
	return StatusAll
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
