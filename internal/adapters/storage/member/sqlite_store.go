package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymroster/internal/adapters/storage"
	domain "gymroster/internal/domain/member"
)

const memberColumns = "id, name, phone, join_date, plan_months, amount, expiry_date, created_at"

// createdLayout has a fixed width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (domain.Member, error) {
	var (
		m                         domain.Member
		joinDate, expiry, created string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Phone, &joinDate, &m.PlanMonths, &m.Amount, &expiry, &created); err != nil {
		return domain.Member{}, err
	}
	var err error
	if m.JoinDate, err = domain.ParseDate(joinDate); err != nil {
		return domain.Member{}, err
	}
	if m.ExpiryDate, err = domain.ParseDate(expiry); err != nil {
		return domain.Member{}, err
	}
	if m.CreatedAt, err = time.Parse(createdLayout, created); err != nil {
		return domain.Member{}, fmt.Errorf("invalid created_at %q: %w", created, err)
	}
	return m, nil
}

func scanMembers(rows *sql.Rows) ([]domain.Member, error) {
	defer rows.Close()
	var results []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	return m, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); created_at is never overwritten
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fields := strings.Split(memberColumns, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	var updates []string
	for _, f := range fields {
		if f == "id" || f == "created_at" {
			continue
		}
		updates = append(updates, f+"=excluded."+f)
	}

	query := fmt.Sprintf(
		"INSERT INTO member (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		memberColumns, placeholders, strings.Join(updates, ", "),
	)
	created := entity.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Phone,
		entity.JoinDate.Format(domain.DateLayout),
		entity.PlanMonths,
		entity.Amount,
		entity.ExpiryDate.Format(domain.DateLayout),
		created.UTC().Format(createdLayout),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a Member from the database.
// PRE: id is non-empty
// POST: Returns an error wrapping domain.ErrNotFound when no row was removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// searchWhereClause builds the WHERE clause and args for Search/Count queries.
func searchWhereClause(filter SearchFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	today := domain.Day(filter.Today).Format(domain.DateLayout)
	switch filter.Status {
	case domain.StatusActive:
		where += " AND expiry_date >= ?"
		args = append(args, today)
	case domain.StatusExpired:
		where += " AND expiry_date < ?"
		args = append(args, today)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		where += ` AND (name LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`
		term := "%" + escapeLike(q) + "%"
		args = append(args, term, term)
	}
	return where, args
}

// Count returns the total number of members matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter SearchFilter) (int, error) {
	where, args := searchWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&count)
	return count, err
}

// Search retrieves one page of members matching the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns at most filter.Limit entities (1000 when unset)
func (s *SQLiteStore) Search(ctx context.Context, filter SearchFilter) ([]domain.Member, error) {
	where, args := searchWhereClause(filter)
	query := "SELECT " + memberColumns + " FROM member" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

// Summary counts active and expired members as of today.
// POST: Total == Active + Expired
func (s *SQLiteStore) Summary(ctx context.Context, today time.Time) (Summary, error) {
	day := domain.Day(today).Format(domain.DateLayout)
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(CASE WHEN expiry_date >= ? THEN 1 ELSE 0 END), 0), COALESCE(SUM(CASE WHEN expiry_date < ? THEN 1 ELSE 0 END), 0) FROM member",
		day, day,
	).Scan(&sum.Active, &sum.Expired)
	if err != nil {
		return Summary{}, err
	}
	sum.Total = sum.Active + sum.Expired
	return sum, nil
}

// ListExpired returns members whose plan ended before today, most overdue first.
// PRE: limit > 0
func (s *SQLiteStore) ListExpired(ctx context.Context, today time.Time, limit int) ([]domain.Member, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM member WHERE expiry_date < ? ORDER BY expiry_date ASC, name ASC LIMIT ?",
		domain.Day(today).Format(domain.DateLayout), limit,
	)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}
