package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"libraryhub/pkg/models"
)

// Filter narrows List. Nil or zero fields mean no restriction.
type Filter struct {
	MemberID *int64 // owner scope
	Member   string // exact username
	Returned *bool
	Active   bool // outstanding only, combined with Returned
	Overdue  bool
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func borrowQuery() *goqu.SelectDataset {
	return dialect.From(goqu.T("borrows").As("br")).
		Select(
			goqu.I("br.id"), goqu.I("br.member_id"), goqu.I("u.username"),
			goqu.I("br.book_id"), goqu.I("bk.title"),
			goqu.I("br.borrow_date"), goqu.I("br.due_date"), goqu.I("br.return_date"), goqu.I("br.returned"),
		).
		InnerJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("br.member_id")))).
		InnerJoin(goqu.T("books").As("bk"), goqu.On(goqu.I("bk.id").Eq(goqu.I("br.book_id")))).
		Prepared(true)
}

func scanBorrow(row interface{ Scan(...any) error }) (models.Borrow, error) {
	var b models.Borrow
	err := row.Scan(&b.ID, &b.MemberID, &b.Member, &b.BookID, &b.Book,
		&b.BorrowDate, &b.DueDate, &b.ReturnDate, &b.Returned)
	return b, err
}

func getBorrow(ctx context.Context, q queryer, id int64) (models.Borrow, error) {
	query, args, err := borrowQuery().Where(goqu.I("br.id").Eq(id)).ToSQL()
	if err != nil {
		return models.Borrow{}, fmt.Errorf("build borrow query: %w", err)
	}
	b, err := scanBorrow(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Borrow{}, fmt.Errorf("borrow %d: %w", id, models.ErrNotFound)
	}
	return b, err
}

// List returns borrows matching f in id order, each flagged overdue as of today.
func (l *Ledger) List(ctx context.Context, f Filter) ([]models.Borrow, error) {
	today := l.Today()

	q := borrowQuery()
	if f.MemberID != nil {
		q = q.Where(goqu.I("br.member_id").Eq(*f.MemberID))
	}
	if f.Member != "" {
		q = q.Where(goqu.I("u.username").Eq(f.Member))
	}
	if f.Returned != nil {
		q = q.Where(goqu.I("br.returned").Eq(flag(*f.Returned)))
	}
	if f.Active {
		q = q.Where(goqu.I("br.returned").Eq(0))
	}
	if f.Overdue {
		q = q.Where(
			goqu.I("br.returned").Eq(0),
			goqu.I("br.due_date").Lt(today.String()),
		)
	}
	query, args, err := q.Order(goqu.I("br.id").Asc()).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build borrow list: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Borrow{}
	for rows.Next() {
		b, err := scanBorrow(rows)
		if err != nil {
			return nil, err
		}
		b.IsOverdue = b.OverdueOn(today)
		res = append(res, b)
	}
	return res, rows.Err()
}

// ListForMember is List restricted to one member's own borrows.
func (l *Ledger) ListForMember(ctx context.Context, memberID int64, f Filter) ([]models.Borrow, error) {
	f.MemberID = &memberID
	f.Member = ""
	return l.List(ctx, f)
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
