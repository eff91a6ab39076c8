// Package circulation records borrows and returns and keeps the catalog's
// available copy counts in step with them.
package circulation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"libraryhub/pkg/models"
)

const (
	EventBorrowed = "borrowed"
	EventReturned = "returned"

	DefaultLoanDays = 14
)

var dialect = goqu.Dialect("sqlite3")

// Publisher receives an event after each committed borrow or return.
type Publisher interface {
	Publish(models.CirculationEvent)
}

type Ledger struct {
	db                 *sql.DB
	loanDays           int
	singleLoanPerTitle bool
	events             Publisher

	// Now is the ledger's clock; tests replace it.
	Now func() time.Time
}

type Option func(*Ledger)

func WithLoanDays(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.loanDays = n
		}
	}
}

// WithSingleLoanPerTitle rejects a borrow when the member already holds the same book.
func WithSingleLoanPerTitle(on bool) Option {
	return func(l *Ledger) { l.singleLoanPerTitle = on }
}

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.events = p }
}

func NewLedger(db *sql.DB, opts ...Option) *Ledger {
	l := &Ledger{db: db, loanDays: DefaultLoanDays, Now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Today() models.Date {
	return models.DateOf(l.Now())
}

// Borrow takes one copy of bookID for memberID. The copy count is decremented
// only while it is positive, in the same transaction that records the borrow.
func (l *Ledger) Borrow(ctx context.Context, memberID, bookID int64) (models.Borrow, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Borrow{}, fmt.Errorf("begin borrow: %w", err)
	}
	defer tx.Rollback()

	var found bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = ?)`, bookID).Scan(&found); err != nil {
		return models.Borrow{}, err
	}
	if !found {
		return models.Borrow{}, fmt.Errorf("book %d: %w", bookID, models.ErrNotFound)
	}

	if l.singleLoanPerTitle {
		var holding bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM borrows WHERE member_id = ? AND book_id = ? AND returned = 0)`,
			memberID, bookID).Scan(&holding)
		if err != nil {
			return models.Borrow{}, err
		}
		if holding {
			return models.Borrow{}, models.ErrAlreadyBorrowed
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies - 1 WHERE id = ? AND available_copies > 0`, bookID)
	if err != nil {
		return models.Borrow{}, fmt.Errorf("take copy of book %d: %w", bookID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Borrow{}, err
	} else if n == 0 {
		return models.Borrow{}, models.ErrNoCopiesAvailable
	}

	today := l.Today()
	res, err = tx.ExecContext(ctx,
		`INSERT INTO borrows(member_id, book_id, borrow_date, due_date, returned) VALUES(?, ?, ?, ?, 0)`,
		memberID, bookID, today, today.AddDays(l.loanDays))
	if err != nil {
		return models.Borrow{}, fmt.Errorf("insert borrow: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Borrow{}, err
	}

	b, err := getBorrow(ctx, tx, id)
	if err != nil {
		return models.Borrow{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Borrow{}, fmt.Errorf("commit borrow: %w", err)
	}

	b.IsOverdue = b.OverdueOn(today)
	l.publish(EventBorrowed, b)
	return b, nil
}

// Return closes an outstanding borrow owned by memberID and puts the copy back,
// never above the book's total. Closed, foreign or unknown borrows are ErrNotFound.
func (l *Ledger) Return(ctx context.Context, memberID, borrowID int64) (models.Borrow, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Borrow{}, fmt.Errorf("begin return: %w", err)
	}
	defer tx.Rollback()

	today := l.Today()
	res, err := tx.ExecContext(ctx,
		`UPDATE borrows SET returned = 1, return_date = ? WHERE id = ? AND member_id = ? AND returned = 0`,
		today, borrowID, memberID)
	if err != nil {
		return models.Borrow{}, fmt.Errorf("close borrow %d: %w", borrowID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Borrow{}, err
	} else if n == 0 {
		return models.Borrow{}, fmt.Errorf("borrow %d: %w", borrowID, models.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE books SET available_copies = MIN(available_copies + 1, total_copies)
		 WHERE id = (SELECT book_id FROM borrows WHERE id = ?)`, borrowID)
	if err != nil {
		return models.Borrow{}, fmt.Errorf("restore copy for borrow %d: %w", borrowID, err)
	}

	b, err := getBorrow(ctx, tx, borrowID)
	if err != nil {
		return models.Borrow{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Borrow{}, fmt.Errorf("commit return: %w", err)
	}

	l.publish(EventReturned, b)
	return b, nil
}

func (l *Ledger) publish(typ string, b models.Borrow) {
	if l.events == nil {
		return
	}
	l.events.Publish(models.CirculationEvent{
		Type:     typ,
		BorrowID: b.ID,
		BookID:   b.BookID,
		Book:     b.Book,
		Member:   b.Member,
		At:       l.Now().Unix(),
	})
}
