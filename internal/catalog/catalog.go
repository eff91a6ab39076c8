// Package catalog stores authors, categories, subcategories and books.
// Books own the copy counts that the circulation ledger adjusts.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"libraryhub/pkg/models"
)

var dialect = goqu.Dialect("sqlite3")

func maxLen(errs models.FieldErrors, field, v string, n int) {
	if utf8.RuneCountInString(v) > n {
		errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", n))
	}
}

func required(errs models.FieldErrors, field, v string) bool {
	if v == "" {
		errs.Add(field, models.MsgRequired)
		return false
	}
	return true
}

func invalidPK(errs models.FieldErrors, field string, id int64) {
	errs.Add(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
}

func exists(ctx context.Context, db *sql.DB, table string, id int64) (bool, error) {
	var ok bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`, id).Scan(&ok)
	return ok, err
}

// deleteByID removes one row; a missing row is ErrNotFound.
func deleteByID(ctx context.Context, db *sql.DB, table string, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}
