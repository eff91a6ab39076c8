package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"libraryhub/pkg/models"
)

// AuthorPatch is both the create body and the partial-update body for an author.
type AuthorPatch struct {
	FirstName   models.Optional[string]      `json:"first_name"`
	LastName    models.Optional[string]      `json:"last_name"`
	Biography   models.Optional[string]      `json:"biography"`
	DateOfBirth models.Optional[models.Date] `json:"date_of_birth"`
	DateOfDeath models.Optional[models.Date] `json:"date_of_death"`
}

func (p AuthorPatch) ApplyTo(a *models.Author) {
	p.FirstName.ApplyValue(&a.FirstName)
	p.LastName.ApplyValue(&a.LastName)
	p.Biography.ApplyPtr(&a.Biography)
	p.DateOfBirth.ApplyPtr(&a.DateOfBirth)
	p.DateOfDeath.ApplyPtr(&a.DateOfDeath)
}

func ValidateAuthor(a models.Author) models.FieldErrors {
	errs := models.FieldErrors{}
	if required(errs, "first_name", a.FirstName) {
		maxLen(errs, "first_name", a.FirstName, 100)
	}
	if required(errs, "last_name", a.LastName) {
		maxLen(errs, "last_name", a.LastName, 100)
	}
	return errs
}

const authorColumns = `id, first_name, last_name, biography, date_of_birth, date_of_death`

func scanAuthor(row interface{ Scan(...any) error }) (models.Author, error) {
	var a models.Author
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Biography, &a.DateOfBirth, &a.DateOfDeath)
	return a, err
}

func CreateAuthor(ctx context.Context, db *sql.DB, p AuthorPatch) (models.Author, error) {
	var a models.Author
	p.ApplyTo(&a)
	if err := ValidateAuthor(a).Err(); err != nil {
		return models.Author{}, err
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO authors(first_name, last_name, biography, date_of_birth, date_of_death) VALUES(?,?,?,?,?)`,
		a.FirstName, a.LastName, a.Biography, a.DateOfBirth, a.DateOfDeath)
	if err != nil {
		return models.Author{}, fmt.Errorf("insert author: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return a, err
}

func GetAuthor(ctx context.Context, db *sql.DB, id int64) (models.Author, error) {
	a, err := scanAuthor(db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = ?`, id))
	return a, notFound(err)
}

func ListAuthors(ctx context.Context, db *sql.DB) ([]models.Author, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func UpdateAuthor(ctx context.Context, db *sql.DB, id int64, p AuthorPatch) (models.Author, error) {
	a, err := GetAuthor(ctx, db, id)
	if err != nil {
		return models.Author{}, err
	}
	p.ApplyTo(&a)
	if err := ValidateAuthor(a).Err(); err != nil {
		return models.Author{}, err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE authors SET first_name=?, last_name=?, biography=?, date_of_birth=?, date_of_death=? WHERE id=?`,
		a.FirstName, a.LastName, a.Biography, a.DateOfBirth, a.DateOfDeath, id)
	if err != nil {
		return models.Author{}, fmt.Errorf("update author %d: %w", id, err)
	}
	return a, nil
}

// DeleteAuthor also removes the author's books (and their borrows) through the schema cascade.
func DeleteAuthor(ctx context.Context, db *sql.DB, id int64) error {
	return deleteByID(ctx, db, "authors", id)
}
