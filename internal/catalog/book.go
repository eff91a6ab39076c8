package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"libraryhub/pkg/database"
	"libraryhub/pkg/models"
)

// BookPatch is both the create body and the partial-update body for a book.
type BookPatch struct {
	Title           models.Optional[string]      `json:"title"`
	Description     models.Optional[string]      `json:"description"`
	ISBN            models.Optional[string]      `json:"isbn"`
	PublicationDate models.Optional[models.Date] `json:"publication_date"`
	Author          models.Optional[int64]       `json:"author"`
	Category        models.Optional[int64]       `json:"category"`
	SubCategory     models.Optional[int64]       `json:"subcategory"`
	TotalCopies     models.Optional[int]         `json:"total_copies"`
	AvailableCopies models.Optional[int]         `json:"available_copies"`
}

func (p BookPatch) ApplyTo(b *models.Book) {
	p.Title.ApplyValue(&b.Title)
	p.Description.ApplyPtr(&b.Description)
	p.ISBN.ApplyValue(&b.ISBN)
	p.PublicationDate.ApplyValue(&b.PublicationDate)
	p.Author.ApplyValue(&b.AuthorID)
	p.Category.ApplyPtr(&b.CategoryID)
	p.SubCategory.ApplyPtr(&b.SubCategoryID)
	p.TotalCopies.ApplyValue(&b.TotalCopies)
	p.AvailableCopies.ApplyValue(&b.AvailableCopies)
}

const msgNotNegative = "Ensure this value is greater than or equal to 0."

// ValidateBook checks the field rules of a book and that every referenced record exists.
func ValidateBook(ctx context.Context, db *sql.DB, b models.Book) (models.FieldErrors, error) {
	errs := models.FieldErrors{}
	if required(errs, "title", b.Title) {
		maxLen(errs, "title", b.Title, 200)
	}
	if required(errs, "isbn", b.ISBN) {
		maxLen(errs, "isbn", b.ISBN, 13)
	}
	if b.PublicationDate.IsZero() {
		errs.Add("publication_date", models.MsgRequired)
	}
	if b.TotalCopies < 0 {
		errs.Add("total_copies", msgNotNegative)
	}
	if b.AvailableCopies < 0 {
		errs.Add("available_copies", msgNotNegative)
	} else if b.AvailableCopies > b.TotalCopies {
		errs.Add("available_copies", "Available copies cannot exceed total copies.")
	}

	refs := []struct {
		field, table string
		id           *int64
	}{
		{"author", "authors", &b.AuthorID},
		{"category", "categories", b.CategoryID},
		{"subcategory", "subcategories", b.SubCategoryID},
	}
	if b.AuthorID == 0 {
		errs.Add("author", models.MsgRequired)
		refs = refs[1:]
	}
	for _, r := range refs {
		if r.id == nil {
			continue
		}
		ok, err := exists(ctx, db, r.table, *r.id)
		if err != nil {
			return nil, err
		}
		if !ok {
			invalidPK(errs, r.field, *r.id)
		}
	}
	return errs, nil
}

const bookColumns = `id, title, description, isbn, publication_date, author_id, category_id, subcategory_id, total_copies, available_copies`

func scanBook(row interface{ Scan(...any) error }) (models.Book, error) {
	var b models.Book
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.ISBN, &b.PublicationDate,
		&b.AuthorID, &b.CategoryID, &b.SubCategoryID, &b.TotalCopies, &b.AvailableCopies)
	return b, err
}

// bookWriteErr turns constraint failures into the errors a client can act on.
func bookWriteErr(err error, op string) error {
	switch {
	case database.IsUniqueViolation(err):
		return models.FieldErrors{"isbn": {"book with this isbn already exists."}}
	case database.IsForeignKeyViolation(err):
		return models.ErrInvalidReference
	}
	return fmt.Errorf("%s book: %w", op, err)
}

func CreateBook(ctx context.Context, db *sql.DB, p BookPatch) (models.Book, error) {
	b := models.Book{TotalCopies: 1, AvailableCopies: 1}
	p.ApplyTo(&b)
	errs, err := ValidateBook(ctx, db, b)
	if err != nil {
		return models.Book{}, err
	}
	if err := errs.Err(); err != nil {
		return models.Book{}, err
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO books(title, description, isbn, publication_date, author_id, category_id, subcategory_id, total_copies, available_copies)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		b.Title, b.Description, b.ISBN, b.PublicationDate, b.AuthorID, b.CategoryID, b.SubCategoryID,
		b.TotalCopies, b.AvailableCopies)
	if err != nil {
		return models.Book{}, bookWriteErr(err, "insert")
	}
	b.ID, err = res.LastInsertId()
	return b, err
}

func GetBook(ctx context.Context, db *sql.DB, id int64) (models.Book, error) {
	b, err := scanBook(db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	return b, notFound(err)
}

func UpdateBook(ctx context.Context, db *sql.DB, id int64, p BookPatch) (models.Book, error) {
	b, err := GetBook(ctx, db, id)
	if err != nil {
		return models.Book{}, err
	}
	p.ApplyTo(&b)
	errs, err := ValidateBook(ctx, db, b)
	if err != nil {
		return models.Book{}, err
	}
	if err := errs.Err(); err != nil {
		return models.Book{}, err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE books SET title=?, description=?, isbn=?, publication_date=?, author_id=?, category_id=?,
		 subcategory_id=?, total_copies=?, available_copies=? WHERE id=?`,
		b.Title, b.Description, b.ISBN, b.PublicationDate, b.AuthorID, b.CategoryID, b.SubCategoryID,
		b.TotalCopies, b.AvailableCopies, id)
	if err != nil {
		return models.Book{}, bookWriteErr(err, "update")
	}
	return b, nil
}

// DeleteBook also removes the book's borrow records.
func DeleteBook(ctx context.Context, db *sql.DB, id int64) error {
	return deleteByID(ctx, db, "books", id)
}

// BookFilter narrows ListBooks. Empty strings and false mean no restriction.
type BookFilter struct {
	Category  string // substring of the category name, any case
	Author    string // substring of the author's last name, any case
	Available bool
}

func listingQuery() *goqu.SelectDataset {
	return dialect.From(goqu.T("books").As("b")).
		Select(
			goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.description"), goqu.I("b.isbn"),
			goqu.I("b.publication_date"),
			goqu.L("a.first_name || ' ' || a.last_name").As("author"),
			goqu.I("c.name").As("category"),
			goqu.L("CASE WHEN s.id IS NULL THEN NULL ELSE s.name || ' (' || sc.name || ')' END").As("subcategory"),
			goqu.I("b.total_copies"), goqu.I("b.available_copies"),
		).
		InnerJoin(goqu.T("authors").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id")))).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("b.category_id")))).
		LeftJoin(goqu.T("subcategories").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("b.subcategory_id")))).
		LeftJoin(goqu.T("categories").As("sc"), goqu.On(goqu.I("sc.id").Eq(goqu.I("s.category_id")))).
		Prepared(true)
}

// containsFold matches q anywhere in col ignoring case. SQLite's lower() folds
// ASCII only, so non-ASCII letters still compare case-sensitively.
func containsFold(col, q string) exp.BooleanExpression {
	return goqu.L("instr(lower(?), ?)", goqu.I(col), strings.ToLower(q)).Gt(0)
}

func scanListing(row interface{ Scan(...any) error }) (models.BookListing, error) {
	var l models.BookListing
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.ISBN, &l.PublicationDate,
		&l.Author, &l.Category, &l.SubCategory, &l.TotalCopies, &l.AvailableCopies)
	return l, err
}

func ListBooks(ctx context.Context, db *sql.DB, f BookFilter) ([]models.BookListing, error) {
	q := listingQuery()
	if f.Category != "" {
		q = q.Where(containsFold("c.name", f.Category))
	}
	if f.Author != "" {
		q = q.Where(containsFold("a.last_name", f.Author))
	}
	if f.Available {
		q = q.Where(goqu.I("b.available_copies").Gt(0))
	}
	query, args, err := q.Order(goqu.I("b.id").Asc()).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book list: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.BookListing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func GetBookListing(ctx context.Context, db *sql.DB, id int64) (models.BookListing, error) {
	query, args, err := listingQuery().Where(goqu.I("b.id").Eq(id)).ToSQL()
	if err != nil {
		return models.BookListing{}, fmt.Errorf("build book detail: %w", err)
	}
	l, err := scanListing(db.QueryRowContext(ctx, query, args...))
	return l, notFound(err)
}
