package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"libraryhub/pkg/models"
)

// CatalogSeed is the JSON document accepted by `server seed`.
// Books reference authors by key and categories/subcategories by name.
type CatalogSeed struct {
	Authors    []AuthorSeed   `json:"authors"`
	Categories []CategorySeed `json:"categories"`
	Books      []BookSeed     `json:"books"`
}

type AuthorSeed struct {
	Key         string       `json:"key"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Biography   *string      `json:"biography"`
	DateOfBirth *models.Date `json:"date_of_birth"`
	DateOfDeath *models.Date `json:"date_of_death"`
}

type CategorySeed struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"subcategories"`
}

type BookSeed struct {
	Title           string      `json:"title"`
	Description     *string     `json:"description"`
	ISBN            string      `json:"isbn"`
	PublicationDate models.Date `json:"publication_date"`
	Author          string      `json:"author"`
	Category        string      `json:"category"`
	SubCategory     string      `json:"subcategory"`
	TotalCopies     int         `json:"total_copies"`
}

func LoadCatalogFromJSON(jsonPath string) (CatalogSeed, error) {
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return CatalogSeed{}, fmt.Errorf("read catalog json: %w", err)
	}

	var seed CatalogSeed
	if err := json.Unmarshal(b, &seed); err != nil {
		return CatalogSeed{}, fmt.Errorf("unmarshal catalog json: %w", err)
	}
	return seed, nil
}

// SeedCatalog inserts the seed in one transaction and returns the number of new books.
// Authors, categories and subcategories that already exist by name are reused; books are keyed by isbn.
func SeedCatalog(db *sql.DB, seed CatalogSeed) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	authorIDs := make(map[string]int64, len(seed.Authors))
	for _, a := range seed.Authors {
		id, err := upsertAuthor(tx, a)
		if err != nil {
			return 0, fmt.Errorf("seed author %s: %w", a.Key, err)
		}
		authorIDs[a.Key] = id
	}

	categoryIDs := make(map[string]int64, len(seed.Categories))
	subCategoryIDs := make(map[string]int64)
	for _, c := range seed.Categories {
		catID, err := findOrInsert(tx,
			`SELECT id FROM categories WHERE name = ?`, []any{c.Name},
			`INSERT INTO categories(name) VALUES(?)`, []any{c.Name})
		if err != nil {
			return 0, fmt.Errorf("seed category %s: %w", c.Name, err)
		}
		categoryIDs[c.Name] = catID

		for _, sub := range c.SubCategories {
			subID, err := findOrInsert(tx,
				`SELECT id FROM subcategories WHERE name = ? AND category_id = ?`, []any{sub, catID},
				`INSERT INTO subcategories(name, category_id) VALUES(?, ?)`, []any{sub, catID})
			if err != nil {
				return 0, fmt.Errorf("seed subcategory %s: %w", sub, err)
			}
			subCategoryIDs[c.Name+"/"+sub] = subID
		}
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO books (title, description, isbn, publication_date, author_id,
			category_id, subcategory_id, total_copies, available_copies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert book: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range seed.Books {
		authorID, ok := authorIDs[b.Author]
		if !ok {
			return 0, fmt.Errorf("book %s: unknown author key %q", b.ISBN, b.Author)
		}
		var categoryID, subCategoryID *int64
		if b.Category != "" {
			id, ok := categoryIDs[b.Category]
			if !ok {
				return 0, fmt.Errorf("book %s: unknown category %q", b.ISBN, b.Category)
			}
			categoryID = &id
			if b.SubCategory != "" {
				sid, ok := subCategoryIDs[b.Category+"/"+b.SubCategory]
				if !ok {
					return 0, fmt.Errorf("book %s: unknown subcategory %q", b.ISBN, b.SubCategory)
				}
				subCategoryID = &sid
			}
		}
		copies := b.TotalCopies
		if copies <= 0 {
			copies = 1
		}

		res, err := stmt.Exec(b.Title, b.Description, b.ISBN, b.PublicationDate, authorID,
			categoryID, subCategoryID, copies, copies)
		if err != nil {
			return 0, fmt.Errorf("insert book %s: %w", b.ISBN, err)
		}

		aff, _ := res.RowsAffected()
		if aff > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

func upsertAuthor(tx *sql.Tx, a AuthorSeed) (int64, error) {
	return findOrInsert(tx,
		`SELECT id FROM authors WHERE first_name = ? AND last_name = ?`, []any{a.FirstName, a.LastName},
		`INSERT INTO authors(first_name, last_name, biography, date_of_birth, date_of_death) VALUES(?, ?, ?, ?, ?)`,
		[]any{a.FirstName, a.LastName, a.Biography, a.DateOfBirth, a.DateOfDeath})
}

func findOrInsert(tx *sql.Tx, selectQ string, selectArgs []any, insertQ string, insertArgs []any) (int64, error) {
	var id int64
	err := tx.QueryRow(selectQ, selectArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	res, err := tx.Exec(insertQ, insertArgs...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
