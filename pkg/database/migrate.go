package database

import (
	"database/sql"
	"fmt"
)

func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('member', 'worker')),
			profile_picture TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS authors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			biography TEXT,
			date_of_birth TEXT, -- YYYY-MM-DD
			date_of_death TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS subcategories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			isbn TEXT NOT NULL UNIQUE,
			publication_date TEXT NOT NULL,
			author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
			category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			subcategory_id INTEGER REFERENCES subcategories(id) ON DELETE SET NULL,
			total_copies INTEGER NOT NULL DEFAULT 1 CHECK (total_copies >= 0),
			available_copies INTEGER NOT NULL DEFAULT 1 CHECK (available_copies >= 0)
		);`,
		`CREATE TABLE IF NOT EXISTS borrows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			member_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			borrow_date TEXT NOT NULL,
			due_date TEXT NOT NULL,
			return_date TEXT,
			returned BOOLEAN NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_subcategories_category ON subcategories(category_id);`,
		`CREATE INDEX IF NOT EXISTS idx_books_author ON books(author_id);`,
		`CREATE INDEX IF NOT EXISTS idx_borrows_member ON borrows(member_id, returned);`,
		`CREATE INDEX IF NOT EXISTS idx_borrows_book ON borrows(book_id);`,
	}

	for i, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate stmt %d: %w", i, err)
		}
	}
	return nil
}
