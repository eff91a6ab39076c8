package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"libraryhub/pkg/database"
	"libraryhub/pkg/models"
)

type CategoryPatch struct {
	Name models.Optional[string] `json:"name"`
}

func ValidateCategory(c models.Category) models.FieldErrors {
	errs := models.FieldErrors{}
	if required(errs, "name", c.Name) {
		maxLen(errs, "name", c.Name, 100)
	}
	return errs
}

func CreateCategory(ctx context.Context, db *sql.DB, p CategoryPatch) (models.Category, error) {
	var c models.Category
	p.Name.ApplyValue(&c.Name)
	if err := ValidateCategory(c).Err(); err != nil {
		return models.Category{}, err
	}
	res, err := db.ExecContext(ctx, `INSERT INTO categories(name) VALUES(?)`, c.Name)
	if err != nil {
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return c, err
}

func GetCategory(ctx context.Context, db *sql.DB, id int64) (models.Category, error) {
	var c models.Category
	err := db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	return c, notFound(err)
}

func ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func UpdateCategory(ctx context.Context, db *sql.DB, id int64, p CategoryPatch) (models.Category, error) {
	c, err := GetCategory(ctx, db, id)
	if err != nil {
		return models.Category{}, err
	}
	p.Name.ApplyValue(&c.Name)
	if err := ValidateCategory(c).Err(); err != nil {
		return models.Category{}, err
	}
	if _, err := db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, c.Name, id); err != nil {
		return models.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	return c, nil
}

// DeleteCategory cascades to its subcategories and clears the category of its books.
func DeleteCategory(ctx context.Context, db *sql.DB, id int64) error {
	return deleteByID(ctx, db, "categories", id)
}

type SubCategoryPatch struct {
	Name     models.Optional[string] `json:"name"`
	Category models.Optional[int64]  `json:"category"`
}

func (p SubCategoryPatch) ApplyTo(s *models.SubCategory) {
	p.Name.ApplyValue(&s.Name)
	p.Category.ApplyValue(&s.CategoryID)
}

func validateSubCategory(ctx context.Context, db *sql.DB, s models.SubCategory) (models.FieldErrors, error) {
	errs := models.FieldErrors{}
	if required(errs, "name", s.Name) {
		maxLen(errs, "name", s.Name, 100)
	}
	if s.CategoryID == 0 {
		errs.Add("category", models.MsgRequired)
	} else {
		ok, err := exists(ctx, db, "categories", s.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			invalidPK(errs, "category", s.CategoryID)
		}
	}
	return errs, nil
}

func CreateSubCategory(ctx context.Context, db *sql.DB, p SubCategoryPatch) (models.SubCategory, error) {
	var s models.SubCategory
	p.ApplyTo(&s)
	errs, err := validateSubCategory(ctx, db, s)
	if err != nil {
		return models.SubCategory{}, err
	}
	if err := errs.Err(); err != nil {
		return models.SubCategory{}, err
	}
	res, err := db.ExecContext(ctx, `INSERT INTO subcategories(name, category_id) VALUES(?, ?)`, s.Name, s.CategoryID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return models.SubCategory{}, models.ErrInvalidReference
		}
		return models.SubCategory{}, fmt.Errorf("insert subcategory: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return s, err
}

func GetSubCategory(ctx context.Context, db *sql.DB, id int64) (models.SubCategory, error) {
	var s models.SubCategory
	err := db.QueryRowContext(ctx, `SELECT id, name, category_id FROM subcategories WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.CategoryID)
	return s, notFound(err)
}

func ListSubCategories(ctx context.Context, db *sql.DB) ([]models.SubCategory, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, category_id FROM subcategories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.SubCategory{}
	for rows.Next() {
		var s models.SubCategory
		if err := rows.Scan(&s.ID, &s.Name, &s.CategoryID); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func UpdateSubCategory(ctx context.Context, db *sql.DB, id int64, p SubCategoryPatch) (models.SubCategory, error) {
	s, err := GetSubCategory(ctx, db, id)
	if err != nil {
		return models.SubCategory{}, err
	}
	p.ApplyTo(&s)
	errs, err := validateSubCategory(ctx, db, s)
	if err != nil {
		return models.SubCategory{}, err
	}
	if err := errs.Err(); err != nil {
		return models.SubCategory{}, err
	}
	_, err = db.ExecContext(ctx, `UPDATE subcategories SET name = ?, category_id = ? WHERE id = ?`, s.Name, s.CategoryID, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return models.SubCategory{}, models.ErrInvalidReference
		}
		return models.SubCategory{}, fmt.Errorf("update subcategory %d: %w", id, err)
	}
	return s, nil
}

func DeleteSubCategory(ctx context.Context, db *sql.DB, id int64) error {
	return deleteByID(ctx, db, "subcategories", id)
}
