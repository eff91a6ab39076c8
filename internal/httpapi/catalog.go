package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/catalog"
)

// pathID parses the :id segment. A malformed id cannot name a record, so it is a 404.
func (s *Server) pathID(c *gin.Context, notFoundMsg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
		return 0, false
	}
	return id, true
}

// AUTHORS

func (s *Server) listAuthors(c *gin.Context) {
	res, err := catalog.ListAuthors(c.Request.Context(), s.db)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) createAuthor(c *gin.Context) {
	var p catalog.AuthorPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, "")
		return
	}
	a, err := catalog.CreateAuthor(c.Request.Context(), s.db, p)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) updateAuthor(c *gin.Context) {
	const missing = "Author not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	var p catalog.AuthorPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, missing)
		return
	}
	a, err := catalog.UpdateAuthor(c.Request.Context(), s.db, id, p)
	if err != nil {
		s.fail(c, err, missing)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAuthor(c *gin.Context) {
	const missing = "Author not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	if err := catalog.DeleteAuthor(c.Request.Context(), s.db, id); err != nil {
		s.fail(c, err, missing)
		return
	}
	c.Status(http.StatusNoContent)
}

// CATEGORIES

func (s *Server) listCategories(c *gin.Context) {
	res, err := catalog.ListCategories(c.Request.Context(), s.db)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) createCategory(c *gin.Context) {
	var p catalog.CategoryPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, "")
		return
	}
	cat, err := catalog.CreateCategory(c.Request.Context(), s.db, p)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) updateCategory(c *gin.Context) {
	const missing = "Category not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	var p catalog.CategoryPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, missing)
		return
	}
	cat, err := catalog.UpdateCategory(c.Request.Context(), s.db, id, p)
	if err != nil {
		s.fail(c, err, missing)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategory(c *gin.Context) {
	const missing = "Category not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	if err := catalog.DeleteCategory(c.Request.Context(), s.db, id); err != nil {
		s.fail(c, err, missing)
		return
	}
	c.Status(http.StatusNoContent)
}

// SUBCATEGORIES

func (s *Server) listSubCategories(c *gin.Context) {
	res, err := catalog.ListSubCategories(c.Request.Context(), s.db)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) createSubCategory(c *gin.Context) {
	var p catalog.SubCategoryPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, "")
		return
	}
	sub, err := catalog.CreateSubCategory(c.Request.Context(), s.db, p)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) updateSubCategory(c *gin.Context) {
	const missing = "SubCategory not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	var p catalog.SubCategoryPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, missing)
		return
	}
	sub, err := catalog.UpdateSubCategory(c.Request.Context(), s.db, id, p)
	if err != nil {
		s.fail(c, err, missing)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) deleteSubCategory(c *gin.Context) {
	const missing = "SubCategory not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	if err := catalog.DeleteSubCategory(c.Request.Context(), s.db, id); err != nil {
		s.fail(c, err, missing)
		return
	}
	c.Status(http.StatusNoContent)
}

// BOOKS

func (s *Server) listBooks(c *gin.Context) {
	res, err := catalog.ListBooks(c.Request.Context(), s.db, catalog.BookFilter{
		Category:  c.Query("category"),
		Author:    c.Query("author"),
		Available: c.Query("available") == "true",
	})
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) bookDetail(c *gin.Context) {
	const missing = "Book not found."
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	b, err := catalog.GetBookListing(c.Request.Context(), s.db, id)
	if err != nil {
		s.fail(c, err, missing)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) createBook(c *gin.Context) {
	var p catalog.BookPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, "")
		return
	}
	b, err := catalog.CreateBook(c.Request.Context(), s.db, p)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBook(c *gin.Context) {
	const missing = "Book not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	var p catalog.BookPatch
	if err := bindJSON(c, &p); err != nil {
		s.fail(c, err, missing)
		return
	}
	b, err := catalog.UpdateBook(c.Request.Context(), s.db, id, p)
	if err != nil {
		s.fail(c, err, missing)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBook(c *gin.Context) {
	const missing = "Book not found"
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	if err := catalog.DeleteBook(c.Request.Context(), s.db, id); err != nil {
		s.fail(c, err, missing)
		return
	}
	c.Status(http.StatusNoContent)
}
