package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/auth"
	"libraryhub/internal/circulation"
	"libraryhub/pkg/models"
)

type borrowRequest struct {
	Book int64 `json:"book"`
}

func (s *Server) borrow(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	var req borrowRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err, "")
		return
	}
	if req.Book <= 0 {
		s.fail(c, models.ErrNotFound, "Book not found.")
		return
	}
	b, err := s.ledger.Borrow(c.Request.Context(), p.UserID, req.Book)
	if err != nil {
		s.fail(c, err, "Book not found.")
		return
	}
	s.log.Info("book borrowed", "borrow_id", b.ID, "book_id", b.BookID, "member", p.Username)
	c.JSON(http.StatusCreated, b)
}

func (s *Server) returnBook(c *gin.Context) {
	const missing = "Borrow record not found or already returned."
	p, _ := auth.PrincipalFrom(c)
	id, ok := s.pathID(c, missing)
	if !ok {
		return
	}
	b, err := s.ledger.Return(c.Request.Context(), p.UserID, id)
	if err != nil {
		s.fail(c, err, missing)
		return
	}
	s.log.Info("book returned", "borrow_id", b.ID, "book_id", b.BookID, "member", p.Username)
	c.JSON(http.StatusOK, gin.H{"message": "Book returned successfully."})
}

// boolQuery reads "true"/"false"; anything else leaves the filter off.
func boolQuery(c *gin.Context, key string) *bool {
	switch c.Query(key) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func (s *Server) myBorrows(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	res, err := s.ledger.ListForMember(c.Request.Context(), p.UserID, circulation.Filter{
		Returned: boolQuery(c, "returned"),
		Overdue:  c.Query("overdue") == "true",
	})
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) allBorrows(c *gin.Context) {
	f := circulation.Filter{
		Returned: boolQuery(c, "returned"),
		Active:   c.Query("active") == "true",
		Member:   c.Query("member"),
		Overdue:  c.Query("overdue") == "true",
	}
	res, err := s.ledger.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, res)
}
