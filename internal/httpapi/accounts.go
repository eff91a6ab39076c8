package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/auth"
	"libraryhub/internal/user"
	"libraryhub/pkg/models"
)

type signupRequest struct {
	Username  string `json:"username" binding:"required,max=150,username"`
	Email     string `json:"email" binding:"omitempty,email,max=254"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

type signinRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// signup creates an account with the given role; a role in the body is ignored.
func (s *Server) signup(role models.Role) gin.HandlerFunc {
	created := "Member created successfully"
	if role == models.RoleWorker {
		created = "Worker created successfully"
	}
	return func(c *gin.Context) {
		var req signupRequest
		if err := bindJSON(c, &req); err != nil {
			s.fail(c, err, "")
			return
		}
		if problems := auth.ValidatePassword(req.Password, auth.PasswordContext{
			Username: req.Username, Email: req.Email, FirstName: req.FirstName, LastName: req.LastName,
		}); len(problems) > 0 {
			c.JSON(http.StatusBadRequest, models.FieldErrors{"password": problems})
			return
		}

		_, err := user.CreateUser(c.Request.Context(), s.db, user.NewUser{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Password:  req.Password,
			Role:      role,
		})
		if errors.Is(err, models.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, models.FieldErrors{"username": {"A user with that username already exists."}})
			return
		}
		if err != nil {
			s.fail(c, err, "")
			return
		}
		s.log.Info("account created", "username", req.Username, "role", role)
		c.JSON(http.StatusCreated, gin.H{"message": created})
	}
}

func (s *Server) signin(role models.Role) gin.HandlerFunc {
	rejected := "Invalid credentials or not a " + string(role)
	return func(c *gin.Context) {
		var req signinRequest
		if err := bindJSON(c, &req); err != nil {
			s.fail(c, err, "")
			return
		}

		u, err := user.VerifyLogin(c.Request.Context(), s.db, req.Username, req.Password)
		if errors.Is(err, user.ErrInvalidCredentials) || (err == nil && u.Role != role) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": rejected})
			return
		}
		if err != nil {
			s.fail(c, err, "")
			return
		}

		pair, err := s.issuer.Pair(auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role})
		if err != nil {
			s.fail(c, err, "")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access":  pair.Access,
			"refresh": pair.Refresh,
			"user": gin.H{
				"username": u.Username,
				"email":    u.Email,
				"role":     u.Role,
			},
		})
	}
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err, "")
		return
	}
	access, err := s.issuer.Refresh(req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}
