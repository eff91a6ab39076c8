package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"libraryhub/internal/auth"
	"libraryhub/internal/user"
	"libraryhub/pkg/models"
)

const profilePictureDir = "profile_pictures"

type profileForm struct {
	FirstName *string `json:"first_name" form:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" form:"last_name" binding:"omitempty,max=150"`
	Email     *string `json:"email" form:"email" binding:"omitempty,email,max=254"`
	Password  *string `json:"password" form:"password"`
}

func (s *Server) getProfile(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	u, err := user.GetByID(c.Request.Context(), s.db, p.UserID)
	if err != nil {
		s.fail(c, err, "User not found.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":        u.Username,
		"email":           u.Email,
		"first_name":      u.FirstName,
		"last_name":       u.LastName,
		"role":            u.Role,
		"profile_picture": u.ProfilePicture,
	})
}

// updateProfile accepts JSON or a multipart form; only a form can carry a picture.
func (s *Server) updateProfile(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)

	var form profileForm
	var err error
	if c.ContentType() == gin.MIMEJSON {
		err = bindJSON(c, &form)
	} else {
		err = bindForm(c, &form)
	}
	if err != nil {
		s.fail(c, err, "")
		return
	}

	if form.Password != nil && auth.PasswordTooLong(*form.Password) {
		s.fail(c, models.FieldErrors{"password": {auth.MsgPasswordTooLong}}, "")
		return
	}

	upd := user.ProfileUpdate{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("profile_picture")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			s.fail(c, fmt.Errorf("%w: %v", errBadBody, err), "")
			return
		default:
			ref, err := s.savePicture(c, fh)
			if err != nil {
				s.fail(c, err, "")
				return
			}
			upd.ProfilePicture = &ref
		}
	}

	if _, err := user.UpdateProfile(c.Request.Context(), s.db, p.UserID, upd); err != nil {
		s.fail(c, err, "User not found.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully."})
}

// savePicture stores an uploaded image under the media dir and returns its
// path relative to that dir.
func (s *Server) savePicture(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if !isImage(fh) {
		return "", models.FieldErrors{"profile_picture": {
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		}}
	}
	ref := filepath.ToSlash(filepath.Join(profilePictureDir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename))))
	dst := filepath.Join(s.mediaDir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", fmt.Errorf("save profile picture: %w", err)
	}
	return ref, nil
}

func isImage(fh *multipart.FileHeader) bool {
	f, err := fh.Open()
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(head[:n]), "image/")
}
