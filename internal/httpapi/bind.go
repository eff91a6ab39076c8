package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"libraryhub/pkg/models"
)

var errBadBody = errors.New("invalid request body")

var usernameRE = regexp.MustCompile(`^[\w.@+-]+$`)

var setupValidator sync.Once

// registerValidation names validation errors after the JSON (or form) key of the
// failing field and adds the library's own tags.
func registerValidation() {
	setupValidator.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRE.MatchString(fl.Field().String())
		})
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return models.MsgRequired
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return "Invalid value."
}

func toFieldErrors(verrs validator.ValidationErrors) models.FieldErrors {
	out := models.FieldErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), validationMessage(fe))
	}
	return out
}

// bindJSON decodes the body into obj and runs its binding tags. An empty body is
// treated as {} so missing fields surface as field errors. The returned error is
// models.FieldErrors or errBadBody.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	return bindErr(err)
}

// bindForm binds a multipart or urlencoded body.
func bindForm(c *gin.Context, obj any) error {
	return bindErr(c.ShouldBind(obj))
}

func bindErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return toFieldErrors(verrs)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return models.FieldErrors{typeErr.Field: {fmt.Sprintf("Incorrect type. Expected %s.", typeErr.Type.Kind())}}
	}
	return fmt.Errorf("%w: %v", errBadBody, err)
}
