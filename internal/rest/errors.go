package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/blogposts/blog/domain"
	"github.com/dfryer1193/blogposts/internal/middleware"
)

var registerOnce sync.Once

// registerValidationTags makes validation errors report JSON field names.
func registerValidationTags() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	default:
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}

	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"message": http.StatusText(status)})
}

// bindJSON binds the request body into obj and answers 400 or 422 when it cannot.
// An empty body is validated as an empty object.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return true
	}

	var validationErrs validator.ValidationErrors
	var parseErr *time.ParseError
	switch {
	case errors.As(err, &validationErrs):
		fields := make(map[string][]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
		}
		respondInvalid(c, fields)
	case errors.As(err, &parseErr):
		respondInvalid(c, map[string][]string{
			"published_at": {"The published at field must be a valid RFC 3339 date."},
		})
	default:
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Malformed JSON body."})
	}
	return false
}

func respondInvalid(c *gin.Context, fields map[string][]string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  fields,
	})
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
