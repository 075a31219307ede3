package httpserver

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"storefront/internal/domain"
	usersvc "storefront/internal/service/user"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type errorResponse struct {
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errText overrides the generic 404/403 messages for a route.
type errText struct {
	notFound  string
	forbidden string
}

var fieldNamesOnce sync.Once

// registerFieldNames makes validator report json names instead of Go field names.
func registerFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// badRequest renders a binding failure, listing fields when validation failed.
func badRequest(c *gin.Context, err error) {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body"})
		return
	}
	out := make([]fieldError, 0, len(fields))
	for _, fe := range fields {
		out = append(out, fieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	c.JSON(http.StatusBadRequest, errorResponse{Message: out[0].Message, Errors: out})
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// fail maps service errors to status codes. Unexpected errors are logged and
// rendered without detail.
func (a *api) fail(c *gin.Context, err error, text errText) {
	var (
		invalid     *domain.ValidationError
		unavailable *domain.ProductUnavailableError
		stock       *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, errorResponse{Message: invalid.Message})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusBadRequest, errorResponse{Message: unavailable.Error()})
	case errors.As(err, &stock):
		c.JSON(http.StatusBadRequest, errorResponse{Message: stock.Error()})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, errorResponse{Message: "Cart is empty"})
	case errors.Is(err, usersvc.ErrUserExists), errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusBadRequest, errorResponse{Message: "User already exists"})
	case errors.Is(err, usersvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Message: "Invalid email or password"})
	case errors.Is(err, usersvc.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse{Message: "Not authorized, token failed"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse{Message: orDefault(text.forbidden, "Not authorized")})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Message: orDefault(text.notFound, "Not found")})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{Message: "Request is already being processed"})
	default:
		a.logger.Printf("http: %s %s error=%v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Message: "Server error"})
	}
}

// canonicalID parses any uuid form and returns the hyphenated lowercase text.
func canonicalID(raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
