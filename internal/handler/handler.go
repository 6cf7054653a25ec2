package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"brimasouk/internal/apperror"
	"brimasouk/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// RequestValidator plugs validator/v10 into echo's c.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Validation("Invalid request")
	}

	appErr := apperror.Validation("Invalid %s", fieldErrs[0].Field())
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return appErr.With("fields", fields)
}

// bind decodes the body into req and runs struct validation.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return apperror.Validation("Invalid request body")
		}
		return err
	}
	return c.Validate(req)
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation("%s must be an integer", name)
	}
	return n, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be true or false", name)
	}
	return &b, nil
}

func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Validation("%s must be a date", name)
}

func pageFrom(c echo.Context) (repository.Page, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return repository.Page{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return repository.Page{}, err
	}
	return repository.Page{Page: page, Limit: limit}, nil
}

// NewHTTPErrorHandler renders errors as {message, ...context}. Internal
// errors are logged and, in production, rendered without their cause.
func NewHTTPErrorHandler(l *log.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorBody(err, production)
		if status >= http.StatusInternalServerError {
			l.WithFields(log.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).WithError(err).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			l.WithError(err).Error("write error response")
		}
	}
}

func errorBody(err error, production bool) (int, map[string]any) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, map[string]any{"message": msg}
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err, "Server error")
	}

	body := make(map[string]any, len(appErr.Context)+1)
	for k, v := range appErr.Context {
		body[k] = v
	}

	body["message"] = appErr.Message
	if appErr.Kind == apperror.KindInternal {
		if production {
			body = map[string]any{"message": "Server error"}
		} else if appErr.Err != nil {
			body["error"] = appErr.Err.Error()
		}
	}

	return appErr.Kind.HTTPStatus(), body
}
