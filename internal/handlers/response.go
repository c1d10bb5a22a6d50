// Package handlers exposes the storefront services over HTTP with fiber.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"reflect"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Guards protect routes: Auth requires a signed-in user, Admin additionally a super admin.
type Guards struct {
	Auth  fiber.Handler
	Admin fiber.Handler
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// bind parses the request body into dst and validates it. On failure the 400
// response has already been written and the returned error must be returned.
func bind(c *fiber.Ctx, v *validator.Validate, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	return validate(c, v, dst)
}

func validate(c *fiber.Ctx, v *validator.Validate, dst any) (bool, error) {
	err := v.Struct(dst)
	if err == nil {
		return true, nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// respondError writes err with the status of its kind. Unexpected failures
// are logged and answered with fallback only.
func respondError(c *fiber.Ctx, log *zap.Logger, err error, fallback string) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		log.Error(fallback,
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("path", c.Path()), zap.Stringer("kind", kind), zap.Error(err))
	}
	return c.Status(kind.Status()).JSON(fiber.Map{
		"success": false,
		"message": apperr.MessageOf(err, fallback),
	})
}

// imageUploads opens the files posted under field. The returned closer must be called.
func imageUploads(c *fiber.Ctx, field string) ([]services.ImageUpload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, apperr.Validation("Invalid multipart form")
	}

	headers := form.File[field]
	uploads := make([]services.ImageUpload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, apperr.Unexpected(err, "failed to read uploaded file")
		}
		files = append(files, f)
		uploads = append(uploads, services.ImageUpload{Filename: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// stringList accepts a JSON array of strings or a single comma separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a string or an array of strings")
	}
	*l = splitList(s)
	return nil
}

// splitList splits a comma separated value and drops empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
