package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/orchestrator"
	"github.com/ChamsBouzaiene/crunched/internal/slides"
)

// ValidationError reports a malformed request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var (
		fiberErr   *fiber.Error
		validation *ValidationError
		mismatch   *engine.ToolResultMismatchError
		unresolved *engine.UnresolvableReferenceError
		engineErr  *engine.EngineError
	)
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validation),
		errors.Is(err, orchestrator.ErrUnknownExpert),
		errors.Is(err, slides.ErrNoShapes):
		return fiber.StatusBadRequest
	case errors.As(err, &mismatch):
		return fiber.StatusConflict
	case errors.As(err, &unresolved):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &engineErr), engine.IsStructuredOutputError(err):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := statusFor(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
		} else {
			logger.Warn("request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// parseBody decodes a JSON body and checks its validate tags. Both kinds of
// failure are reported as 400.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return invalid("invalid request body: " + err.Error())
	}
	if err := validate.Struct(out); err != nil {
		return invalid(validationMessage(err))
	}
	return nil
}

// validationMessage reports the first failed field by its JSON path, e.g.
// "tool_results[0].tool_use_id is required".
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	fe := fieldErrs[0]

	var path []string
	for i, part := range strings.Split(fe.Namespace(), ".") {
		// skip the request type and embedded struct names
		if i == 0 || (part != "" && part[0] >= 'A' && part[0] <= 'Z') {
			continue
		}
		path = append(path, part)
	}
	field := strings.Join(path, ".")

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
}
