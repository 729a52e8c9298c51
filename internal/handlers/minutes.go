package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-assistant/internal/minutes"
)

// MinutesHandler generates meeting minutes from an edited transcript
type MinutesHandler struct {
	generator *minutes.Generator
	validate  *validator.Validate
}

// NewMinutesHandler creates a new minutes handler
func NewMinutesHandler(generator *minutes.Generator) *MinutesHandler {
	return &MinutesHandler{
		generator: generator,
		validate:  validator.New(),
	}
}

// Generate answers with JSON, or with a Markdown attachment when ?download=1 is set
func (h *MinutesHandler) Generate(c *fiber.Ctx) error {
	if !h.generator.Enabled() {
		return errorJSON(c, fiber.StatusServiceUnavailable,
			"LLM API URL is not configured. Cannot generate minutes.", "ERR_LLM_NOT_CONFIGURED")
	}

	var req minutes.Request
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "ERR_INVALID_BODY")
	}
	req.Transcription = strings.TrimSpace(req.Transcription)
	if err := h.validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, validationMessage(err), "ERR_VALIDATION")
	}

	res, err := h.generator.Generate(c.UserContext(), req)
	if err != nil {
		var httpErr *minutes.HTTPError
		if errors.As(err, &httpErr) || errors.Is(err, minutes.ErrEmptyCompletion) {
			return errorJSON(c, fiber.StatusBadGateway, err.Error(), "ERR_LLM_FAILED")
		}
		return errorJSON(c, fiber.StatusBadGateway,
			fmt.Sprintf("An error occurred while generating minutes: %v", err), "ERR_LLM_FAILED")
	}

	if c.QueryBool("download") {
		c.Attachment(res.Filename)
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		return c.SendString(res.Minutes)
	}
	return c.JSON(res)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(fields, ", ")
}
