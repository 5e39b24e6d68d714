package home

import (
	"net"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gorilla/schema"

	"github.com/qolzam/telar-turnstile/internal/pkg/log"
	"github.com/qolzam/telar-turnstile/internal/turnstile"
)

const (
	// TurnstileField is the form field the widget writes its token to
	TurnstileField = "cf-turnstile-response"
	// HeaderIdempotencyKey optionally carries the siteverify idempotency key
	HeaderIdempotencyKey = "Idempotency-Key"
)

// SubmitModel is the posted sample form
type SubmitModel struct {
	SampleInput    string `schema:"sampleInput"`
	TurnstileToken string `schema:"cf-turnstile-response"`
}

type Handler struct {
	verifier turnstile.Verifier
	config   *HandlerConfig
	decoder  *schema.Decoder
}

type HandlerConfig struct {
	SiteKey string
	// CSRFContextKey is where the CSRF middleware stores the token, empty when disabled
	CSRFContextKey string
	CSRFField      string
}

func NewHandler(verifier turnstile.Verifier, config *HandlerConfig) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{
		verifier: verifier,
		config:   config,
		decoder:  decoder,
	}
}

// Index renders the empty sample form
func (h *Handler) Index(c *fiber.Ctx) error {
	return h.render(c, fiber.StatusOK, pageData{})
}

// Submit verifies the posted Turnstile token and presents the result
func (h *Handler) Submit(c *fiber.Ctx) error {
	values, err := formValues(c)
	if err != nil {
		return HandleInvalidRequestError(c, "Invalid form body")
	}
	var model SubmitModel
	if err := h.decoder.Decode(&model, values); err != nil {
		return HandleInvalidRequestError(c, "Invalid form fields")
	}

	ctx := c.UserContext()
	// proxies must be configured on the fiber app for c.IP() to be the client address
	userIP := net.ParseIP(c.IP())
	idempotencyKey := utils.CopyString(c.Get(HeaderIdempotencyKey))

	result, err := h.verifier.Verify(ctx, model.TurnstileToken, idempotencyKey, userIP)
	if err != nil {
		log.ErrorWithContext(ctx, "Turnstile verification failed: %v", err)
		status, resp := classifyVerifyError(err)
		if wantsJSON(c) {
			return c.Status(status).JSON(resp)
		}
		return h.render(c, status, pageData{SampleInput: model.SampleInput, Error: &resp})
	}

	log.InfoWithContext(ctx, "Turnstile verification for %s: success=%t error-codes=%v", userIP, result.Success, result.ErrorCodes)
	log.Dump(ctx, "turnstile result", result)

	if wantsJSON(c) {
		return c.JSON(result)
	}
	return h.render(c, fiber.StatusOK, pageData{SampleInput: model.SampleInput, Result: result})
}

// Health reports liveness
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) render(c *fiber.Ctx, status int, data pageData) error {
	data.SiteKey = h.config.SiteKey
	data.CSRFField = h.config.CSRFField
	if h.config.CSRFContextKey != "" {
		if token, ok := c.Locals(h.config.CSRFContextKey).(string); ok {
			data.CSRFToken = token
		}
	}

	html, err := renderIndex(data)
	if err != nil {
		return err
	}
	c.Type("html")
	return c.Status(status).SendString(html)
}

func formValues(c *fiber.Ctx) (map[string][]string, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		return form.Value, nil
	}
	return url.ParseQuery(string(c.Body()))
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
