// Package server exposes the dialogue agent over HTTP. POST /chat streams
// the reply as plain-text chunks; concatenating the chunks reproduces the
// full reply byte for byte.
package server

import (
	"bufio"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"parley/agent/orchestrator"
)

type Config struct {
	Host            string        `envconfig:"HOST" split_words:"true" default:"0.0.0.0"`
	Port            string        `envconfig:"PORT" split_words:"true" default:"8000"`
	BodyLimit       int           `envconfig:"BODY_LIMIT" split_words:"true" default:"65536"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"5s"`
}

// Dialogue is the one capability the transport needs from the agent.
type Dialogue interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (<-chan string, error)
}

// ChatRequest is the POST /chat body. SessionID doubles as the memory key,
// so its charset is restricted up front.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required,session_id"`
	Message   string `json:"message" validate:"required,max=1000"`
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

type Server struct {
	app      *fiber.App
	dialogue Dialogue
	validate *validator.Validate

	addr            string
	shutdownTimeout time.Duration
}

func New(cfg Config, dialogue Dialogue) (*Server, error) {
	if dialogue == nil {
		return nil, errors.New("dialogue handler is required")
	}

	validate := validator.New()
	if err := validate.RegisterValidation("session_id", func(fl validator.FieldLevel) bool {
		return sessionIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	s := &Server{
		dialogue:        dialogue,
		validate:        validate,
		addr:            cfg.Host + ":" + cfg.Port,
		shutdownTimeout: shutdownTimeout,
	}

	app := fiber.New(fiber.Config{
		AppName:               "parley",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		DisableStartupMessage: true,
	})
	app.Get("/health", s.handleHealth)
	app.Post("/chat", s.handleChat)
	s.app = app

	return s, nil
}

// App exposes the fiber app for in-process request tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(s.shutdownTimeout)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body must be valid JSON")
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Message = strings.Join(strings.Fields(req.Message), " ")
	if err := s.validate.Struct(req); err != nil {
		return badRequest(c, "session_id must be 1-100 chars of [A-Za-z0-9_-] and message must be 1-1000 chars")
	}

	ctx, cancel := context.WithCancel(c.UserContext())
	chunks, err := s.dialogue.HandleMessage(ctx, req.SessionID, req.Message)
	if err != nil {
		cancel()
		if errors.Is(err, orchestrator.ErrInvalidSession) || errors.Is(err, orchestrator.ErrInvalidMessage) {
			return badRequest(c, err.Error())
		}
		log.Error().
			Err(err).
			Str("session_id", req.SessionID).
			Msg("dialogue turn failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The writer stops on client disconnect; cancelling here releases the
		// chunk producer instead of leaving it blocked on its send.
		defer cancel()
		for chunk := range chunks {
			if _, err := w.WriteString(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}
