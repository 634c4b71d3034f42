package fault

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
)

// ErrorContext is the record kept for every handled error.
type ErrorContext struct {
	ErrorID   string    `json:"errorId"`
	Category  Category  `json:"category"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Service   string    `json:"service,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// ErrorCount is the conversation's error count at handling time.
	ErrorCount int `json:"errorCount"`
}

// Recovery is the outcome of applying a strategy to a classified error.
type Recovery struct {
	// Success reports whether the strategy resolved the error locally.
	Success bool
	// Message is a short operator-facing description of what was done.
	Message string
	// ShouldRetry asks the orchestrator to retry the failed call.
	ShouldRetry bool
	// RetryDelay is the wait before the retry.
	RetryDelay time.Duration
	// FallbackResponse, when set, is served to the user in place of the
	// failed collaborator's answer; the conversation stays in its stage.
	FallbackResponse string
	// RequiresUserInput marks the fallback response as a re-prompt.
	RequiresUserInput bool
	// ResetState asks the orchestrator to reset the conversation to its
	// safe checkpoint and zero the error and retry counters.
	ResetState bool
}

// Strategy resolves one category of error.
type Strategy func(ctx context.Context, ec ErrorContext) Recovery

// HandlerConfig configures the error handler.
type HandlerConfig struct {
	// LogCapacity bounds the error ring buffer. Defaults to 100.
	LogCapacity int `yaml:"log_capacity" mapstructure:"log_capacity"`
	// RetryDelay is the fixed backoff handed out by the network and
	// timeout strategies. Defaults to 2s.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	// RateLimitDelay is the minimum wait after a rate-limit error.
	// Defaults to (and is floored at) 10s.
	RateLimitDelay time.Duration `yaml:"rate_limit_delay" mapstructure:"rate_limit_delay"`
}

// Handler classifies errors, applies recovery strategies, and keeps the
// bounded error log and counters behind its own lock.
type Handler struct {
	cfg        HandlerConfig
	log        *logger.Logger
	strategies map[Category]Strategy
	ring       *ring
}

// NewHandler creates a handler with the default strategy per category.
func NewHandler(cfg HandlerConfig, log *logger.Logger) *Handler {
	if cfg.LogCapacity <= 0 {
		cfg.LogCapacity = 100
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.RateLimitDelay < 10*time.Second {
		cfg.RateLimitDelay = 10 * time.Second
	}

	h := &Handler{
		cfg:        cfg,
		log:        log.WithComponent("fault"),
		strategies: make(map[Category]Strategy),
		ring:       newRing(cfg.LogCapacity),
	}
	h.registerDefaults()
	return h
}

// Register replaces the strategy for a category.
func (h *Handler) Register(category Category, s Strategy) {
	h.strategies[category] = s
}

// Handle classifies and scores err, records it, and applies the
// category's recovery strategy. conversationErrors is the conversation's
// error count including this error.
func (h *Handler) Handle(ctx context.Context, err error, service, operation string, conversationErrors int) (ErrorContext, Recovery) {
	category := Classify(err)
	severity := Score(category, conversationErrors)

	ec := ErrorContext{
		ErrorID:    uuid.New().String(),
		Category:   category,
		Severity:   severity,
		Message:    err.Error(),
		Service:    service,
		Operation:  operation,
		Timestamp:  time.Now(),
		ErrorCount: conversationErrors,
	}
	h.ring.add(ec)

	h.log.Warn("error handled", logger.Fields(
		"error_id", ec.ErrorID,
		"category", string(category),
		"severity", string(severity),
		logger.FieldService, service,
		logger.FieldOperation, operation,
		logger.FieldError, err.Error(),
	))

	strategy, ok := h.strategies[category]
	if !ok {
		strategy = h.strategies[CategoryUnknown]
	}
	return ec, strategy(ctx, ec)
}

// Stats returns aggregate counters and the most recent entries.
func (h *Handler) Stats(recent int) Stats {
	return h.ring.stats(recent)
}

func (h *Handler) registerDefaults() {
	retry := func(delay time.Duration, message string) Strategy {
		return func(context.Context, ErrorContext) Recovery {
			return Recovery{Success: true, Message: message, ShouldRetry: true, RetryDelay: delay}
		}
	}

	h.strategies[CategoryNetwork] = retry(h.cfg.RetryDelay, "retrying after network error")
	h.strategies[CategoryTimeout] = retry(h.cfg.RetryDelay, "retrying after timeout")
	h.strategies[CategoryAuthentication] = retry(h.cfg.RetryDelay, "retrying after credential refresh")
	h.strategies[CategoryRateLimit] = retry(h.cfg.RateLimitDelay, "backing off after rate limit")

	h.strategies[CategoryServiceUnavailable] = func(context.Context, ErrorContext) Recovery {
		return Recovery{
			Success:          true,
			Message:          "serving cached response while service is unavailable",
			FallbackResponse: "The service is briefly unavailable. Here is the last known information; please try again in a moment.",
		}
	}

	h.strategies[CategoryValidation] = func(context.Context, ErrorContext) Recovery {
		return Recovery{
			Success:           true,
			Message:           "re-prompting for valid input",
			FallbackResponse:  "I could not understand that. Could you rephrase or provide the missing detail?",
			RequiresUserInput: true,
		}
	}

	h.strategies[CategoryDataCorruption] = func(context.Context, ErrorContext) Recovery {
		return Recovery{
			Success:    true,
			Message:    "conversation state reset to safe checkpoint",
			ResetState: true,
			FallbackResponse: "Something went wrong with our conversation history. Let us start again from your profile details.",
		}
	}

	h.strategies[CategoryUnknown] = func(_ context.Context, ec ErrorContext) Recovery {
		return Recovery{
			Success:          ec.Severity != SeverityCritical,
			Message:          "served generic fallback for unclassified error",
			FallbackResponse: "I ran into an unexpected problem. Please try again.",
		}
	}
}
