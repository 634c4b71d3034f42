package server

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/conversation"
	apperrors "github.com/Purnavu-12/Gram-Sahayak-sub001/errors"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/fault"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/health"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/resilience"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/server/middleware"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/validation"
)

// API exposes the gateway's REST surface over the orchestrator and its
// operational subsystems.
type API struct {
	Orchestrator *conversation.Orchestrator
	Faults       *fault.Handler
	Breakers     *resilience.BreakerRegistry
	Executor     *resilience.Executor
	Monitor      *health.Monitor
}

// Register mounts all gateway routes on the engine.
func (a *API) Register(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	{
		conv := v1.Group("/conversation")
		conv.POST("/start", a.startConversation)
		conv.POST("/continue", a.continueConversation)
		conv.GET("/:sessionId/history", a.history)
		conv.DELETE("/:sessionId", a.endConversation)

		v1.GET("/errors/stats", a.errorStats)
		v1.GET("/circuit-breakers", a.circuitBreakers)
		v1.POST("/circuit-breakers/reset", a.resetCircuitBreakers)
		v1.GET("/services/metrics", a.serviceMetrics)
	}

	engine.GET("/health", a.healthSummary)
	engine.GET("/health/detailed", a.healthDetailed)
	engine.GET("/health/service/:name", a.healthService)
}

// startRequest opens a new conversation.
type startRequest struct {
	UserID            string `json:"userId" validate:"required,max=128"`
	PreferredLanguage string `json:"preferredLanguage" validate:"omitempty,max=32"`
	TextInput         string `json:"textInput" validate:"omitempty,max=8192"`
	AudioData         string `json:"audioData" validate:"omitempty"` // base64
}

// continueRequest advances an existing conversation. The userId is accepted
// for parity with start; the persisted session's owner remains authoritative.
type continueRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
	UserID    string `json:"userId" validate:"omitempty,max=128"`
	TextInput string `json:"textInput" validate:"omitempty,max=8192"`
	AudioData string `json:"audioData" validate:"omitempty"` // base64
}

func (a *API) startConversation(c *gin.Context) {
	var req startRequest
	if !bindAndValidate(c, &req) {
		return
	}

	audio, ok := decodeAudio(c, req.AudioData)
	if !ok {
		return
	}
	if req.TextInput == "" && len(audio) == 0 {
		RespondWithError(c, apperrors.Validation("one of textInput or audioData is required"))
		return
	}

	out := a.Orchestrator.ProcessTurn(c.Request.Context(), conversation.Input{
		UserID:            req.UserID,
		PreferredLanguage: req.PreferredLanguage,
		TextInput:         req.TextInput,
		AudioData:         audio,
		TraceContext:      middleware.TraceFromContext(c),
	})
	RespondCreated(c, out)
}

func (a *API) continueConversation(c *gin.Context) {
	var req continueRequest
	if !bindAndValidate(c, &req) {
		return
	}

	audio, ok := decodeAudio(c, req.AudioData)
	if !ok {
		return
	}
	if req.TextInput == "" && len(audio) == 0 {
		RespondWithError(c, apperrors.Validation("one of textInput or audioData is required"))
		return
	}

	out := a.Orchestrator.ProcessTurn(c.Request.Context(), conversation.Input{
		SessionID:    req.SessionID,
		UserID:       req.UserID,
		TextInput:    req.TextInput,
		AudioData:    audio,
		TraceContext: middleware.TraceFromContext(c),
	})
	RespondOK(c, out)
}

func (a *API) history(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := validation.New().RequiredUUID("sessionId", sessionID).Validate(); err != nil {
		RespondWithError(c, err)
		return
	}

	messages, err := a.Orchestrator.History(c.Request.Context(), sessionID)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, gin.H{"sessionId": sessionID, "messages": messages})
}

func (a *API) endConversation(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := validation.New().RequiredUUID("sessionId", sessionID).Validate(); err != nil {
		RespondWithError(c, err)
		return
	}

	if err := a.Orchestrator.End(c.Request.Context(), sessionID); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondNoContent(c)
}

func (a *API) errorStats(c *gin.Context) {
	recent := 20
	RespondOK(c, a.Faults.Stats(recent))
}

func (a *API) circuitBreakers(c *gin.Context) {
	RespondOK(c, a.Breakers.Snapshots())
}

func (a *API) resetCircuitBreakers(c *gin.Context) {
	a.Breakers.ResetAll()
	RespondOK(c, gin.H{"reset": true})
}

func (a *API) serviceMetrics(c *gin.Context) {
	RespondOK(c, a.Executor.Metrics())
}

func (a *API) healthSummary(c *gin.Context) {
	agg := a.Monitor.Aggregate(c.Request.Context())
	c.JSON(statusForHealth(agg.Status), gin.H{"status": agg.Status})
}

func (a *API) healthDetailed(c *gin.Context) {
	agg := a.Monitor.Aggregate(c.Request.Context())
	c.JSON(statusForHealth(agg.Status), agg)
}

func (a *API) healthService(c *gin.Context) {
	result, err := a.Monitor.Check(c.Request.Context(), c.Param("name"))
	if err != nil {
		RespondWithError(c, apperrors.NotFound("service", c.Param("name")))
		return
	}

	status := http.StatusOK
	if !result.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}

// bindAndValidate decodes the JSON body and applies struct validation,
// writing the error response itself on failure.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondWithError(c, apperrors.Validation("invalid request body: "+err.Error()))
		return false
	}
	if err := validation.Validate(req); err != nil {
		RespondWithError(c, err)
		return false
	}
	return true
}

func decodeAudio(c *gin.Context, encoded string) ([]byte, bool) {
	if encoded == "" {
		return nil, true
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		RespondWithError(c, apperrors.Validation("audioData must be base64 encoded"))
		return nil, false
	}
	return audio, true
}

func statusForHealth(s health.Status) int {
	if s == health.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
