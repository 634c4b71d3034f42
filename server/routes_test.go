package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/collab"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/conversation"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/fault"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/health"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/resilience"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/store"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/tracing"
)

// fakeServices answers every collaborator call with fixed happy responses.
type fakeServices struct{}

func (fakeServices) Transcribe(_ context.Context, _ []byte, language string) (collab.Transcript, error) {
	return collab.Transcript{Text: "hello", Language: language, Confidence: 0.9}, nil
}

func (fakeServices) Synthesize(context.Context, string, string) (collab.Audio, error) {
	return collab.Audio{URL: "https://media/tts.mp3"}, nil
}

func (fakeServices) Detect(context.Context, string) (collab.Dialect, error) {
	return collab.Dialect{Language: "hi", Confidence: 0.9}, nil
}

func (fakeServices) Save(context.Context, collab.Profile) error { return nil }

func (fakeServices) Load(_ context.Context, userID string) (collab.Profile, error) {
	return collab.Profile{UserID: userID}, nil
}

func (fakeServices) Match(context.Context, collab.Profile) ([]collab.Scheme, error) {
	return []collab.Scheme{{ID: "pm-kisan", Name: "PM-KISAN"}}, nil
}

func (fakeServices) StartSession(context.Context, string, collab.Profile) (collab.FormSession, error) {
	return collab.FormSession{SessionID: "f1", Prompt: "Aadhaar?"}, nil
}

func (fakeServices) Continue(_ context.Context, sessionID, _ string) (collab.FormSession, error) {
	return collab.FormSession{SessionID: sessionID, Complete: true}, nil
}

func (fakeServices) Requirements(context.Context, string) ([]collab.DocumentRequirement, error) {
	return []collab.DocumentRequirement{{Name: "Aadhaar card", Mandatory: true}}, nil
}

func (fakeServices) Submit(context.Context, string) (collab.Application, error) {
	return collab.Application{ApplicationID: "APP-1", Status: "submitted"}, nil
}

func (fakeServices) Status(_ context.Context, applicationID string) (collab.Application, error) {
	return collab.Application{ApplicationID: applicationID, Status: "approved"}, nil
}

type apiFixture struct {
	engine  *gin.Engine
	states  *conversation.StateStore
	monitor *health.Monitor
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewDefault("test")

	breakers := resilience.NewBreakerRegistry(resilience.CircuitBreakerConfig{
		FailureThreshold: 100,
		SuccessThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	exec := resilience.NewExecutor(resilience.ExecutorConfig{
		Retry:       resilience.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1.0},
		CallTimeout: time.Second,
	}, breakers, log)
	faults := fault.NewHandler(fault.HandlerConfig{RetryDelay: time.Millisecond}, log)
	tracer := tracing.New("test", nil, log)
	states := conversation.NewStateStore(store.NewMemory(), time.Hour)
	monitor := health.NewMonitor(time.Second, log)

	svc := fakeServices{}
	orch := conversation.NewOrchestrator(states, conversation.Collaborators{
		Transcriber: svc,
		Synthesizer: svc,
		Dialects:    svc,
		Profiles:    svc,
		Schemes:     svc,
		Forms:       svc,
		Documents:   svc,
		Tracking:    svc,
	}, exec, faults, tracer, log)

	engine := gin.New()
	api := &API{
		Orchestrator: orch,
		Faults:       faults,
		Breakers:     breakers,
		Executor:     exec,
		Monitor:      monitor,
	}
	api.Register(engine)

	return &apiFixture{engine: engine, states: states, monitor: monitor}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return envelope.Data
}

func TestStartConversation(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/conversation/start", map[string]any{
		"userId":            "u1",
		"preferredLanguage": "hi",
		"textInput":         "namaste",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	if data["sessionId"] == "" || data["sessionId"] == nil {
		t.Fatalf("expected a session id: %v", data)
	}
	if data["stage"] != string(conversation.StageProfileCollection) {
		t.Fatalf("stage = %v", data["stage"])
	}
}

func TestStartConversationValidation(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing user id", map[string]any{"textInput": "hi"}},
		{"no input at all", map[string]any{"userId": "u1"}},
		{"bad base64 audio", map[string]any{"userId": "u1", "audioData": "not-base64!!!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/conversation/start", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestContinueConversation(t *testing.T) {
	f := newAPIFixture(t)

	sessionID := uuid.New().String()
	state := conversation.NewState(sessionID, "u1", "hi")
	state.CurrentStage = conversation.StageSchemeDiscovery
	if err := f.states.Save(context.Background(), state); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodPost, "/api/v1/conversation/continue", map[string]any{
		"sessionId": sessionID,
		"textInput": "find schemes for me",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	if data["sessionId"] != sessionID {
		t.Fatalf("session id mismatch: %v", data["sessionId"])
	}
	if data["stage"] != string(conversation.StageSchemeSelection) {
		t.Fatalf("stage = %v", data["stage"])
	}
}

func TestContinueConversationAcceptsUserID(t *testing.T) {
	f := newAPIFixture(t)

	sessionID := uuid.New().String()
	state := conversation.NewState(sessionID, "u1", "hi")
	state.CurrentStage = conversation.StageSchemeDiscovery
	if err := f.states.Save(context.Background(), state); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodPost, "/api/v1/conversation/continue", map[string]any{
		"sessionId": sessionID,
		"userId":    "u2",
		"textInput": "find schemes for me",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	// The persisted session's owner stays authoritative.
	loaded, err := f.states.Load(context.Background(), sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.UserID != "u1" {
		t.Fatalf("user id = %q, want u1", loaded.UserID)
	}

	w = f.do(t, http.MethodPost, "/api/v1/conversation/continue", map[string]any{
		"sessionId": sessionID,
		"userId":    strings.Repeat("x", 200),
		"textInput": "hello",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestContinueConversationRejectsBadSessionID(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/conversation/continue", map[string]any{
		"sessionId": "not-a-uuid",
		"textInput": "hello",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestHistoryEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	missing := uuid.New().String()
	w := f.do(t, http.MethodGet, "/api/v1/conversation/"+missing+"/history", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/v1/conversation/not-a-uuid/history", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	sessionID := uuid.New().String()
	state := conversation.NewState(sessionID, "u1", "hi")
	state.AppendUser("hello")
	state.AppendAssistant("hi", "gateway", 0)
	if err := f.states.Save(context.Background(), state); err != nil {
		t.Fatal(err)
	}

	w = f.do(t, http.MethodGet, "/api/v1/conversation/"+sessionID+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	msgs, ok := data["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("unexpected messages: %v", data["messages"])
	}
}

func TestEndConversation(t *testing.T) {
	f := newAPIFixture(t)

	sessionID := uuid.New().String()
	if err := f.states.Save(context.Background(), conversation.NewState(sessionID, "u1", "hi")); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodDelete, "/api/v1/conversation/"+sessionID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	got, err := f.states.Load(context.Background(), sessionID)
	if err != nil || got != nil {
		t.Fatalf("expected the session deleted, got %+v, %v", got, err)
	}
}

func TestCircuitBreakerEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	// Drive a conversation so breakers exist.
	w := f.do(t, http.MethodPost, "/api/v1/conversation/start", map[string]any{
		"userId": "u1", "textInput": "namaste",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start failed: %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/v1/circuit-breakers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var envelope struct {
		Data []resilience.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) == 0 {
		t.Fatal("expected at least one breaker snapshot")
	}

	w = f.do(t, http.MethodPost, "/api/v1/circuit-breakers/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}
}

func TestErrorStatsAndMetricsEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/errors/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/v1/services/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	data := decodeData(t, w)
	if _, ok := data["totalRequests"]; !ok {
		t.Fatalf("expected executor counters: %v", data)
	}
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.monitor.Register(health.ProbeFunc{ProbeName: "speech", Fn: func(context.Context) error { return nil }})

	w := f.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/health/detailed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detailed status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/health/service/speech", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("service status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/health/service/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown service status = %d", w.Code)
	}
}

func TestHealthEndpointsUnhealthy(t *testing.T) {
	f := newAPIFixture(t)
	f.monitor.Register(health.ProbeFunc{ProbeName: "speech", Fn: func(context.Context) error {
		return errors.New("down")
	}})
	f.monitor.Register(health.ProbeFunc{ProbeName: "forms", Fn: func(context.Context) error {
		return errors.New("down")
	}})

	w := f.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/health/service/speech", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("service status = %d", w.Code)
	}
}
