package conversation

import (
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/collab"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in the conversation history. Messages are immutable
// once appended; insertion order is the sole record of what happened when.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	ServiceName string  `json:"serviceName,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Language    string  `json:"language,omitempty"`
}

// Metadata tracks per-conversation bookkeeping.
type Metadata struct {
	StartTime    time.Time `json:"startTime"`
	LastActivity time.Time `json:"lastActivity"`
	ErrorCount   int       `json:"errorCount"`
	RetryCount   int       `json:"retryCount"`
}

// State is the persisted conversation. It is exclusively owned by the
// orchestrator during a turn; turns for the same session must be
// serialized by the caller.
type State struct {
	SessionID         string `json:"sessionId"`
	UserID            string `json:"userId"`
	CurrentStage      Stage  `json:"currentStage"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`

	DetectedDialect      *collab.Dialect               `json:"detectedDialect,omitempty"`
	Profile              *collab.Profile               `json:"profile,omitempty"`
	CandidateSchemes     []collab.Scheme               `json:"candidateSchemes,omitempty"`
	SelectedScheme       *collab.Scheme                `json:"selectedScheme,omitempty"`
	FormSessionID        string                        `json:"formSessionId,omitempty"`
	DocumentRequirements []collab.DocumentRequirement  `json:"documentRequirements,omitempty"`
	ApplicationID        string                        `json:"applicationId,omitempty"`

	Messages []Message `json:"messages"`
	Metadata Metadata  `json:"metadata"`
}

// NewState initializes a fresh conversation at INITIAL.
func NewState(sessionID, userID, preferredLanguage string) *State {
	now := time.Now()
	return &State{
		SessionID:         sessionID,
		UserID:            userID,
		CurrentStage:      StageInitial,
		PreferredLanguage: preferredLanguage,
		Metadata:          Metadata{StartTime: now, LastActivity: now},
	}
}

// Append adds a message to the history. History is append-only.
func (s *State) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
}

// AppendUser appends a user message.
func (s *State) AppendUser(content string) {
	s.Append(Message{Role: RoleUser, Content: content, Language: s.PreferredLanguage})
}

// AppendAssistant appends an assistant message attributed to a service.
func (s *State) AppendAssistant(content, serviceName string, confidence float64) {
	s.Append(Message{
		Role:        RoleAssistant,
		Content:     content,
		ServiceName: serviceName,
		Confidence:  confidence,
		Language:    s.PreferredLanguage,
	})
}

// Touch refreshes the last-activity timestamp.
func (s *State) Touch() {
	s.Metadata.LastActivity = time.Now()
}

// ResetToSafeStage applies the data-corruption recovery: back to the
// profile checkpoint with error and retry counters zeroed.
func (s *State) ResetToSafeStage() {
	s.CurrentStage = StageProfileCollection
	s.Metadata.ErrorCount = 0
	s.Metadata.RetryCount = 0
}
