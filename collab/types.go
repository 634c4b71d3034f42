// Package collab defines the contracts for the gateway's downstream
// collaborators and provides their HTTP clients. The gateway only composes
// these services; their domain logic (transcription quality, eligibility
// rules, extraction accuracy) is out of scope and lives behind these
// interfaces.
package collab

import "context"

// Transcript is the result of speech transcription.
type Transcript struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Transcriber converts audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (Transcript, error)
}

// Audio is a reference to synthesized speech.
type Audio struct {
	URL string `json:"url"`
}

// Synthesizer converts response text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (Audio, error)
}

// Dialect is a detected language/dialect classification.
type Dialect struct {
	Language   string  `json:"language"`
	Dialect    string  `json:"dialect,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// DialectDetector classifies the user's language and dialect from text.
type DialectDetector interface {
	Detect(ctx context.Context, text string) (Dialect, error)
}

// Profile is the citizen profile collected during the conversation.
type Profile struct {
	UserID     string            `json:"userId"`
	Language   string            `json:"language,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ProfileStore persists citizen profiles.
type ProfileStore interface {
	Save(ctx context.Context, profile Profile) error
	Load(ctx context.Context, userID string) (Profile, error)
}

// Scheme is one government scheme candidate.
type Scheme struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// SchemeMatcher ranks eligible schemes for a profile.
type SchemeMatcher interface {
	Match(ctx context.Context, profile Profile) ([]Scheme, error)
}

// FormSession is an in-progress application form.
type FormSession struct {
	SessionID string `json:"sessionId"`
	Prompt    string `json:"prompt,omitempty"`
	Complete  bool   `json:"complete,omitempty"`
}

// FormFiller drives natural-language form filling for a scheme.
type FormFiller interface {
	StartSession(ctx context.Context, schemeID string, profile Profile) (FormSession, error)
	Continue(ctx context.Context, sessionID, input string) (FormSession, error)
}

// DocumentRequirement is one document needed for an application.
type DocumentRequirement struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Mandatory   bool   `json:"mandatory"`
}

// DocumentGuide lists the documents a scheme application needs.
type DocumentGuide interface {
	Requirements(ctx context.Context, schemeID string) ([]DocumentRequirement, error)
}

// Application is a submitted scheme application.
type Application struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// SubmissionTracker submits applications and answers status queries.
type SubmissionTracker interface {
	Submit(ctx context.Context, formSessionID string) (Application, error)
	Status(ctx context.Context, applicationID string) (Application, error)
}
