package collab

import (
	"context"
	"encoding/base64"
)

// SpeechClient talks to the speech service for transcription and synthesis.
type SpeechClient struct {
	http httpClient
}

// NewSpeechClient creates a client for the speech service.
func NewSpeechClient(endpoint Endpoint, cfg ClientConfig) *SpeechClient {
	return &SpeechClient{http: newHTTPClient("speech", endpoint, cfg)}
}

type transcribeRequest struct {
	AudioData string `json:"audioData"`
	Language  string `json:"language,omitempty"`
}

// Transcribe converts audio into text.
func (c *SpeechClient) Transcribe(ctx context.Context, audio []byte, language string) (Transcript, error) {
	req := transcribeRequest{
		AudioData: base64.StdEncoding.EncodeToString(audio),
		Language:  language,
	}
	var out Transcript
	if err := c.http.postJSON(ctx, "/v1/transcribe", req, &out); err != nil {
		return Transcript{}, err
	}
	return out, nil
}

type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Synthesize converts response text into audio, returning a URL.
func (c *SpeechClient) Synthesize(ctx context.Context, text, language string) (Audio, error) {
	var out Audio
	if err := c.http.postJSON(ctx, "/v1/synthesize", synthesizeRequest{Text: text, Language: language}, &out); err != nil {
		return Audio{}, err
	}
	return out, nil
}

var (
	_ Transcriber = (*SpeechClient)(nil)
	_ Synthesizer = (*SpeechClient)(nil)
)
