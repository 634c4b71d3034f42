package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/collab"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/resilience"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/util"
)

// wellKnownSchemes is the guaranteed fallback when the scheme matcher is
// unreachable. Broad central schemes most citizens qualify for.
var wellKnownSchemes = []collab.Scheme{
	{ID: "pm-kisan", Name: "PM-KISAN", Description: "Income support for farmer families", Category: "agriculture"},
	{ID: "pmjay", Name: "Ayushman Bharat PM-JAY", Description: "Health insurance cover for low-income households", Category: "health"},
	{ID: "pmay-g", Name: "PM Awas Yojana (Gramin)", Description: "Housing assistance for rural families", Category: "housing"},
}

// handleDialectDetection runs the opening turn. Detection failure falls back
// to the caller's preferred language so onboarding never blocks; either way
// the conversation lands in profile collection.
func (o *Orchestrator) handleDialectDetection(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	outcome, err := resilience.Execute(ctx, o.exec, "dialect",
		func(ctx context.Context) (collab.Dialect, error) {
			return o.svc.Dialects.Detect(ctx, t.text)
		},
		func(ctx context.Context) (collab.Dialect, error) {
			return collab.Dialect{Language: state.PreferredLanguage}, nil
		})
	if err != nil {
		return stageResult{}, err
	}

	dialect := outcome.Value
	dialect.Language = util.Coalesce(dialect.Language, state.PreferredLanguage)
	state.DetectedDialect = &dialect
	state.PreferredLanguage = util.Coalesce(state.PreferredLanguage, dialect.Language)

	return stageResult{
		text:        "Namaste! I can help you find and apply for government schemes. To begin, please tell me about yourself: your name, age, occupation, and state.",
		service:     "dialect",
		confidence:  dialect.Confidence,
		nextActions: []string{"provide_profile"},
		advanceTo:   StageProfileCollection,
	}, nil
}

// handleProfileCollection parses attributes from the reply and persists the
// profile. Empty input re-prompts without advancing.
func (o *Orchestrator) handleProfileCollection(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	attrs := parseProfileAttributes(t.text)
	if len(attrs) == 0 {
		return stageResult{
			text:        "I did not catch any details. Please share your name, age, occupation, and state.",
			service:     "profiles",
			nextActions: []string{"provide_profile"},
		}, nil
	}

	profile := collab.Profile{UserID: state.UserID, Language: state.PreferredLanguage, Attributes: attrs}
	if state.Profile != nil {
		for k, v := range state.Profile.Attributes {
			if _, ok := attrs[k]; !ok {
				attrs[k] = v
			}
		}
	}

	_, err := resilience.Execute(ctx, o.exec, "profiles",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, o.svc.Profiles.Save(ctx, profile)
		}, nil)
	if err != nil {
		return stageResult{}, err
	}

	state.Profile = &profile
	return stageResult{
		text:        "Thank you, I have noted your details. Let me look for schemes you may be eligible for.",
		service:     "profiles",
		nextActions: []string{"discover_schemes"},
		advanceTo:   StageSchemeDiscovery,
	}, nil
}

// handleSchemeDiscovery matches schemes against the stored profile. The
// matcher is allowed to fail; a static list of broad central schemes is the
// guaranteed fallback.
func (o *Orchestrator) handleSchemeDiscovery(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	profile := collab.Profile{UserID: state.UserID, Language: state.PreferredLanguage}
	if state.Profile != nil {
		profile = *state.Profile
	}

	outcome, err := resilience.Execute(ctx, o.exec, "schemes",
		func(ctx context.Context) ([]collab.Scheme, error) {
			return o.svc.Schemes.Match(ctx, profile)
		},
		func(ctx context.Context) ([]collab.Scheme, error) {
			return wellKnownSchemes, nil
		})
	if err != nil {
		return stageResult{}, err
	}

	schemes := outcome.Value
	if len(schemes) == 0 {
		schemes = wellKnownSchemes
	}
	state.CandidateSchemes = schemes

	var b strings.Builder
	b.WriteString("Here are schemes that match your profile:\n")
	for i, s := range schemes {
		fmt.Fprintf(&b, "%d. %s", i+1, s.Name)
		if s.Description != "" {
			fmt.Fprintf(&b, " - %s", s.Description)
		}
		b.WriteByte('\n')
	}
	b.WriteString("Which one would you like to apply for?")

	return stageResult{
		text:        b.String(),
		visual:      schemes,
		service:     "schemes",
		nextActions: []string{"select_scheme"},
		advanceTo:   StageSchemeSelection,
	}, nil
}

// handleSchemeSelection resolves the user's pick by name or ordinal and
// opens a form session for it. An unrecognized reply re-prompts in place.
func (o *Orchestrator) handleSchemeSelection(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	idx, ok := ParseSchemeSelection(t.text, state.CandidateSchemes)
	if !ok {
		return stageResult{
			text:        "I could not match that to a scheme. Please say the scheme name or its number from the list.",
			visual:      state.CandidateSchemes,
			service:     "schemes",
			nextActions: []string{"select_scheme"},
		}, nil
	}

	scheme := state.CandidateSchemes[idx]
	profile := collab.Profile{UserID: state.UserID, Language: state.PreferredLanguage}
	if state.Profile != nil {
		profile = *state.Profile
	}

	outcome, err := resilience.Execute(ctx, o.exec, "forms",
		func(ctx context.Context) (collab.FormSession, error) {
			return o.svc.Forms.StartSession(ctx, scheme.ID, profile)
		}, nil)
	if err != nil {
		return stageResult{}, err
	}

	state.SelectedScheme = &scheme
	state.FormSessionID = outcome.Value.SessionID

	prompt := util.Coalesce(outcome.Value.Prompt, "Let us fill the application together. Please answer the questions one by one.")
	return stageResult{
		text:        fmt.Sprintf("Great choice, %s it is. %s", scheme.Name, prompt),
		service:     "forms",
		nextActions: []string{"answer_form_question"},
		advanceTo:   StageFormFilling,
	}, nil
}

// handleFormFilling feeds the reply into the open form session and stays in
// the stage until the form service reports the session complete.
func (o *Orchestrator) handleFormFilling(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	outcome, err := resilience.Execute(ctx, o.exec, "forms",
		func(ctx context.Context) (collab.FormSession, error) {
			return o.svc.Forms.Continue(ctx, state.FormSessionID, t.text)
		}, nil)
	if err != nil {
		return stageResult{}, err
	}

	session := outcome.Value
	if !session.Complete {
		return stageResult{
			text:        util.Coalesce(session.Prompt, "Noted. Please continue with the next answer."),
			service:     "forms",
			nextActions: []string{"answer_form_question"},
		}, nil
	}

	return stageResult{
		text:        "Your form is complete. Next I will tell you which documents you need.",
		service:     "forms",
		nextActions: []string{"review_documents"},
		advanceTo:   StageDocumentGuidance,
	}, nil
}

// handleDocumentGuidance lists the documents the selected scheme requires.
func (o *Orchestrator) handleDocumentGuidance(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	schemeID := ""
	if state.SelectedScheme != nil {
		schemeID = state.SelectedScheme.ID
	}

	outcome, err := resilience.Execute(ctx, o.exec, "documents",
		func(ctx context.Context) ([]collab.DocumentRequirement, error) {
			return o.svc.Documents.Requirements(ctx, schemeID)
		}, nil)
	if err != nil {
		return stageResult{}, err
	}

	reqs := outcome.Value
	state.DocumentRequirements = reqs

	var b strings.Builder
	if len(reqs) == 0 {
		b.WriteString("No extra documents are needed for this scheme.\n")
	} else {
		b.WriteString("You will need these documents:\n")
		for _, r := range reqs {
			fmt.Fprintf(&b, "- %s", r.Name)
			if r.Mandatory {
				b.WriteString(" (required)")
			}
			b.WriteByte('\n')
		}
	}
	b.WriteString("When you are ready, say submit and I will file the application.")

	return stageResult{
		text:        b.String(),
		visual:      reqs,
		service:     "documents",
		nextActions: []string{"submit_application"},
		advanceTo:   StageApplicationSubmission,
	}, nil
}

// handleSubmission files the completed form and records the application id.
func (o *Orchestrator) handleSubmission(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	outcome, err := resilience.Execute(ctx, o.exec, "tracking",
		func(ctx context.Context) (collab.Application, error) {
			return o.svc.Tracking.Submit(ctx, state.FormSessionID)
		}, nil)
	if err != nil {
		return stageResult{}, err
	}

	app := outcome.Value
	state.ApplicationID = app.ApplicationID

	return stageResult{
		text:        fmt.Sprintf("Your application has been submitted. Your application number is %s. Ask me anytime for its status.", app.ApplicationID),
		service:     "tracking",
		nextActions: []string{"check_status"},
		advanceTo:   StageTracking,
	}, nil
}

// handleTracking answers status queries for the filed application and moves
// to COMPLETED once the application reaches a terminal status.
func (o *Orchestrator) handleTracking(ctx context.Context, t *turn) (stageResult, error) {
	state := t.state

	outcome, err := resilience.Execute(ctx, o.exec, "tracking",
		func(ctx context.Context) (collab.Application, error) {
			return o.svc.Tracking.Status(ctx, state.ApplicationID)
		}, nil)
	if err != nil {
		return stageResult{}, err
	}

	app := outcome.Value
	text := fmt.Sprintf("Application %s is currently %s.", app.ApplicationID, app.Status)
	if app.Detail != "" {
		text += " " + app.Detail
	}

	res := stageResult{
		text:        text,
		visual:      app,
		service:     "tracking",
		nextActions: []string{"check_status"},
	}
	switch strings.ToLower(app.Status) {
	case "completed", "approved", "disbursed", "rejected":
		res.advanceTo = StageCompleted
		res.nextActions = nil
	}
	return res, nil
}

// handleCompleted closes out a finished conversation.
func (o *Orchestrator) handleCompleted(ctx context.Context, t *turn) (stageResult, error) {
	return stageResult{
		text:    "This application is finished. Start a new conversation whenever you need help with another scheme.",
		service: "gateway",
	}, nil
}

// handleErrorStage recovers a conversation stranded in ERROR by resetting
// to the safe checkpoint.
func (o *Orchestrator) handleErrorStage(ctx context.Context, t *turn) (stageResult, error) {
	t.state.ResetToSafeStage()
	return stageResult{
		text:        "Let us pick up from your details. Please share your name, age, occupation, and state.",
		service:     "gateway",
		nextActions: []string{"provide_profile"},
	}, nil
}

// parseProfileAttributes pulls key-value attributes out of free text.
// Accepts "key: value" and "key is value" fragments separated by commas or
// newlines; anything unstructured lands under "details".
func parseProfileAttributes(text string) map[string]string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	attrs := make(map[string]string)
	var leftovers []string
	for _, chunk := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' || r == ';' }) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		var key, value string
		if i := strings.IndexByte(chunk, ':'); i > 0 {
			key, value = chunk[:i], chunk[i+1:]
		} else if i := strings.Index(strings.ToLower(chunk), " is "); i > 0 {
			key, value = chunk[:i], chunk[i+4:]
		} else {
			leftovers = append(leftovers, chunk)
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			attrs[key] = value
		}
	}

	if len(leftovers) > 0 {
		attrs["details"] = strings.Join(leftovers, ", ")
	}
	return attrs
}
