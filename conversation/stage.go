package conversation

// Stage is a named step in the conversation state machine.
type Stage string

const (
	StageInitial               Stage = "INITIAL"
	StageDialectDetection      Stage = "DIALECT_DETECTION"
	StageProfileCollection     Stage = "PROFILE_COLLECTION"
	StageSchemeDiscovery       Stage = "SCHEME_DISCOVERY"
	StageSchemeSelection       Stage = "SCHEME_SELECTION"
	StageFormFilling           Stage = "FORM_FILLING"
	StageDocumentGuidance      Stage = "DOCUMENT_GUIDANCE"
	StageApplicationSubmission Stage = "APPLICATION_SUBMISSION"
	StageTracking              Stage = "TRACKING"
	StageCompleted             Stage = "COMPLETED"
	StageError                 Stage = "ERROR"
)

// next is the forward edge of the stage graph.
var next = map[Stage]Stage{
	StageInitial:               StageDialectDetection,
	StageDialectDetection:      StageProfileCollection,
	StageProfileCollection:     StageSchemeDiscovery,
	StageSchemeDiscovery:       StageSchemeSelection,
	StageSchemeSelection:       StageFormFilling,
	StageFormFilling:           StageDocumentGuidance,
	StageDocumentGuidance:      StageApplicationSubmission,
	StageApplicationSubmission: StageTracking,
	StageTracking:              StageCompleted,
}

// Next returns the stage that follows s on the forward path.
func (s Stage) Next() (Stage, bool) {
	n, ok := next[s]
	return n, ok
}

// CanTransition reports whether from→to is a legal edge: one forward step,
// entering ERROR from anywhere, or the error-reset edge back to
// PROFILE_COLLECTION.
func CanTransition(from, to Stage) bool {
	if to == StageError {
		return true
	}
	if to == StageProfileCollection {
		// The data-corruption recovery resets any stage to the profile
		// checkpoint.
		return true
	}
	n, ok := next[from]
	return ok && n == to
}
