package conversation

import "testing"

func TestNextWalksForwardPath(t *testing.T) {
	order := []Stage{
		StageInitial,
		StageDialectDetection,
		StageProfileCollection,
		StageSchemeDiscovery,
		StageSchemeSelection,
		StageFormFilling,
		StageDocumentGuidance,
		StageApplicationSubmission,
		StageTracking,
		StageCompleted,
	}
	for i := 0; i < len(order)-1; i++ {
		got, ok := order[i].Next()
		if !ok || got != order[i+1] {
			t.Fatalf("%s.Next() = %s, %v; want %s", order[i], got, ok, order[i+1])
		}
	}
	if _, ok := StageCompleted.Next(); ok {
		t.Fatal("COMPLETED must be terminal")
	}
	if _, ok := StageError.Next(); ok {
		t.Fatal("ERROR has no forward edge")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"forward edge", StageInitial, StageDialectDetection, true},
		{"skip forbidden", StageInitial, StageSchemeDiscovery, false},
		{"backward forbidden", StageTracking, StageFormFilling, false},
		{"error from anywhere", StageFormFilling, StageError, true},
		{"error from completed", StageCompleted, StageError, true},
		{"reset to checkpoint", StageTracking, StageProfileCollection, true},
		{"reset from error", StageError, StageProfileCollection, true},
		{"self loop forbidden", StageFormFilling, StageFormFilling, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
