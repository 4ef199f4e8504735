package domain

import "testing"

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Category
		found    bool
	}{
		{"flagged keyword", "This transfer is FLAGGED for review", CategoryFlagged, true},
		{"high risk phrase", "Assessment: high risk corridor activity", CategoryFlagged, true},
		{"investigate keyword", "Recommend we investigate the beneficiary", CategoryInvestigate, true},
		{"suspicious keyword", "The pattern looks suspicious", CategoryInvestigate, true},
		{"non fraud keyword", "NON_FRAUD - consistent with history", CategoryNonFraud, true},
		{"normal keyword", "Activity appears normal", CategoryNonFraud, true},
		{"low risk phrase", "low risk, no action needed", CategoryNonFraud, true},
		{"no keyword", "No determination possible", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := MatchCategory(tt.response)
			if found != tt.found {
				t.Fatalf("MatchCategory(%q) found = %v, want %v", tt.response, found, tt.found)
			}
			if got != tt.want {
				t.Errorf("MatchCategory(%q) = %q, want %q", tt.response, got, tt.want)
			}
		})
	}

	t.Run("flagged wins over investigate", func(t *testing.T) {
		got, _ := MatchCategory("FLAGGED: suspicious beneficiary")
		if got != CategoryFlagged {
			t.Errorf("expected FLAGGED to take priority, got %q", got)
		}
	})
}

func TestNarrativeTriggered(t *testing.T) {
	if !NarrativeTriggered("Risk assessment: HIGH") {
		t.Error("expected HIGH to trigger")
	}
	if !NarrativeTriggered("likely fraud pattern") {
		t.Error("expected fraud to trigger case-insensitively")
	}
	if NarrativeTriggered("Risk assessment: LOW, activity consistent") {
		t.Error("expected neutral narrative not to trigger")
	}
}

func TestEscalationRequested(t *testing.T) {
	if !EscalationRequested("Please CREATE CASE for this transfer") {
		t.Error("expected create case to escalate")
	}
	if !EscalationRequested("We should investigate further") {
		t.Error("expected investigate to escalate")
	}
	if EscalationRequested("AGREE_CLOSE, nothing unusual here") {
		t.Error("expected close response not to escalate")
	}
}

func TestFallbackResponse(t *testing.T) {
	t.Run("classification prompt", func(t *testing.T) {
		resp := FallbackResponse("Transfer Fraud Analysis:\nClassify as FLAGGED/INVESTIGATE/NON_FRAUD:")
		if category, ok := MatchCategory(resp); !ok || category != CategoryFlagged {
			t.Errorf("classification fallback must parse as FLAGGED, got %q ok=%v", category, ok)
		}
	})

	t.Run("narrative prompt stays neutral", func(t *testing.T) {
		resp := FallbackResponse("Deep Analysis:\nRisk (HIGH/MEDIUM/LOW) and why:")
		if NarrativeTriggered(resp) {
			t.Error("narrative fallback must not contain trigger keywords")
		}
	})

	t.Run("unknown prompt", func(t *testing.T) {
		resp := FallbackResponse("hello")
		if resp == "" {
			t.Error("expected a non-empty neutral response")
		}
	})
}
