package semver

import "testing"

func TestParseAgentRef(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantID    string
		wantRange string
		wantErr   bool
	}{
		{name: "bare id", input: "intake_agent", wantID: "intake_agent"},
		{name: "major only", input: "intake_agent@1", wantID: "intake_agent", wantRange: "1"},
		{name: "caret range", input: "billing_agent@^1.2.0", wantID: "billing_agent", wantRange: "^1.2.0"},
		{name: "whitespace trimmed", input: "  case_agent@>=1.0.0 ", wantID: "case_agent", wantRange: ">=1.0.0"},
		{name: "empty", input: "", wantErr: true},
		{name: "empty range", input: "intake_agent@", wantErr: true},
		{name: "leading digit", input: "1agent", wantErr: true},
		{name: "spaces in id", input: "intake agent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseAgentRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("semver:parser_test - expected error for %q, got %+v", tt.input, ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("semver:parser_test - unexpected error: %v", err)
			}
			if ref.ID != tt.wantID {
				t.Errorf("semver:parser_test - ID = %q, want %q", ref.ID, tt.wantID)
			}
			if ref.Range != tt.wantRange {
				t.Errorf("semver:parser_test - Range = %q, want %q", ref.Range, tt.wantRange)
			}
		})
	}
}

func TestAgentRef_String(t *testing.T) {
	ref, err := ParseAgentRef("document_agent@^2")
	if err != nil {
		t.Fatalf("semver:parser_test - unexpected error: %v", err)
	}
	if got := ref.String(); got != "document_agent@^2" {
		t.Errorf("semver:parser_test - String() = %q", got)
	}
	bare := &AgentRef{ID: "document_agent"}
	if got := bare.String(); got != "document_agent" {
		t.Errorf("semver:parser_test - String() = %q", got)
	}
}

func TestExtractMajorFromRange(t *testing.T) {
	if got := ExtractMajorFromRange("3"); got != 3 {
		t.Errorf("semver:parser_test - ExtractMajorFromRange(3) = %d", got)
	}
	if got := ExtractMajorFromRange("^3.0.0"); got != -1 {
		t.Errorf("semver:parser_test - ExtractMajorFromRange(^3.0.0) = %d, want -1", got)
	}
}
