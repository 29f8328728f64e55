package semver

import "testing"

func TestSatisfiesRange(t *testing.T) {
	tests := []struct {
		version string
		rng     string
		want    bool
	}{
		{"1.0.0", "", true},
		{"", "", true},
		{"", "1", false},
		{"1.4.2", "1", true},
		{"2.0.0", "1", false},
		{"1.4.2", "^1.2.0", true},
		{"1.1.0", "^1.2.0", false},
		{"1.2.3", "1.2.3", true},
		{"1.2.4", "1.2.3", false},
		{"1.5.0", ">=1.0.0 <2.0.0", true},
		{"not-a-version", "1", false},
		{"1.0.0", "garbage!!", false},
	}
	for _, tt := range tests {
		if got := SatisfiesRange(tt.version, tt.rng); got != tt.want {
			t.Errorf("semver:resolver_test - SatisfiesRange(%q, %q) = %v, want %v", tt.version, tt.rng, got, tt.want)
		}
	}
}

func TestValidateVersion(t *testing.T) {
	if err := ValidateVersion("1.0.0"); err != nil {
		t.Errorf("semver:resolver_test - unexpected error: %v", err)
	}
	if err := ValidateVersion("one"); err == nil {
		t.Error("semver:resolver_test - expected error for invalid version")
	}
}
