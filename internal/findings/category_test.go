package findings

import (
	"testing"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"injection", CategoryInjection, true},
		{"SQL_INJECTION", CategoryInjection, true},
		{"sql injection", CategoryInjection, true},
		{"  xss  ", CategoryXSS, true},
		{"weak_crypto", CategoryWeakCrypto, true},
		{"weak-crypto", CategoryWeakCrypto, true},
		{"hardcoded_secrets", CategoryExposedSecret, true},
		{"broken_access_control", CategoryAccessControl, true},
		{"path_traversal", CategoryInputValidation, true},
		{"idor", CategoryAccessControl, true},
		{"buffer_overflow_of_doom", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeCategory(tt.input)
			if ok != tt.ok {
				t.Fatalf("NormalizeCategory(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategoriesAreAllValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.IsValid() {
			t.Errorf("category %q listed but not valid", c)
		}
	}
}
