package dataset

import (
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		key     string
		allowed bool
	}{
		{"own dataset", "alice", "alice/datasets/x.pkl", true},
		{"other owner", "alice", "bob/datasets/x.pkl", false},
		{"prefix is a whole segment", "alice", "alicegroup/datasets/x.pkl", false},
		{"empty caller", "", "alice/datasets/x.pkl", false},
		{"bare key", "alice", "x.pkl", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.caller, tt.key)
			if tt.allowed && err != nil {
				t.Errorf("Authorize(%q, %q) = %v, want nil", tt.caller, tt.key, err)
			}
			if !tt.allowed {
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("Authorize(%q, %q) = %v, want ErrForbidden", tt.caller, tt.key, err)
				}
			}
		})
	}
}
