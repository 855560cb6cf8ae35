package validator_test

import (
	"strings"
	"testing"

	"github.com/mlukic/agora/pkg/validator"
)

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantField string
	}{
		{"valid", "mika_77", "Sekret123", ""},
		{"empty username", "", "Sekret123", "username"},
		{"short username", "ab", "Sekret123", "username"},
		{"long username", strings.Repeat("a", 31), "Sekret123", "username"},
		{"bad characters", "mika!", "Sekret123", "username"},
		{"short password", "mika", "Ab1", "password"},
		{"no uppercase", "mika", "sekret123", "password"},
		{"no digit", "mika", "Sekretno", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidateRegister(tt.username, tt.password)
			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Fatalf("errors = %v, want one on %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name        string
		serverName  string
		description string
		wantField   string
	}{
		{"valid", "gophers", "a place to talk", ""},
		{"valid without description", "gophers", "", ""},
		{"empty name", "", "", "name"},
		{"whitespace name", "   ", "", "name"},
		{"short name", "g", "", "name"},
		{"long name", strings.Repeat("a", 51), "", "name"},
		{"long description", "gophers", strings.Repeat("a", 1001), "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidateServer(tt.serverName, tt.description)
			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Fatalf("errors = %v, want one on %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidateChannel(t *testing.T) {
	if errs := validator.ValidateChannel("general"); errs.HasErrors() {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs := validator.ValidateChannel(""); !errs.HasErrors() {
		t.Error("empty name should fail")
	}
	if errs := validator.ValidateChannel(strings.Repeat("a", 51)); !errs.HasErrors() {
		t.Error("over-long name should fail")
	}
}
