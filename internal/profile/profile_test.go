package profile

import (
	"testing"

	"github.com/qrvisit/qrvisit/internal/template"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"johndoe", "johndoe"},
		{"JohnDoe", "johndoe"},
		{"  johndoe  ", "johndoe"},
		{"\tJOHN_DOE\n", "john_doe"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeUsername(tt.in); got != tt.want {
				t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("is idempotent", func(t *testing.T) {
		for _, in := range []string{"JohnDoe", "  mixed_Case99 ", "plain"} {
			once := NormalizeUsername(in)
			if twice := NormalizeUsername(once); twice != once {
				t.Errorf("NormalizeUsername not idempotent for %q: %q != %q", in, once, twice)
			}
		}
	})
}

func TestValidUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"johndoe", true},
		{"john_doe_99", true},
		{"abc", true},
		{"a2345678901234567890", true},  // 20 chars
		{"a23456789012345678901", false}, // 21 chars
		{"ab", false},
		{"", false},
		{"JohnDoe", false},  // uppercase not allowed post-normalization
		{"john doe", false}, // spaces
		{"john-doe", false}, // hyphen
		{"jöhndoe", false},  // non-ascii
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			if got := ValidUsername(tt.username); got != tt.want {
				t.Errorf("ValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestContactInfo_Empty(t *testing.T) {
	var nilContact *ContactInfo
	if !nilContact.Empty() {
		t.Error("nil contact should be empty")
	}
	if !(&ContactInfo{}).Empty() {
		t.Error("zero contact should be empty")
	}
	if (&ContactInfo{Phone: "+1-555-0100"}).Empty() {
		t.Error("contact with phone should not be empty")
	}
}

func TestProfileCopy(t *testing.T) {
	t.Run("creates independent copy", func(t *testing.T) {
		original := Profile{
			OwnerID:  "uid-123",
			Username: "johndoe",
			FullName: "John Doe",
			Template: template.Classic,
			Contact:  &ContactInfo{Email: "john@example.com"},
			Links:    map[string]string{"github": "https://github.com/johndoe"},
			PremiumSocials: map[string]string{
				"instagram": "johndoe",
			},
			Services: []ServiceItem{{Title: "Consulting"}},
		}

		copied := original.Copy()

		if copied.Username != original.Username {
			t.Errorf("Username = %q, want %q", copied.Username, original.Username)
		}

		copied.Contact.Email = "other@example.com"
		if original.Contact.Email == "other@example.com" {
			t.Error("modifying copied contact should not affect original")
		}

		copied.Links["github"] = "mutated"
		if original.Links["github"] == "mutated" {
			t.Error("modifying copied links should not affect original")
		}

		copied.Services[0].Title = "mutated"
		if original.Services[0].Title == "mutated" {
			t.Error("modifying copied services should not affect original")
		}
	})

	t.Run("handles nil collections", func(t *testing.T) {
		original := Profile{OwnerID: "uid-123", Username: "johndoe"}

		copied := original.Copy()

		if copied.Contact != nil || copied.Links != nil || copied.Services != nil {
			t.Error("nil fields should stay nil in copy")
		}
	})
}

func TestErrorMessages(t *testing.T) {
	if ErrNotFound.Error() != "profile not found" {
		t.Errorf("ErrNotFound message = %q", ErrNotFound.Error())
	}
	if ErrUsernameTaken.Error() != "username is already taken" {
		t.Errorf("ErrUsernameTaken message = %q", ErrUsernameTaken.Error())
	}
}
