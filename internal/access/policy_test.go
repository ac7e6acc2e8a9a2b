package access

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"schoolcal/internal/models"
)

func TestIsAdmin(t *testing.T) {
	p := NewPolicy([]string{" Principal@School.ac.kr ", ""}, nil, nil)

	tests := []struct {
		email string
		want  bool
	}{
		{"principal@school.ac.kr", true},
		{"PRINCIPAL@SCHOOL.AC.KR", true},
		{"teacher@school.ac.kr", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.IsAdmin(tt.email); got != tt.want {
			t.Errorf("IsAdmin(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name    string
		policy  *Policy
		email   string
		allowed bool
	}{
		{"no domains configured", NewPolicy(nil, nil, nil), "anyone@gmail.com", true},
		{"domain allowed", NewPolicy(nil, nil, []string{"school.ac.kr"}), "t@School.ac.kr", true},
		{"domain rejected", NewPolicy(nil, nil, []string{"school.ac.kr"}), "t@gmail.com", false},
		{"explicit email bypasses domain", NewPolicy(nil, []string{"Parent@gmail.com"}, []string{"school.ac.kr"}), "parent@gmail.com", true},
		{"admin bypasses domain", NewPolicy([]string{"boss@gmail.com"}, nil, []string{"school.ac.kr"}), "Boss@Gmail.com", true},
		{"empty email", NewPolicy(nil, nil, nil), "  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Admit(tt.email); got != tt.allowed {
				t.Errorf("Admit(%q) = %v, want %v", tt.email, got, tt.allowed)
			}
		})
	}
}

func TestCanModify(t *testing.T) {
	p := NewPolicy([]string{"admin@school.ac.kr"}, nil, nil)
	ev := models.Event{ID: "e1", CreatedByEmail: "Owner@School.ac.kr"}

	if !p.CanModify(models.Identity{Email: "owner@school.ac.kr"}, ev) {
		t.Error("owner should be able to modify own event regardless of case")
	}
	if !p.CanModify(models.Identity{Email: "admin@school.ac.kr"}, ev) {
		t.Error("admin should be able to modify any event")
	}
	if p.CanModify(models.Identity{Email: "other@school.ac.kr"}, ev) {
		t.Error("non-owner, non-admin must be denied")
	}
	if p.CanModify(models.Identity{Email: ""}, models.Event{ID: "legacy"}) {
		t.Error("empty email must not match an event without owner")
	}
}

func TestMaterializeRecomputesAdmin(t *testing.T) {
	p := NewPolicy([]string{"admin@school.ac.kr"}, nil, nil)

	got := p.Materialize(models.Identity{Email: "teacher@school.ac.kr", IsAdmin: true})
	if got.IsAdmin {
		t.Error("stale admin flag must be cleared")
	}
	got = p.Materialize(models.Identity{Email: "ADMIN@school.ac.kr"})
	if !got.IsAdmin {
		t.Error("admin flag must be derived from the list")
	}
}

// TestProperty_NonOwnerDenied: an identity whose email differs from the
// creator's and is not an admin can never modify the event.
func TestProperty_NonOwnerDenied(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	p := NewPolicy([]string{"admin@school.ac.kr"}, nil, nil)

	properties.Property("non-owner non-admin is denied", prop.ForAll(
		func(owner, requester string) bool {
			ownerEmail := owner + "@school.ac.kr"
			requesterEmail := requester + "@school.ac.kr"
			if strings.EqualFold(ownerEmail, requesterEmail) || p.IsAdmin(requesterEmail) {
				return true
			}
			ev := models.Event{ID: "e", CreatedByEmail: ownerEmail}
			return !p.CanModify(models.Identity{Email: requesterEmail}, ev)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("owner is allowed under any casing", prop.ForAll(
		func(owner string) bool {
			ownerEmail := owner + "@school.ac.kr"
			ev := models.Event{ID: "e", CreatedByEmail: ownerEmail}
			return p.CanModify(models.Identity{Email: strings.ToUpper(ownerEmail)}, ev)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
