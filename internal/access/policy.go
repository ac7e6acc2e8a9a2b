// Package access decides who may log in and who may change an event.
package access

import (
	"strings"

	"schoolcal/internal/models"
)

// RejectedMessage is shown on the login page when an account is not admitted.
const RejectedMessage = "허가되지 않은 계정입니다."

// Policy holds the normalised allowlists. All comparisons are case-insensitive.
type Policy struct {
	admins  map[string]struct{}
	emails  map[string]struct{}
	domains map[string]struct{}
}

// NewPolicy builds a Policy from raw allowlist entries. Blank entries are ignored.
func NewPolicy(adminEmails, allowedEmails, allowedDomains []string) *Policy {
	return &Policy{
		admins:  toSet(adminEmails),
		emails:  toSet(allowedEmails),
		domains: toSet(allowedDomains),
	}
}

// IsAdmin reports whether email is on the admin list.
func (p *Policy) IsAdmin(email string) bool {
	_, ok := p.admins[normalize(email)]
	return ok
}

// Admit reports whether an identity with this email may log in.
// Admins and explicitly allowed emails always pass; otherwise the domain must be
// allowed, and the domain check is skipped when no domains are configured.
func (p *Policy) Admit(email string) bool {
	e := normalize(email)
	if e == "" {
		return false
	}
	if _, ok := p.admins[e]; ok {
		return true
	}
	if _, ok := p.emails[e]; ok {
		return true
	}
	if len(p.domains) == 0 {
		return true
	}
	_, ok := p.domains[domainOf(e)]
	return ok
}

// Materialize returns id with IsAdmin recomputed from the current lists.
func (p *Policy) Materialize(id models.Identity) models.Identity {
	id.IsAdmin = p.IsAdmin(id.Email)
	return id
}

// CanModify reports whether id may edit or delete ev: the creator or an admin.
func (p *Policy) CanModify(id models.Identity, ev models.Event) bool {
	if p.IsAdmin(id.Email) {
		return true
	}
	owner := normalize(ev.CreatedByEmail)
	return owner != "" && owner == normalize(id.Email)
}

func domainOf(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if n := normalize(v); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
