package auth

import (
	"fmt"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// PolicyKind selects the rule a Policy applies.
type PolicyKind int

const (
	policyUnset PolicyKind = iota
	PolicyPublic
	PolicyAuthenticated
	PolicyAuthority
	PolicyOwnerOrAuthority
)

// Policy is the access rule attached to a single operation. The zero value
// denies every caller.
type Policy struct {
	Kind      PolicyKind
	Authority domain.Authority
	// OwnerParam names the route parameter holding the resource owner's id.
	OwnerParam string
}

// Public admits every caller, anonymous included.
func Public() Policy {
	return Policy{Kind: PolicyPublic}
}

// RequireAuthenticated admits any resolved subject.
func RequireAuthenticated() Policy {
	return Policy{Kind: PolicyAuthenticated}
}

// RequireAuthority admits subjects carrying a.
func RequireAuthority(a domain.Authority) Policy {
	return Policy{Kind: PolicyAuthority, Authority: a}
}

// RequireOwnerOrAuthority admits the resource owner, or any subject
// carrying a. ownerParam is the route parameter bound as the owner id.
func RequireOwnerOrAuthority(a domain.Authority, ownerParam string) Policy {
	return Policy{Kind: PolicyOwnerOrAuthority, Authority: a, OwnerParam: ownerParam}
}

func (p Policy) String() string {
	switch p.Kind {
	case PolicyPublic:
		return "public"
	case PolicyAuthenticated:
		return "authenticated"
	case PolicyAuthority:
		return fmt.Sprintf("authority:%s", p.Authority)
	case PolicyOwnerOrAuthority:
		return fmt.Sprintf("owner_or_authority:%s", p.Authority)
	default:
		return "deny"
	}
}

// Evaluate reports whether ac satisfies p. resourceOwnerID is nil when the
// operation has no owner binding. A nil context is anonymous.
func Evaluate(p Policy, ac *Context, resourceOwnerID *int64) bool {
	switch p.Kind {
	case PolicyPublic:
		return true
	case PolicyAuthenticated:
		return !ac.IsAnonymous()
	case PolicyAuthority:
		return !ac.IsAnonymous() && ac.HasAuthority(p.Authority)
	case PolicyOwnerOrAuthority:
		if ac.IsAnonymous() {
			return false
		}
		if resourceOwnerID != nil && ac.OwnerIDMatches(*resourceOwnerID) {
			return true
		}
		return ac.HasAuthority(p.Authority)
	default:
		return false
	}
}
