package auth

import "github.com/spec-kit/storefront-auth/internal/domain"

// Context is the caller identity resolved for a single request. It is
// built once per request and never shared.
type Context struct {
	subjectID     int64
	authenticated bool
	authorities   domain.AuthoritySet
}

// Anonymous returns a context with no subject and no authorities.
func Anonymous() *Context {
	return &Context{authorities: domain.AuthoritySet{}}
}

// NewContext returns an authenticated context for subjectID.
func NewContext(subjectID int64, authorities ...domain.Authority) *Context {
	return &Context{
		subjectID:     subjectID,
		authenticated: true,
		authorities:   domain.NewAuthoritySet(authorities...),
	}
}

func newContextFromSet(subjectID int64, authorities domain.AuthoritySet) *Context {
	if authorities == nil {
		authorities = domain.AuthoritySet{}
	}
	return &Context{subjectID: subjectID, authenticated: true, authorities: authorities}
}

// SubjectID returns the caller's id; ok is false for anonymous callers.
func (c *Context) SubjectID() (id int64, ok bool) {
	if c == nil || !c.authenticated {
		return 0, false
	}
	return c.subjectID, true
}

// IsAnonymous reports whether no subject was resolved.
func (c *Context) IsAnonymous() bool {
	return c == nil || !c.authenticated
}

// OwnerIDMatches reports whether the caller is the given owner.
func (c *Context) OwnerIDMatches(ownerID int64) bool {
	id, ok := c.SubjectID()
	return ok && id == ownerID
}

// HasAuthority reports whether the caller carries a.
func (c *Context) HasAuthority(a domain.Authority) bool {
	if c == nil {
		return false
	}
	return c.authorities.Has(a)
}

// Authorities returns the caller's authorities sorted by name.
func (c *Context) Authorities() []domain.Authority {
	if c == nil {
		return []domain.Authority{}
	}
	return c.authorities.Slice()
}
