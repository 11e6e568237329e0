package auth

import (
	"errors"
	"strconv"
	"strings"
)

// RejectionObserver is told why a presented token was ignored. It does not
// influence the outcome; the caller is treated as anonymous either way.
type RejectionObserver interface {
	TokenRejected(reason FailureReason)
}

// RejectionObserverFunc adapts a function to RejectionObserver.
type RejectionObserverFunc func(reason FailureReason)

// TokenRejected calls f(reason).
func (f RejectionObserverFunc) TokenRejected(reason FailureReason) {
	f(reason)
}

// Resolver turns a presented bearer token into a Context.
type Resolver struct {
	tokens   *TokenManager
	observer RejectionObserver
}

// NewResolver builds a resolver. observer may be nil.
func NewResolver(tokens *TokenManager, observer RejectionObserver) *Resolver {
	return &Resolver{tokens: tokens, observer: observer}
}

// Resolve verifies token and returns the matching context. A missing or
// invalid token yields the anonymous context.
func (r *Resolver) Resolve(token string) *Context {
	if token == "" {
		return Anonymous()
	}

	decoded, err := r.tokens.ParseToken(token)
	if err != nil {
		var tokenErr *TokenError
		if errors.As(err, &tokenErr) {
			r.reject(tokenErr.Reason)
		} else {
			r.reject(ReasonMalformed)
		}
		return Anonymous()
	}

	subjectID, err := strconv.ParseInt(decoded.Subject, 10, 64)
	if err != nil {
		r.reject(ReasonInvalidClaims)
		return Anonymous()
	}
	return newContextFromSet(subjectID, decoded.Authorities)
}

// ResolveHeader resolves an Authorization header value of the form
// "Bearer <token>". Anything else is anonymous.
func (r *Resolver) ResolveHeader(header string) *Context {
	token, ok := BearerToken(header)
	if !ok {
		if strings.TrimSpace(header) != "" {
			r.reject(ReasonMalformed)
		}
		return Anonymous()
	}
	return r.Resolve(token)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func (r *Resolver) reject(reason FailureReason) {
	if r.observer != nil {
		r.observer.TokenRejected(reason)
	}
}
