package jwtx

import "errors"

// Verifier validates a token of the given kind and returns its claims.
type Verifier interface {
	Verify(token string, kind TokenKind) (Claims, error)
}

// Signer mints tokens for an identity.
type Signer interface {
	SignAccess(id Identity) (string, error)
	SignRefresh(id Identity) (string, error)
}

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and claims that
	// do not belong to the expected token kind.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	// ErrExpired is only returned for tokens whose signature and claims are
	// otherwise valid.
	ErrExpired = errors.New("jwtx: token expired")

	ErrWeakSecret = errors.New("jwtx: signing secret too short")
	ErrInvalidTTL = errors.New("jwtx: invalid token ttl")
)
