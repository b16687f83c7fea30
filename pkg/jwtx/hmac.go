package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HS256 secret size in bytes.
const MinSecretLength = 32

// HMACOptions configures an HMACSigner.
type HMACOptions struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Issuer is written to and required on every token. Empty disables it.
	Issuer string

	// Leeway tolerates clock skew between replicas on exp and nbf.
	Leeway time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// HMACSigner signs and verifies HS256 tokens with one secret per token kind.
// It holds no mutable state and is safe for concurrent use.
type HMACSigner struct {
	keys   map[TokenKind][]byte
	ttls   map[TokenKind]time.Duration
	issuer string
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

var (
	_ Signer   = (*HMACSigner)(nil)
	_ Verifier = (*HMACSigner)(nil)
)

func NewHMACSigner(opts HMACOptions) (*HMACSigner, error) {
	if len(opts.AccessSecret) < MinSecretLength {
		return nil, fmt.Errorf("%w: access secret has %d bytes, need %d", ErrWeakSecret, len(opts.AccessSecret), MinSecretLength)
	}
	if len(opts.RefreshSecret) < MinSecretLength {
		return nil, fmt.Errorf("%w: refresh secret has %d bytes, need %d", ErrWeakSecret, len(opts.RefreshSecret), MinSecretLength)
	}
	if opts.AccessTTL < 0 || opts.RefreshTTL < 0 {
		return nil, ErrInvalidTTL
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &HMACSigner{
		keys: map[TokenKind][]byte{
			KindAccess:  opts.AccessSecret,
			KindRefresh: opts.RefreshSecret,
		},
		ttls: map[TokenKind]time.Duration{
			KindAccess:  opts.AccessTTL,
			KindRefresh: opts.RefreshTTL,
		},
		issuer: opts.Issuer,
		leeway: opts.Leeway,
		now:    now,
		// Claims are validated by hand after the signature check so that
		// expiry is reported last.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (s *HMACSigner) SignAccess(id Identity) (string, error)  { return s.sign(id, KindAccess) }
func (s *HMACSigner) SignRefresh(id Identity) (string, error) { return s.sign(id, KindRefresh) }

// TTL returns the configured lifetime for kind.
func (s *HMACSigner) TTL(kind TokenKind) time.Duration { return s.ttls[kind] }

func (s *HMACSigner) sign(id Identity, kind TokenKind) (string, error) {
	if id.Subject == "" || id.Email == "" || !id.Role.Valid() {
		return "", fmt.Errorf("jwtx: refusing to sign incomplete identity")
	}

	claims := NewClaims(id, kind, s.ttls[kind], s.issuer, s.now())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.keys[kind])
	if err != nil {
		return "", fmt.Errorf("jwtx: sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks the signature with the secret for kind, then the claims.
// It returns ErrExpired when everything but exp is valid, and ErrInvalidToken
// for anything else.
func (s *HMACSigner) Verify(raw string, kind TokenKind) (Claims, error) {
	key, ok := s.keys[kind]
	if !ok {
		return Claims{}, fmt.Errorf("%w: unknown token kind %q", ErrInvalidToken, kind)
	}

	var claims Claims
	token, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	now := s.now()
	if err := claims.validate(kind, s.issuer, now, s.leeway); err != nil {
		return Claims{}, err
	}
	if claims.expired(now, s.leeway) {
		return Claims{}, ErrExpired
	}

	return claims, nil
}
