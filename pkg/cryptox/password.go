package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password does not match")
	ErrUnsupportedHash  = errors.New("cryptox: unsupported hash format")
	ErrInvalidParams    = errors.New("cryptox: invalid hashing parameters")
)

// Argon2Params are the argon2id work factors. They are written into every
// PHC string, so changing them only affects new hashes.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// MaxArgon2MemoryKiB bounds the memory a stored hash may ask for (1 GiB).
const MaxArgon2MemoryKiB = 1 << 20

// DefaultArgon2Params follows the OWASP minimum for argon2id (19 MiB, t=2, p=1).
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKiB:   19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Argon2Params) validate() error {
	switch {
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return fmt.Errorf("%w: memory must be at least 8*parallelism KiB", ErrInvalidParams)
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations must be >= 1", ErrInvalidParams)
	case p.Parallelism < 1:
		return fmt.Errorf("%w: parallelism must be >= 1", ErrInvalidParams)
	case p.SaltLength < 8:
		return fmt.Errorf("%w: salt length must be >= 8", ErrInvalidParams)
	case p.KeyLength < 16:
		return fmt.Errorf("%w: key length must be >= 16", ErrInvalidParams)
	case p.MemoryKiB > MaxArgon2MemoryKiB:
		return fmt.Errorf("%w: memory must be at most %d KiB", ErrInvalidParams, MaxArgon2MemoryKiB)
	}
	return nil
}

// PasswordHasher hashes new passwords with argon2id and verifies both
// argon2id PHC strings and bcrypt hashes. The pepper is mixed into argon2id
// only; bcrypt hashes are verified as they were written.
type PasswordHasher struct {
	argon2     Argon2Params
	bcryptCost int
	pepper     string
}

// NewPasswordHasher validates the parameters up front so a bad deployment
// value fails at startup rather than on the first login.
func NewPasswordHasher(params Argon2Params, bcryptCost int, pepper string) (*PasswordHasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost must be in [%d, %d]", ErrInvalidParams, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &PasswordHasher{
		argon2:     params,
		bcryptCost: bcryptCost,
		pepper:     pepper,
	}, nil
}

// Hash returns a PHC-format argon2id string:
// $argon2id$v=19$m=<kib>,t=<iterations>,p=<parallelism>$<salt>$<hash>
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.argon2.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	sum := argon2.IDKey(
		[]byte(password+h.pepper),
		salt,
		h.argon2.Iterations,
		h.argon2.MemoryKiB,
		h.argon2.Parallelism,
		h.argon2.KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.argon2.MemoryKiB,
		h.argon2.Iterations,
		h.argon2.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// HashBcrypt produces a bcrypt hash at the configured cost. Kept for
// accounts that must stay readable by older tooling.
func (h *PasswordHasher) HashBcrypt(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares password against encoded, which may be argon2id or bcrypt.
// It returns nil on a match and ErrPasswordMismatch otherwise.
func (h *PasswordHasher) Verify(password, encoded string) error {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return h.verifyArgon2(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	default:
		return ErrUnsupportedHash
	}
}

func (h *PasswordHasher) verifyArgon2(password, encoded string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return fmt.Errorf("%w: expected 6 parts", ErrUnsupportedHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return fmt.Errorf("%w: wrong argon2 version", ErrUnsupportedHash)
	}

	var (
		mem, iters uint32
		par        uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrUnsupportedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrUnsupportedHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return fmt.Errorf("%w: hash: %v", ErrUnsupportedHash, err)
	}

	stored := Argon2Params{
		MemoryKiB:   mem,
		Iterations:  iters,
		Parallelism: par,
		SaltLength:  uint32(len(salt)), // #nosec G115 -- decoded from a short field
		KeyLength:   uint32(len(want)), // #nosec G115 -- decoded from a short field
	}
	if err := stored.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
	}
	if mem > MaxArgon2MemoryKiB {
		return fmt.Errorf("%w: memory %d KiB exceeds %d", ErrUnsupportedHash, mem, MaxArgon2MemoryKiB)
	}

	got := argon2.IDKey(
		[]byte(password+h.pepper),
		salt,
		iters,
		mem,
		par,
		uint32(len(want)), // #nosec G115 -- length comes from a decoded hash
	)

	if subtle.ConstantTimeCompare(got, want) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}
