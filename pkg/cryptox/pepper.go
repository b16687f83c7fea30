package cryptox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrGeneratePepper returns the pepper stored at path, creating the file
// with a fresh random value when it does not exist yet. An empty path means
// no pepper.
//
// Losing this file invalidates every argon2id hash written with it, so it
// belongs next to the database backups.
func LoadOrGeneratePepper(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	path = filepath.Clean(path)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		return strings.TrimSpace(string(b)), nil
	case !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}

	pepper, err := GenerateToken(TokenSize256)
	if err != nil {
		return "", err
	}

	// O_EXCL so two replicas starting together cannot both write a pepper.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return LoadOrGeneratePepper(path)
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(pepper); err != nil {
		return "", err
	}
	return pepper, nil
}
