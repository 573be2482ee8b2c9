package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/filex"
)

var ErrNotLoggedIn = errors.New("not logged in")

// TokenStore keeps the session token between invocations in a file only the
// current user can read.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

func (s *TokenStore) Save(token string) error {
	if err := filex.WritePrivate(s.path, []byte(token+"\n")); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
