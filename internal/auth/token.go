package auth

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// TokenGate checks bearer tokens against a bcrypt hash. A gate built from an
// empty hash is disabled and accepts every request.
type TokenGate struct {
	hash []byte

	mu       sync.Mutex
	verified map[[sha256.Size]byte]struct{}
}

func NewTokenGate(hash string) (*TokenGate, error) {
	hash = strings.TrimSpace(hash)
	g := &TokenGate{verified: make(map[[sha256.Size]byte]struct{})}
	if hash == "" {
		return g, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse api token hash: %w", err)
	}
	g.hash = []byte(hash)
	return g, nil
}

func (g *TokenGate) Enabled() bool {
	return len(g.hash) > 0
}

// Check reports whether token matches the configured hash. Tokens that
// verified once are remembered by digest so bcrypt runs once per token.
func (g *TokenGate) Check(token string) bool {
	if !g.Enabled() {
		return true
	}
	if token == "" {
		return false
	}

	sum := sha256.Sum256([]byte(token))
	g.mu.Lock()
	_, ok := g.verified[sum]
	g.mu.Unlock()
	if ok {
		return true
	}

	if bcrypt.CompareHashAndPassword(g.hash, []byte(token)) != nil {
		return false
	}
	g.mu.Lock()
	g.verified[sum] = struct{}{}
	g.mu.Unlock()
	return true
}

// HashToken produces the value for SHOPLIST_API_TOKEN_HASH.
func HashToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("token must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}
