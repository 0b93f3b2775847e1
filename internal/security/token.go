package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	SelectorBytes      = 16
	AuthenticatorBytes = 32
	CSRFSecretBytes    = 32
	SessionIDBytes     = 32
)

var ErrMalformedCredential = errors.New("malformed credential")

// RandomHex returns n bytes from crypto/rand, hex encoded.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsHexToken reports whether s is the lowercase hex encoding of exactly n bytes.
func IsHexToken(s string, n int) bool {
	if len(s) != 2*n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// RememberPair is the clear-text remember-me credential handed to the client.
type RememberPair struct {
	Selector      string
	Authenticator string
}

func NewRememberPair() (RememberPair, error) {
	selector, err := RandomHex(SelectorBytes)
	if err != nil {
		return RememberPair{}, err
	}
	authenticator, err := RandomHex(AuthenticatorBytes)
	if err != nil {
		return RememberPair{}, err
	}
	return RememberPair{Selector: selector, Authenticator: authenticator}, nil
}

// String renders the cookie value "<selector>:<authenticator>".
func (p RememberPair) String() string {
	return p.Selector + ":" + p.Authenticator
}

// ParseRememberCookie accepts exactly one separator and two well-formed parts.
func ParseRememberCookie(raw string) (RememberPair, error) {
	if strings.Count(raw, ":") != 1 {
		return RememberPair{}, ErrMalformedCredential
	}
	selector, authenticator, _ := strings.Cut(raw, ":")
	if !IsHexToken(selector, SelectorBytes) || !IsHexToken(authenticator, AuthenticatorBytes) {
		return RememberPair{}, ErrMalformedCredential
	}
	return RememberPair{Selector: selector, Authenticator: authenticator}, nil
}
