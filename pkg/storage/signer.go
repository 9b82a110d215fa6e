package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token errors.
var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// Grant is the verified content of a download token.
type Grant struct {
	Ref       string
	Path      string
	ExpiresAt time.Time
}

// Signer issues HMAC-SHA256 tokens granting time-limited access to a stored file.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer. A non-positive ttl defaults to one hour.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token of the form ref.expiry.path.signature.
func (s *Signer) Sign(ref, path string) (string, time.Time, error) {
	if ref == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("ref and path required")
	}
	if strings.Contains(ref, ".") {
		return "", time.Time{}, fmt.Errorf("ref must not contain dots")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	sig := s.mac(ref, exp, encodedPath)
	return strings.Join([]string{ref, exp, encodedPath, sig}, "."), expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *Signer) Verify(token string) (Grant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Grant{}, ErrTokenMalformed
	}
	ref, exp, encodedPath, sig := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(ref, exp, encodedPath)), []byte(sig)) {
		return Grant{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return Grant{}, ErrTokenMalformed
	}
	path, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return Grant{}, ErrTokenMalformed
	}
	grant := Grant{Ref: ref, Path: string(path), ExpiresAt: time.Unix(unix, 0).UTC()}
	if s.now().After(grant.ExpiresAt) {
		return grant, ErrTokenExpired
	}
	return grant, nil
}

func (s *Signer) mac(ref, exp, encodedPath string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(ref + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(h.Sum(nil))
}
