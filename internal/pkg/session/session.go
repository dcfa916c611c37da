package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidCookie is returned when a cookie value is malformed or its signature does not match.
var ErrInvalidCookie = errors.New("invalid session cookie")

const signedPrefix = "s:"

type signer interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// CodecConfig configures cookie issuance.
type CodecConfig struct {
	// Name is the cookie name.
	Name string
	// Signer produces the cookie signature.
	Signer signer
	// TTL is the cookie lifetime; it should match the server-side session TTL.
	TTL time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// Domain optionally scopes the cookie.
	Domain string
}

// Codec signs session ids into cookie values of the form "s:<sid>.<signature>".
type Codec struct {
	cfg CodecConfig
}

// NewCodec returns a Codec. An empty name defaults to "connect.sid".
func NewCodec(cfg CodecConfig) *Codec {
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "connect.sid"
	}
	return &Codec{cfg: cfg}
}

// Name returns the cookie name.
func (c *Codec) Name() string {
	return c.cfg.Name
}

// Encode returns the signed cookie value for sid.
func (c *Codec) Encode(sid string) (string, error) {
	sig, err := c.cfg.Signer.Hash(sid)
	if err != nil {
		return "", err
	}
	return signedPrefix + sid + "." + string(sig), nil
}

// Decode verifies a cookie value and returns the session id it carries.
func (c *Codec) Decode(value string) (string, error) {
	raw, ok := strings.CutPrefix(value, signedPrefix)
	if !ok {
		return "", ErrInvalidCookie
	}

	i := strings.LastIndexByte(raw, '.')
	if i <= 0 || i == len(raw)-1 {
		return "", ErrInvalidCookie
	}

	sid, sig := raw[:i], raw[i+1:]
	if !c.cfg.Signer.Verify(sig, sid) {
		return "", ErrInvalidCookie
	}

	return sid, nil
}

// Cookie builds the cookie that carries sid to the client.
func (c *Codec) Cookie(sid string) (*http.Cookie, error) {
	value, err := c.Encode(sid)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   int(c.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Clear builds a cookie that removes the session cookie from the client.
func (c *Codec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type sessionContextKey struct{}

// SetID stores a verified session id in ctx.
func SetID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sid)
}

// GetID returns the verified session id in ctx, or an empty string.
func GetID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionContextKey{}).(string)
	return sid
}
