package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/config"
)

// ErrGuestTokenInvalid signals that a presented identification token could
// not be verified. Callers mint a fresh identification instead of failing.
var ErrGuestTokenInvalid = errors.New("auth: guest identification token invalid")

type guestClaims struct {
	Identification string `json:"idn"`
	jwt.RegisteredClaims
}

// GuestTokens mints and verifies the signed identification cookie that keeps
// anonymous visitors stable across requests. Tokens are HS256-signed JWTs
// carrying the opaque identification as a private claim.
type GuestTokens struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// GuestTokensOption customises GuestTokens behaviour.
type GuestTokensOption func(*GuestTokens)

// WithGuestClock injects a custom time source (useful for tests).
func WithGuestClock(now func() time.Time) GuestTokensOption {
	return func(t *GuestTokens) {
		if now != nil {
			t.now = now
		}
	}
}

// WithGuestSecureCookies toggles the Secure attribute on issued cookies.
func WithGuestSecureCookies(secure bool) GuestTokensOption {
	return func(t *GuestTokens) {
		t.secure = secure
	}
}

// NewGuestTokens constructs a GuestTokens helper from configuration.
func NewGuestTokens(cfg config.GuestTokenConfig, opts ...GuestTokensOption) (*GuestTokens, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: guest token secret is required")
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		return nil, errors.New("auth: guest cookie name is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("auth: guest token ttl must be positive")
	}

	tokens := &GuestTokens{
		secret:     []byte(secret),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     true,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(tokens)
		}
	}
	return tokens, nil
}

// Issue signs a token carrying the given identification.
func (t *GuestTokens) Issue(identification domain.Identification) (string, error) {
	if identification.IsZero() {
		return "", errors.New("auth: identification is required")
	}
	now := t.now()
	claims := guestClaims{
		Identification: identification.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token and returns the identification it carries.
func (t *GuestTokens) Verify(tokenStr string) (domain.Identification, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	claims := &guestClaims{}
	if _, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}); err != nil {
		return "", ErrGuestTokenInvalid
	}
	identification := domain.ParseIdentification(claims.Identification)
	if identification.IsZero() {
		return "", ErrGuestTokenInvalid
	}
	return identification, nil
}

// Cookie wraps the signed token in the identification cookie.
func (t *GuestTokens) Cookie(tokenStr string) *http.Cookie {
	return &http.Cookie{
		Name:     t.cookieName,
		Value:    tokenStr,
		Path:     "/",
		Expires:  t.now().Add(t.ttl),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieName returns the name of the identification cookie.
func (t *GuestTokens) CookieName() string { return t.cookieName }

type identificationContextKey struct{}

// WithIdentification stores the visitor identification on the context.
func WithIdentification(ctx context.Context, identification domain.Identification) context.Context {
	return context.WithValue(ctx, identificationContextKey{}, identification)
}

// IdentificationFromContext retrieves the visitor identification from context.
func IdentificationFromContext(ctx context.Context) (domain.Identification, bool) {
	identification, ok := ctx.Value(identificationContextKey{}).(domain.Identification)
	if !ok || identification.IsZero() {
		return "", false
	}
	return identification, true
}

// IdentificationMiddleware guarantees every request carries an
// identification. A valid cookie is honoured; anything else gets a freshly
// minted identification and a replacement cookie.
func (t *GuestTokens) IdentificationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identification domain.Identification

			if cookie, err := r.Cookie(t.cookieName); err == nil {
				if parsed, err := t.Verify(cookie.Value); err == nil {
					identification = parsed
				}
			}

			if identification.IsZero() {
				identification = domain.NewIdentification()
				if signed, err := t.Issue(identification); err == nil {
					http.SetCookie(w, t.Cookie(signed))
				}
			}

			ctx := WithIdentification(r.Context(), identification)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
