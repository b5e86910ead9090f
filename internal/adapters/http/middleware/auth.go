package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"league/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const accountContextKey contextKey = "account"

// DefaultAuthCookie holds the access token for browser form posts.
const DefaultAuthCookie = "league_access_token"

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid access token")

// Claims is the access-token payload issued by the auth provider.
type Claims struct {
	Email         string `json:"email"`
	Role          string `json:"league_role"`
	AssociationID string `json:"association_id"`
	ClubID        string `json:"club_id,omitempty"`
	PlatformAdmin bool   `json:"platform_admin,omitempty"`
	jwtlib.RegisteredClaims
}

// Verifier checks HS256 access tokens.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	cookie   string
}

// NewVerifier creates a verifier. Empty issuer or audience are not checked.
func NewVerifier(secret, issuer, audience, cookie string) *Verifier {
	if cookie == "" {
		cookie = DefaultAuthCookie
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, audience: audience, cookie: cookie}
}

// Parse verifies a token and returns the account it describes.
// PRE: token is a compact JWS
// POST: Returns a validated account or an error wrapping ErrInvalidToken
func (v *Verifier) Parse(token string) (account.Account, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwtlib.WithAudience(v.audience))
	}

	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return account.Account{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return account.Account{}, ErrInvalidToken
	}

	acct := account.Account{
		ID:            claims.Subject,
		Email:         claims.Email,
		Role:          claims.Role,
		AssociationID: claims.AssociationID,
		ClubID:        claims.ClubID,
		PlatformAdmin: claims.PlatformAdmin,
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return acct, nil
}

// Issue signs a token for acct. The auth provider issues real tokens; this is
// used by local tooling and tests.
func (v *Verifier) Issue(acct account.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:         acct.Email,
		Role:          acct.Role,
		AssociationID: acct.AssociationID,
		ClubID:        acct.ClubID,
		PlatformAdmin: acct.PlatformAdmin,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   acct.ID,
			Issuer:    v.issuer,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	if v.audience != "" {
		claims.Audience = jwtlib.ClaimStrings{v.audience}
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(v.secret)
}

// tokenFromRequest reads a Bearer header first, then the auth cookie.
func (v *Verifier) tokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	if c, err := r.Cookie(v.cookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// Auth returns middleware that verifies the access token and sets the account in context.
// It does NOT block unauthenticated requests; RequireAuth and RequireRole do that.
// Requests carrying an invalid token are treated as anonymous.
func Auth(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := v.tokenFromRequest(r)
			if token != "" {
				acct, err := v.Parse(token)
				if err != nil {
					slog.Debug("auth_event", "event", "token_rejected", "path", r.URL.Path, "error", err)
				} else {
					ctx := ContextWithAccount(r.Context(), acct)
					if !fromCookie {
						ctx = context.WithValue(ctx, bearerContextKey, true)
					}
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const bearerContextKey contextKey = "bearer"

// isBearer reports whether the request authenticated with an Authorization header.
func isBearer(r *http.Request) bool {
	v, _ := r.Context().Value(bearerContextKey).(bool)
	return v
}

// RequireAuth returns middleware that blocks unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AccountFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that blocks requests from accounts without one
// of the specified roles. Platform admins always pass.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acct, ok := AccountFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !acct.PlatformAdmin && !roleSet[acct.Role] {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePlatformAdmin blocks everyone except platform admins.
func RequirePlatformAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !acct.PlatformAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccountFromContext extracts the authenticated account from the request context.
func AccountFromContext(ctx context.Context) (account.Account, bool) {
	acct, ok := ctx.Value(accountContextKey).(account.Account)
	return acct, ok
}

// ContextWithAccount returns a context with the given account set.
func ContextWithAccount(ctx context.Context, acct account.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acct)
}

// IsRole checks if the current account has one of the given roles.
func IsRole(ctx context.Context, roles ...string) bool {
	acct, ok := AccountFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if acct.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin checks if the current account is an association admin.
func IsAdmin(ctx context.Context) bool {
	return IsRole(ctx, account.RoleAdmin)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
