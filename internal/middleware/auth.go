package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"swipe/interview/internal/utils"
)

// RoleInterviewer is the only role allowed on the dashboard endpoints. Tokens
// without a role claim are accepted.
const RoleInterviewer = "interviewer"

const interviewerKey contextKey = "interviewer"

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrWrongRole         = errors.New("token is not issued to an interviewer")
)

// InterviewerClaims are the claims read from dashboard tokens.
type InterviewerClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseInterviewerToken validates an HS256 bearer token from r. Websocket
// clients that cannot set headers may pass it as ?access_token=.
func ParseInterviewerToken(r *http.Request, secret string) (*InterviewerClaims, error) {
	var raw string
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return nil, ErrMissingAuthHeader
		}
		raw = token
	} else {
		raw = r.URL.Query().Get("access_token")
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingAuthHeader
	}

	claims := &InterviewerClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Role != "" && claims.Role != RoleInterviewer {
		return nil, ErrWrongRole
	}
	return claims, nil
}

// RequireInterviewer guards interviewer endpoints. An empty secret disables
// the check.
func RequireInterviewer(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ParseInterviewerToken(r, secret)
			switch {
			case errors.Is(err, ErrWrongRole):
				utils.Error(w, http.StatusForbidden, "forbidden", err.Error())
				return
			case err != nil:
				logger.Debug("interviewer auth rejected", zap.String("path", r.URL.Path), zap.Error(err))
				utils.Error(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), interviewerKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Interviewer returns the authenticated subject, or "" when auth is disabled.
func Interviewer(ctx context.Context) string {
	sub, _ := ctx.Value(interviewerKey).(string)
	return sub
}
