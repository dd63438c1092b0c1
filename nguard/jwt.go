package nguard

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/muir/nctl/nreply"
	"github.com/pkg/errors"
)

// JWTConfig carries the shared secret used to verify bearer tokens.
// Register one in the nctl.Registry so that NewJWTSecurity can be
// constructed from it.
type JWTConfig struct {
	Secret string
}

// JWTSecurity is an authenticator that requires a valid HMAC-signed
// JWT in the Authorization header:
//
//	Authorization: Bearer <token>
//
// Any failure is reported as nreply.InvalidCredentials (401).
type JWTSecurity struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTSecurity is a constructor suitable for an nctl.Manifest
func NewJWTSecurity(cfg JWTConfig) (*JWTSecurity, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTSecurity{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		})),
	}, nil
}

// Authenticate checks the request's bearer token
func (s *JWTSecurity) Authenticate(r *http.Request) error {
	_, err := s.Claims(r)
	return err
}

// Claims verifies the request's bearer token and returns its claims
func (s *JWTSecurity) Claims(r *http.Request) (jwt.MapClaims, error) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, nreply.InvalidCredentials()
	}
	return s.Verify(token)
}

// Verify checks a raw token string
func (s *JWTSecurity) Verify(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, nreply.InvalidCredentials()
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
