// Package auth provides JWT token handling for the API edge. The scene core
// never sees tokens; it consumes the decoded principal only.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skylight-social/skylight/internal/principal"
)

// TokenExpiry is the lifetime of an issued token.
const TokenExpiry = 24 * time.Hour

// DefaultLeeway for clock skew during validation.
const DefaultLeeway = 30 * time.Second

// ErrInvalidToken is returned when token validation fails.
var ErrInvalidToken = errors.New("invalid token")

// ErrEmptyAccountID is returned when the account id is empty.
var ErrEmptyAccountID = errors.New("account id cannot be empty")

// Claims are the custom JWT claims carried by Skylight tokens.
type Claims struct {
	jwt.RegisteredClaims
	DisplayName string   `json:"name,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// JWTService signs and validates tokens. Supports dual-key rotation:
// tokens are signed with currentSecret but validate against either secret.
type JWTService struct {
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
}

// NewJWTService creates a JWTService with a single secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{currentSecret: []byte(secret), leeway: DefaultLeeway}
}

// NewJWTServiceWithRotation creates a JWTService that also accepts tokens
// signed with previousSecret. Pass an empty previous secret when no
// rotation is in progress.
func NewJWTServiceWithRotation(currentSecret, previousSecret string) *JWTService {
	svc := &JWTService{currentSecret: []byte(currentSecret), leeway: DefaultLeeway}
	if previousSecret != "" {
		svc.previousSecret = []byte(previousSecret)
	}
	return svc
}

// GenerateToken creates a signed token for an account.
func (s *JWTService) GenerateToken(accountID, displayName string, roles []string) (string, error) {
	if accountID == "" {
		return "", ErrEmptyAccountID
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
		DisplayName: displayName,
		Roles:       roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.currentSecret)
}

// ValidateToken verifies a token and returns the decoded principal.
func (s *JWTService) ValidateToken(tokenString string) (*principal.Principal, error) {
	claims, err := s.parse(tokenString, s.currentSecret)
	if err != nil && s.previousSecret != nil {
		claims, err = s.parse(tokenString, s.previousSecret)
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &principal.Principal{
		ID:          claims.Subject,
		DisplayName: claims.DisplayName,
		Roles:       claims.Roles,
	}, nil
}

func (s *JWTService) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return secret, nil
		},
		jwt.WithLeeway(s.leeway),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
