package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"studio-live/errors"
)

const issuer = "studio-live"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

// TokenService verifies the connect-time credential. Token issuance belongs
// to the external auth collaborator; Generate exists for the tester CLI and
// test fixtures.
type TokenService struct {
	secret        []byte
	tokenDuration time.Duration
}

func NewTokenService(secret string, tokenDuration time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), tokenDuration: tokenDuration}
}

// Generate creates a signed JWT for a specific user.
func (s *TokenService) Generate(userID string, admin bool) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := &CustomClaims{
		UserID: userID,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	// HS256: HMAC with SHA256, signed with the server's secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates the signature and expiration of a JWT string.
func (s *TokenService) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.ErrInvalidToken
}
