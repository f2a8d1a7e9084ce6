package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// AuthService issues and validates bearer tokens for the API. The service
// is single-operator: a configured access key is exchanged for a
// short-lived JWT instead of maintaining user accounts.
type AuthService struct {
	jwtSecret     string
	accessKeyHash []byte
	tokenExpiry   time.Duration
}

func NewAuthService(jwtSecret, accessKey string, tokenExpiry time.Duration) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(accessKey), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		jwtSecret:     jwtSecret,
		accessKeyHash: hash,
		tokenExpiry:   tokenExpiry,
	}, nil
}

// VerifyAccessKey compares a presented key against the configured one.
func (a *AuthService) VerifyAccessKey(accessKey string) error {
	return bcrypt.CompareHashAndPassword(a.accessKeyHash, []byte(accessKey))
}

// GenerateToken issues a signed token for an authenticated client.
func (a *AuthService) GenerateToken() (string, error) {
	claims := jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(a.tokenExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.jwtSecret))
}

// ValidateToken checks the signature and expiry of a presented token.
func (a *AuthService) ValidateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.jwtSecret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
