package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims shared by the hosted service and local mode.
// Subject carries the user id.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	Role         string       `json:"role,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata,omitzero"`
	jwt.RegisteredClaims
}

// UserMetadata holds identity fields copied from the OAuth provider.
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// TokenExpiry is the lifetime of locally issued access tokens.
const TokenExpiry = 24 * time.Hour

// GenerateToken issues an HS256 access token for a local account.
func GenerateToken(secret, userID, email, fullName string) (string, *Claims, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", nil, fmt.Errorf("generating JTI: %w", err)
	}

	now := time.Now()
	claims := &Claims{
		Email:        email,
		Role:         "authenticated",
		UserMetadata: UserMetadata{FullName: fullName},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken parses and validates an HS256 access token, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}

// PeekToken reads an access token's claims without checking the signature.
// It is used for tokens issued by the hosted service when no signing secret
// is configured; the service itself remains the authority on validity.
func PeekToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	return claims, nil
}

// ParseAccessToken validates the token when secret is set and peeks otherwise.
func ParseAccessToken(secret, tokenStr string) (*Claims, error) {
	if secret != "" {
		return ValidateToken(secret, tokenStr)
	}
	return PeekToken(tokenStr)
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
