package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
)

// Token verification failures. Handlers map ErrTokenExpired and
// ErrTokenInvalid to 401 with distinct messages.
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claim is the authenticated identity decoded from a bearer token.
type Claim struct {
	SubjectID string
	Role      string
	ExpiresAt time.Time
}

// Authorize performs a pure allow-list check of the claim's role. An empty
// allow-list permits any authenticated subject.
func (c Claim) Authorize(allowedRoles ...string) bool {
	if len(allowedRoles) == 0 {
		return true
	}
	for _, r := range allowedRoles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Load the secret from an environment variable. Fallback to a default (not recommended in production).
var secretKey = []byte(getSecret())

func getSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "cargo-dev-secret"
	}
	return secret
}

// GenerateToken creates a signed HS256 token with the given subject and role.
// The token expires after the specified duration.
func GenerateToken(subject, role string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken parses and validates a compact three-segment token and returns
// the claim it carries. Signature comparison is constant-time inside the
// HMAC verification.
func VerifyToken(tokenString string) (Claim, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return Claim{}, ErrTokenExpired
		}
		return Claim{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claim{}, ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Claim{}, ErrTokenInvalid
	}
	role, _ := claims["role"].(string)

	claim := Claim{SubjectID: sub, Role: role}
	if exp, ok := claims["exp"].(float64); ok {
		claim.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return claim, nil
}
