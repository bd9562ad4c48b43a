package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeAccess is recorded on issued tokens and in the revocation store.
const TokenTypeAccess = "access"

// Claims is the payload of an issued access token. The role and person id
// are embedded so authorization needs no database round trip; the jti
// uniquely identifies the token for revocation.
type Claims struct {
	jwt.RegisteredClaims
	Role      Role   `json:"role"`
	PersonID  int64  `json:"person_id,omitempty"`
	TokenType string `json:"type"`
}

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// IssueToken signs an HS256 access token for the given user account.
func IssueToken(secret []byte, ttl time.Duration, userID int64, role Role, personID int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      role,
		PersonID:  personID,
		TokenType: TokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and returns its claims. Expiry is reported as
// ErrTokenExpired so the middleware can answer with a distinct message; any
// other failure maps to ErrTokenInvalid.
func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ActorFromClaims converts token claims to the Actor placed on the request
// context.
func ActorFromClaims(claims *Claims) (Actor, error) {
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Actor{}, ErrTokenInvalid
	}
	if !claims.Role.Valid() {
		return Actor{}, ErrTokenInvalid
	}
	return Actor{UserID: userID, Role: claims.Role, PersonID: claims.PersonID}, nil
}
