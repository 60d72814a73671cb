package myauth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/basketworks/basketapi/lib/myuuid"
)

const (
	Issuer   = "basketapi.security.bearer"
	Audience = "basketapi.security.bearer"

	// TokenLifetime bounds how long an issued bearer token stays usable
	TokenLifetime = 2 * time.Hour

	userIDClaim = "uid"

	// Development fallback, overridden with JWT_SIGNING_SECRET
	defaultSigningSecret = "secret value eulav terces"
)

func SigningSecretFromEnv() string {
	secret := os.Getenv("JWT_SIGNING_SECRET")
	if secret == "" {
		secret = defaultSigningSecret
	}
	return secret
}

type TokenSigner interface {
	Sign(userUID string, username string, now time.Time) (string, error)
}

type TokenVerifier interface {
	// Verify validates the token and returns the user id of the principal
	Verify(tokenValue string) (string, error)
}

// TokenCrafter signs and verifies HS256 bearer tokens carrying the
// principal's user id as a private claim.
type TokenCrafter struct {
	secret []byte
	uuider myuuid.UUIDer
}

func NewTokenCrafter(secret string) *TokenCrafter {
	return &TokenCrafter{
		secret: []byte(secret),
		uuider: myuuid.RealUUIDer{},
	}
}

func (tc *TokenCrafter) Sign(userUID string, username string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":       Issuer,
		"aud":       Audience,
		"sub":       username,
		"jti":       tc.uuider.Create(),
		"iat":       jwt.NewNumericDate(now),
		"exp":       jwt.NewNumericDate(now.Add(TokenLifetime)),
		userIDClaim: userUID,
	})

	tokenValue, err := token.SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %s", err)
	}

	return tokenValue, nil
}

func (tc *TokenCrafter) Verify(tokenValue string) (string, error) {
	token, err := jwt.Parse(tokenValue,
		func(t *jwt.Token) (interface{}, error) {
			return tc.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("error parsing token: %s", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("token carries no claims")
	}

	userUID, ok := claims[userIDClaim].(string)
	if !ok || userUID == "" {
		return "", fmt.Errorf("token carries no user id")
	}

	return userUID, nil
}
