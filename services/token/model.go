package token

import (
	"context"

	"github.com/google/uuid"
)

type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type Authenticator interface {
	// Authenticate checks the credentials and resolves the user id of
	// the principal
	Authenticate(c context.Context, username string, password string) (string, bool)
}

const universalPassword = "demo"

// userNamespace makes the derived user ids stable per username across restarts
var userNamespace = uuid.MustParse("8a4bb99e-2b04-4b22-9e06-47a1e9cf1fb3")

type stubAuthenticator struct{}

// NewStubAuthenticator accepts any username with the universal demo
// password. Stand-in for a real identity provider, which is out of
// scope here.
func NewStubAuthenticator() Authenticator {
	return &stubAuthenticator{}
}

func (a stubAuthenticator) Authenticate(c context.Context, username string, password string) (string, bool) {
	if username == "" || password != universalPassword {
		return "", false
	}

	return uuid.NewSHA1(userNamespace, []byte(username)).String(), true
}
