package auth

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"coderoom/internal/domain"
)

const sessionUserKey = "username"

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity resolves the user behind an HTTP request. The OAuth flow that
// establishes the session lives outside this server; here we only read
// what it stored.
type Identity interface {
	Resolve(c *gin.Context) (string, error)
}

// SessionIdentity reads the username from the session cookie.
type SessionIdentity struct{}

func (SessionIdentity) Resolve(c *gin.Context) (string, error) {
	session := sessions.Default(c)
	username, _ := session.Get(sessionUserKey).(string)
	if err := domain.ValidateUsername(username); err != nil {
		return "", ErrUnauthenticated
	}
	return username, nil
}
