package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/entities"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

// Method records how an identity was established.
type Method string

const (
	MethodNone    Method = "none"
	MethodSession Method = "session"
	MethodBearer  Method = "bearer"
)

// Identity is the caller of a request. The zero value is Anonymous.
type Identity struct {
	User   *entities.User
	Method Method
}

// Anonymous is the identity of a caller without a valid session or token.
var Anonymous = Identity{Method: MethodNone}

func (id Identity) IsAnonymous() bool {
	return id.User == nil
}

func (id Identity) IsAdmin() bool {
	return id.User != nil && id.User.IsAdmin
}

// UserID is 0 for Anonymous.
func (id Identity) UserID() uint {
	if id.User == nil {
		return 0
	}
	return id.User.ID
}

// RequireAuthenticated returns the identity's user, or ErrUnauthenticated.
func RequireAuthenticated(id Identity) (*entities.User, error) {
	if id.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	return id.User, nil
}

// RequireAdmin returns the identity's user when it is an administrator.
// Anonymous and regular members both get ErrForbidden.
func RequireAdmin(id Identity) (*entities.User, error) {
	if !id.IsAdmin() {
		return nil, ErrForbidden
	}
	return id.User, nil
}

// RequireOwnerOrAdmin allows the member who owns a record, or any admin.
func RequireOwnerOrAdmin(id Identity, ownerID uint) (*entities.User, error) {
	user, err := RequireAuthenticated(id)
	if err != nil {
		return nil, err
	}
	if user.ID != ownerID && !user.IsAdmin {
		return nil, ErrForbidden
	}
	return user, nil
}

const contextKeyIdentity = "auth_identity"

// SetIdentity stores the resolved identity on the request.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(contextKeyIdentity, id)
}

// CurrentIdentity returns the identity resolved by Middleware, or Anonymous.
func CurrentIdentity(c *gin.Context) Identity {
	if v, exists := c.Get(contextKeyIdentity); exists {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Anonymous
}
