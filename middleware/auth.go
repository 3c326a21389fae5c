package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"food-ordering-api/config"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
)

// TokenHeader carries the signed token on every authenticated request
const TokenHeader = "x-jwt"

const userKey = "user"

var (
	ErrMissingToken = errors.New("Token is required")
	ErrInvalidToken = errors.New("Invalid or expired token")
	ErrUnknownUser  = errors.New("User not found")
	ErrForbidden    = errors.New("Forbidden resource")
)

// UserFinder resolves a verified user id to its record
type UserFinder interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
}

// Policy is the set of roles allowed to run one operation
type Policy struct {
	public bool
	any    bool
	roles  map[models.UserRole]bool
}

// ParsePolicy builds a Policy from its configured role names. No names makes
// the operation public; "Any" admits every authenticated role.
func ParsePolicy(names []string) (Policy, error) {
	if len(names) == 0 {
		return Policy{public: true}, nil
	}
	p := Policy{roles: make(map[models.UserRole]bool, len(names))}
	for _, name := range names {
		if name == config.AnyRole {
			p.any = true
			continue
		}
		role := models.UserRole(name)
		if !role.Valid() {
			return Policy{}, fmt.Errorf("unknown role %q", name)
		}
		p.roles[role] = true
	}
	return p, nil
}

func (p Policy) Public() bool {
	return p.public
}

// Allows reports whether role may run the operation
func (p Policy) Allows(role models.UserRole) bool {
	return p.public || p.any || p.roles[role]
}

// Authorizer resolves the caller of an operation and checks it against the
// operation's policy.
type Authorizer struct {
	tokens   *Tokens
	users    UserFinder
	policies map[string]Policy
	log      *slog.Logger
}

// NewAuthorizer parses the access table. An unknown role in any entry fails.
func NewAuthorizer(tokens *Tokens, users UserFinder, access map[string][]string, log *slog.Logger) (*Authorizer, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &Authorizer{
		tokens:   tokens,
		users:    users,
		policies: make(map[string]Policy, len(access)),
		log:      log.With("component", "auth"),
	}
	var errs []error
	for op, names := range access {
		p, err := ParsePolicy(names)
		if err != nil {
			errs = append(errs, fmt.Errorf("access %s: %w", op, err))
			continue
		}
		a.policies[op] = p
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return a, nil
}

// Policy returns the policy configured for op
func (a *Authorizer) Policy(op string) (Policy, bool) {
	p, ok := a.policies[op]
	return p, ok
}

// Resolve verifies token and loads the user it names, then applies policy.
// A public policy with no token resolves to a nil user.
func (a *Authorizer) Resolve(ctx context.Context, token string, policy Policy) (*models.User, error) {
	if token == "" {
		if policy.Public() {
			return nil, nil
		}
		return nil, ErrMissingToken
	}

	id, err := a.tokens.Verify(token)
	if err != nil {
		if policy.Public() {
			return nil, nil
		}
		return nil, err
	}
	user, err := a.users.FindUser(ctx, id)
	if err != nil {
		if policy.Public() {
			return nil, nil
		}
		a.log.Debug("token names no user", "user_id", id, "error", err)
		return nil, ErrUnknownUser
	}
	if !policy.Allows(user.Role) {
		return nil, ErrForbidden
	}
	return user, nil
}

// Require guards a route with the policy of op. The resolved user is
// available to handlers through CurrentUser.
func (a *Authorizer) Require(op string) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy, ok := a.Policy(op)
		if !ok {
			a.log.Error("operation has no access entry", "operation", op)
			Deny(c, ErrForbidden)
			return
		}
		user, err := a.Resolve(c.Request.Context(), TokenFrom(c), policy)
		if err != nil {
			Deny(c, err)
			return
		}
		if user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// TokenFrom reads the token from the x-jwt header, then a Bearer
// Authorization header, then the x-jwt query parameter used by WebSocket
// clients.
func TokenFrom(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(TokenHeader)); token != "" {
		return token
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Query(TokenHeader)
}

// CurrentUser returns the user attached by Require, or nil on public routes
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// SetUser attaches user to c the way Require does
func SetUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
}

// StatusFor maps an authorization failure to its HTTP status
func StatusFor(err error) int {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// Deny aborts with the envelope and status of an authorization failure
func Deny(c *gin.Context, err error) {
	msg := err.Error()
	if errors.Is(err, ErrInvalidToken) {
		msg = ErrInvalidToken.Error()
	}
	c.AbortWithStatusJSON(StatusFor(err), gin.H{"ok": false, "error": msg})
}
