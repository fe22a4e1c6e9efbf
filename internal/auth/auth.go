// Package auth resolves the calling principal from a bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
)

type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// Principal is the authenticated caller. ID is recorded as createdBy,
// deletedBy and updatedBy on the records a request writes.
type Principal struct {
	ID   string
	Role Role
}

// Claims are the JWT claims carried by a bearer token. The principal id is
// the registered subject.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewAuthenticator(secret, issuer string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth: empty jwt secret")
	}

	return &Authenticator{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs an HS256 token for p valid for ttl.
func (a *Authenticator) Issue(p Principal, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: p.Role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates token and returns the principal it names. Every failure
// is Unauthenticated.
func (a *Authenticator) Parse(token string) (Principal, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return a.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "invalid or expired token", Err: err}
	}

	if claims.Subject == "" {
		return Principal{}, apperr.Unauthenticated("token has no subject")
	}

	if !slices.Contains(roles, claims.Role) {
		return Principal{}, apperr.Unauthenticated("token has unknown role %q", claims.Role)
	}

	return Principal{ID: claims.Subject, Role: claims.Role}, nil
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Actor returns the id of the principal in ctx, or "" when there is none.
func Actor(ctx context.Context) string {
	p, _ := FromContext(ctx)
	return p.ID
}
