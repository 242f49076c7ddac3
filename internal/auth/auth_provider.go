package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	autherrors "go-leave/internal/auth/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the identity provider vouches for.
type Identity struct {
	Subject string
	Email   string
}

type Provider interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type jwtProvider struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTProvider verifies HS256 tokens issued by the external identity service.
// An empty issuer disables the iss check.
func NewJWTProvider(secret, issuer string) Provider {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &jwtProvider{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

func (p *jwtProvider) Verify(ctx context.Context, token string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	claims := &identityClaims{}
	parsed, err := p.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, autherrors.ErrTokenExpired.WithCause(err)
		}
		return Identity{}, autherrors.ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid {
		return Identity{}, autherrors.ErrInvalidToken
	}

	subject := strings.TrimSpace(claims.Subject)
	email := strings.TrimSpace(claims.Email)
	if subject == "" || email == "" {
		return Identity{}, autherrors.ErrInvalidToken
	}

	return Identity{Subject: subject, Email: email}, nil
}
