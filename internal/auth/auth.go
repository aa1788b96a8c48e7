package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Callers authenticate with two tokens: an access token proving the
// session and an identity token carrying who they are. Both must carry
// a valid signature; only the identity token's claims are consumed.

type IdentityClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) VerifyAccess(token string) error {
	_, err := jwt.Parse(token, p.keyFunc, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return fmt.Errorf("verify access token: %w", err)
	}
	return nil
}

func (p *Parser) VerifyIdentity(token string) (*IdentityClaims, error) {
	var claims IdentityClaims
	_, err := jwt.ParseWithClaims(token, &claims, p.keyFunc, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("verify identity token: %w", err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("identity token has no email claim")
	}
	if claims.Username == "" {
		claims.Username = claims.Email
	}
	return &claims, nil
}

func (p *Parser) keyFunc(_ *jwt.Token) (interface{}, error) {
	return p.secret, nil
}
