package user

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

var NowFunc = time.Now // mockable

// Claims are the claims of locally issued identity tokens.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	CPF   string `json:"cpf,omitempty"`
	Turma string `json:"turma,omitempty"`
}

func (c Claims) token() Token {
	return Token{
		UID: c.Subject,
		Claims: map[string]interface{}{
			"name":  c.Name,
			"email": c.Email,
			"cpf":   c.CPF,
			"turma": c.Turma,
		},
	}
}

// MakeToken signs an HS256 identity token for `prof`, valid for `ttl`.
func MakeToken(prof Profile, issuer, secretKey string, ttl time.Duration) (string, error) {
	now := NowFunc()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   prof.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:  prof.Name,
		Email: prof.Email,
		CPF:   prof.CPF,
		Turma: prof.Turma,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// LocalVerifier verifies tokens issued by MakeToken.
type LocalVerifier struct {
	issuer string
	key    []byte
}

func NewLocalVerifier(issuer, secretKey string) *LocalVerifier {
	return &LocalVerifier{issuer: issuer, key: []byte(secretKey)}
}

func (v *LocalVerifier) VerifyToken(_ context.Context, token string) (Token, error) {
	claims := new(Claims)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil || !claims.VerifyIssuer(v.issuer, true) || claims.Subject == "" {
		return Token{}, ErrInvalidToken
	}
	return claims.token(), nil
}
