package firebasesvc

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"

	"github.com/edutok/edutok/core/user"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier verifies Firebase ID tokens.
type Verifier struct {
	client    idTokenVerifier
	isInvalid func(err error) bool
}

var _ user.Verifier = (*Verifier)(nil)

func NewVerifier(ctx context.Context, app *firebase.App) (*Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase auth")
	}
	return newVerifier(client), nil
}

func newVerifier(client idTokenVerifier) *Verifier {
	return &Verifier{client: client, isInvalid: isInvalidTokenErr}
}

func isInvalidTokenErr(err error) bool {
	return auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err)
}

func (v *Verifier) VerifyToken(ctx context.Context, token string) (user.Token, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if v.isInvalid(err) {
			return user.Token{}, user.ErrInvalidToken
		}
		return user.Token{}, errors.Wrap(err, "verifying firebase id token")
	}
	return user.Token{UID: tok.UID, Claims: tok.Claims}, nil
}
