package user

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound     = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("user not authenticated")
)

type (
	// Verifier verifies identity tokens.
	// Rejected tokens return ErrInvalidToken; any other error is a backend failure.
	Verifier interface {
		VerifyToken(ctx context.Context, token string) (Token, error)
	}

	Repository interface {
		GetProfile(ctx context.Context, uid string) (Profile, error)
	}

	Service interface {
		// Authenticate resolves the Profile behind a bearer token.
		Authenticate(ctx context.Context, token string) (Profile, error)
		GetProfile(ctx context.Context, uid string) (Profile, error)
	}

	service struct {
		verifier Verifier
		repo     Repository
	}
)

func NewService(verifier Verifier, repo Repository) Service {
	return &service{verifier: verifier, repo: repo}
}

func (svc *service) Authenticate(ctx context.Context, token string) (Profile, error) {
	if token == "" {
		return Profile{}, ErrUnauthorized
	}

	tok, err := svc.verifier.VerifyToken(ctx, token)
	if err != nil {
		if errors.Cause(err) == ErrInvalidToken {
			return Profile{}, ErrUnauthorized
		}
		return Profile{}, errors.Wrap(err, "verifying token")
	}
	if tok.UID == "" {
		return Profile{}, ErrUnauthorized
	}

	prof, err := svc.repo.GetProfile(ctx, tok.UID)
	switch {
	case errors.Cause(err) == ErrNotFound:
		return tok.Profile(), nil
	case err != nil:
		return Profile{}, errors.Wrap(err, "getting profile")
	}
	prof.UID = tok.UID
	return prof.merge(tok.Profile()), nil
}

func (svc *service) GetProfile(ctx context.Context, uid string) (Profile, error) {
	return svc.repo.GetProfile(ctx, uid)
}
