// Package firebasesvc backs identity verification and storage with Firebase.
package firebasesvc

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/edutok/edutok/core"
)

func clientOptions(conf *core.Config) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case conf.Firebase.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(conf.Firebase.CredentialsJSON)))
	case conf.Firebase.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}
	return opts
}

// NewApp initialises the Firebase app; without explicit credentials the application default ones are used.
func NewApp(ctx context.Context, conf *core.Config) (*firebase.App, error) {
	fbConf := &firebase.Config{
		ProjectID:   conf.Firebase.ProjectID,
		DatabaseURL: conf.Firebase.DatabaseURL,
	}
	app, err := firebase.NewApp(ctx, fbConf, clientOptions(conf)...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	return app, nil
}
