package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/edutok/edutok/core"
	"github.com/edutok/edutok/core/user"
)

var errNotLocalAuth = errors.New("devtoken requires the local auth provider")

type devTokenArgs struct {
	uid, name, cpf, turma, email string
	ttl                          time.Duration
}

// devToken prints an identity token the API accepts when auth.provider is local.
func (cli *commandLine) devToken(args devTokenArgs) error {
	if p := cli.conf.Auth.Provider; p != "" && p != core.AuthLocal {
		return errNotLocalAuth
	}
	if cli.conf.SecretKey == "" {
		return errors.New("secretKey is not configured")
	}

	prof := user.Profile{
		UID:   core.CleanString(args.uid),
		Name:  core.CleanString(args.name),
		CPF:   core.CleanString(args.cpf),
		Turma: core.CleanString(args.turma),
		Email: core.CleanString(args.email, true /* lower */),
	}
	token, err := user.MakeToken(prof, cli.conf.AppName, cli.conf.SecretKey, args.ttl)
	if err != nil {
		return errors.Wrap(err, "signing token")
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
