package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/edutok/edutok/core"
	"github.com/edutok/edutok/core/report"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf      *core.Config
	out       io.Writer
	reportSvc func() (report.Service, error) // resolved on demand: not every command needs storage
	openDB    func() (*sql.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  purgereports - delete the expired grade reports from the store")
	fmt.Fprintln(cli.out, "  devtoken -uid UID [-name NAME -cpf CPF -turma TURMA -email EMAIL -ttl TTL] - mint a local identity token")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	devTokenCmd := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	devTokenCmd.SetOutput(cli.out)
	devTokenUID := devTokenCmd.String("uid", "", "The student's uid.")
	devTokenName := devTokenCmd.String("name", "", "The student's name.")
	devTokenCPF := devTokenCmd.String("cpf", "", "The student's CPF.")
	devTokenTurma := devTokenCmd.String("turma", "", "The student's class.")
	devTokenEmail := devTokenCmd.String("email", "", "The student's email, for share-link notifications.")
	devTokenTTL := devTokenCmd.Duration("ttl", cli.conf.Auth.TokenTTL, "How long the token is valid.")

	switch args[1] {
	case "purgereports":
		return cli.purgeReports()
	case "devtoken":
		if err := devTokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *devTokenUID == "" {
			devTokenCmd.Usage()
			return errHelp
		}
		return cli.devToken(devTokenArgs{
			uid:   *devTokenUID,
			name:  *devTokenName,
			cpf:   *devTokenCPF,
			turma: *devTokenTurma,
			email: *devTokenEmail,
			ttl:   *devTokenTTL,
		})
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
