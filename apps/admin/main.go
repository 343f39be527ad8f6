package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	dig_container "github.com/edutok/edutok/apps/api/di/dig"
	"github.com/edutok/edutok/core"
	"github.com/edutok/edutok/core/report"
	"github.com/edutok/edutok/storage/database"
)

func main() {
	c := dig_container.New()

	var conf *core.Config
	var logger core.Logger
	if err := c.Invoke(func(cnf *core.Config, l core.Logger) {
		conf, logger = cnf, l
	}); err != nil {
		log.Fatal(err)
	}

	var storage *dig_container.Storage

	// start CLI
	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		reportSvc: func() (report.Service, error) {
			var svc report.Service
			err := c.Invoke(func(s report.Service, st *dig_container.Storage) {
				svc, storage = s, st
			})
			return svc, err
		},
		openDB: func() (*sql.DB, error) {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
			return database.Open(conf)
		},
	}
	err := cli.run(os.Args)
	if storage != nil {
		if cErr := storage.Close(); cErr != nil {
			logger.Error("closing storage", cErr)
		}
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin: %v", err), err)
		}
		os.Exit(1)
	}
}
