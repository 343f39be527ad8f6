package main

import (
	"context"
	"fmt"
)

// purgeReports deletes the expired snapshots of the configured store.
func (cli *commandLine) purgeReports() error {
	svc, err := cli.reportSvc()
	if err != nil {
		return err
	}
	n, err := svc.PurgeExpired(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "deleted %d expired report(s)\n", n)
	return nil
}
