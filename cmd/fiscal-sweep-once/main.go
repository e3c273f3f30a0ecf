// fiscal-sweep-once runs the invoice and reconciliation sweeps one time and
// exits. Meant for ops use when the in-process sweeper is disabled or a batch
// needs flushing right now.
//
// Usage:
//   DB_USER=... DB_HOST=... COMPANY_ID=1 go run ./cmd/fiscal-sweep-once
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/lmsoluciones/fiscalpos_backend/config"
	"bitbucket.org/lmsoluciones/fiscalpos_backend/workflow"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	sweeper := workflow.NewFiscalSweeper(db, config.GetLogger())
	sweeper.SweepOnce(context.Background())
	fmt.Println("sweep complete")
}
