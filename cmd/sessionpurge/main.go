// Command sessionpurge archives long-expired verification sessions to object
// storage and removes them from the database. It is meant to run from cron.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/totpgate/internal/server"
	"github.com/dmitrijs2005/totpgate/internal/server/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	report, err := server.RunPurge(ctx, cfg)
	if err != nil {
		log.Printf("purge failed: %v", err)
		os.Exit(1)
	}

	log.Printf("archived %d sessions to %q, deleted %d sessions and %d refresh tokens",
		report.SessionsArchived, report.ObjectKey, report.SessionsDeleted, report.RefreshTokensDeleted)
}
