package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/logging"
	"github.com/dmitrijs2005/totpgate/internal/server/archive"
	"github.com/dmitrijs2005/totpgate/internal/server/config"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/totpgate/internal/server/services"
)

// RunPurge performs one retention run: sessions that expired more than
// c.RetentionPeriod ago are archived to S3 and deleted.
func RunPurge(ctx context.Context, c *config.Config) (*services.PurgeReport, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if c.RetentionPeriod <= 0 {
		return nil, fmt.Errorf("retention period must be positive, got %s", c.RetentionPeriod)
	}

	db, err := OpenDatabase(ctx, c.DatabaseDSN, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	archiver, err := archive.NewS3Archiver(ctx, archive.Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, err
	}

	retention := services.NewRetentionService(db, repomanager.NewPostgresRepositoryManager(), archiver, nil, logger)

	return retention.Purge(ctx, time.Now().Add(-c.RetentionPeriod))
}
