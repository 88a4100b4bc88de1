// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fieldkit/cascade/pkg/persistence"
	"github.com/fieldkit/cascade/pkg/persistence/file"
	"github.com/fieldkit/cascade/pkg/persistence/postgresql"
)

// NewPersistence picks the storage backend from the database URL scheme.
// postgres:// URLs get the PostgreSQL backend; everything else falls back to
// file storage rooted at the URL's path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		persist, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to postgres: %w", err))
		}

		return persist
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
