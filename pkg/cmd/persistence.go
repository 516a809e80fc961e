// Package cmd provides the shared wiring used by every binary.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kikukafandi/flowlink/pkg/persistence"
	"github.com/kikukafandi/flowlink/pkg/persistence/file"
	"github.com/kikukafandi/flowlink/pkg/persistence/postgresql"
)

// NewPersistence picks a persistence backend from the database URL scheme:
// postgres://... or file://path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return p
	case strings.HasPrefix(databaseURL, "file://"):
		return file.NewPersistence(databaseURL)
	default:
		panic("unsupported database URL: " + databaseURL)
	}
}
