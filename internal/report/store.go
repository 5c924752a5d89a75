package report

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/holdings-cli/internal/model"
)

// ErrVersionConflict is returned by PutFiler when the filer record was
// modified since it was read. The upsert service retries on it.
var ErrVersionConflict = eris.New("report: filer version conflict")

// Store defines the persistence interface for filer report histories.
// One record per filer, embedding the full report history.
type Store interface {
	// GetFiler returns the filer by CIK, or (nil, nil) when absent.
	GetFiler(ctx context.Context, cik string) (*model.Filer, error)

	// PutFiler writes the filer as a single atomic write. The write
	// succeeds only if the stored version still equals f.Version
	// (0 for a brand-new filer); on success the stored version is
	// f.Version+1. Returns ErrVersionConflict otherwise.
	PutFiler(ctx context.Context, f *model.Filer) error

	// ListCIKs returns all filer identifiers.
	ListCIKs(ctx context.Context) ([]string, error)

	// ListFilers returns all filer records.
	ListFilers(ctx context.Context) ([]model.Filer, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
