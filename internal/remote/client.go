// Package remote talks to the shared-drive store that holds the raw
// instrument logging files. The rest of the pipeline only depends on the
// Client capability; authentication and wire details stay in here.
package remote

import (
	"context"
	"fmt"
	"io"

	"github.com/cozi-lab/logsync/internal/models"
)

// Client is the capability the pipeline needs from the remote store.
type Client interface {
	// ListFiles enumerates files in a folder whose names start with prefix.
	// The prefix match is case-sensitive.
	ListFiles(ctx context.Context, folderID, prefix string) ([]models.RemoteFile, error)
	// FetchFile streams the content of a single file.
	FetchFile(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// TransportError indicates an authentication or connectivity failure against
// the remote store. It is fatal: cache decisions need a complete listing, so
// the run aborts with nothing partially written.
type TransportError struct {
	Op  string // "list" or "fetch"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
