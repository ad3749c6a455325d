package store

import (
	"context"
	"errors"

	"github.com/cinegraph/backend/pkg/common"
)

// ErrUnavailable reports that the graph store cannot be reached or refused
// the connection. It is the only store error that aborts a whole batch;
// everything else is contained to the failing row's unit of work.
var ErrUnavailable = errors.New("graph store unavailable")

// UnitOfWork is the atomic scope one row's merge sequence runs in. All
// operations submitted to a unit either commit together or are discarded
// together. Implementations must make both merge primitives idempotent.
type UnitOfWork interface {
	// MergeNode upserts a node by (type, id). When the node already exists,
	// declared properties are patched onto it; properties with nil values and
	// properties absent from props are left untouched. The identifier itself
	// is never rewritten.
	MergeNode(ctx context.Context, node common.Node) error

	// MergeRelationship upserts a directed labeled edge. Re-asserting an
	// existing (label, source, target) triple is a no-op. Both endpoints must
	// already exist, except that implementations may defer resolution of
	// targets created by a later ingestion pass.
	MergeRelationship(ctx context.Context, rel common.Relationship) error
}

// GraphStore is the external graph storage collaborator. The ingestion engine
// only ever talks to it through ExecuteAtomic, so no partial row state can
// leak out of a failed merge.
type GraphStore interface {
	// ExecuteAtomic runs fn against a fresh unit of work, committing on nil
	// return and discarding all of fn's operations otherwise.
	ExecuteAtomic(ctx context.Context, fn func(uow UnitOfWork) error) error

	// DeleteAll wipes every node and relationship. Administrative reset only,
	// never called mid-ingestion.
	DeleteAll(ctx context.Context) error

	Close(ctx context.Context) error
}
