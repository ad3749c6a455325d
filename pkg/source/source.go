package source

import (
	"context"

	"github.com/cinegraph/backend/pkg/common"
)

// RowSource produces the finite set of joined rows for one participant name.
// Implementations own indexing and join performance; the ingestion engine
// only consumes the flat row shape.
type RowSource interface {
	RowsForParticipant(ctx context.Context, name string) ([]common.Row, error)
}
