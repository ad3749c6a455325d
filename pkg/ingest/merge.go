package ingest

import (
	"context"
	"fmt"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/store"
)

// mergeRow submits one row's merge sequence as a single unit of work. The
// sequence runs strictly in emission order; nodes are never reordered past a
// relationship that references them. Any failing operation discards the
// whole unit, so a row is either fully merged or absent.
func mergeRow(ctx context.Context, gs store.GraphStore, ops []common.Operation) error {
	return gs.ExecuteAtomic(ctx, func(uow store.UnitOfWork) error {
		for _, op := range ops {
			switch {
			case op.Node != nil:
				if err := uow.MergeNode(ctx, *op.Node); err != nil {
					return fmt.Errorf("failed to merge %s node %q: %w", op.Node.Type, op.Node.ID, err)
				}
			case op.Rel != nil:
				if err := uow.MergeRelationship(ctx, *op.Rel); err != nil {
					return fmt.Errorf("failed to merge %s relationship %q->%q: %w",
						op.Rel.Label, op.Rel.SourceID, op.Rel.TargetID, err)
				}
			}
		}
		return nil
	})
}
