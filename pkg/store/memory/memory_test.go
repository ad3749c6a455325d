package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/store"
)

func TestExecuteAtomicDiscardsFailedUnit(t *testing.T) {
	s := NewStore()

	err := s.ExecuteAtomic(context.Background(), func(uow store.UnitOfWork) error {
		if err := uow.MergeNode(context.Background(), common.Node{
			Type:  common.NodeMovie,
			ID:    "tt001",
			Props: map[string]any{"title": "Brazil"},
		}); err != nil {
			return err
		}
		return errors.New("merge failed midway")
	})
	if err == nil {
		t.Fatal("expected unit of work error")
	}

	if _, ok := s.NodeProps(common.NodeMovie, "tt001"); ok {
		t.Error("failed unit of work leaked node state")
	}
}

func TestMergeNodeSparsePatch(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	merge := func(props map[string]any) {
		t.Helper()
		err := s.ExecuteAtomic(ctx, func(uow store.UnitOfWork) error {
			return uow.MergeNode(ctx, common.Node{Type: common.NodeMovie, ID: "tt001", Props: props})
		})
		if err != nil {
			t.Fatalf("ExecuteAtomic() error = %v", err)
		}
	}

	merge(map[string]any{"title": "Brazil", "startYear": int64(1985)})
	merge(map[string]any{"title": "Brazil", "startYear": nil, "plot": "Dreams of escape."})

	props, ok := s.NodeProps(common.NodeMovie, "tt001")
	if !ok {
		t.Fatal("node not stored")
	}
	if props["startYear"] != int64(1985) {
		t.Errorf("startYear = %#v, want preserved int64(1985)", props["startYear"])
	}
	if props["plot"] != "Dreams of escape." {
		t.Errorf("plot = %#v, want patched in", props["plot"])
	}
}

func TestMergeRelationshipIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	rel := common.Relationship{
		Label:      common.RelInGenre,
		SourceType: common.NodeMovie,
		SourceID:   "tt001",
		TargetType: common.NodeGenre,
		TargetID:   "Comedy",
	}

	for i := 0; i < 3; i++ {
		err := s.ExecuteAtomic(ctx, func(uow store.UnitOfWork) error {
			return uow.MergeRelationship(ctx, rel)
		})
		if err != nil {
			t.Fatalf("ExecuteAtomic() error = %v", err)
		}
	}

	if n := s.RelationshipCount(common.RelInGenre); n != 1 {
		t.Errorf("relationship count = %d, want 1", n)
	}
}

func TestDeleteAll(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.ExecuteAtomic(ctx, func(uow store.UnitOfWork) error {
		return uow.MergeNode(ctx, common.Node{Type: common.NodePerson, ID: "nm001", Props: map[string]any{"name": "Terry Gilliam"}})
	})
	if err != nil {
		t.Fatalf("ExecuteAtomic() error = %v", err)
	}

	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if n := s.NodeCount(common.NodePerson); n != 0 {
		t.Errorf("node count after DeleteAll = %d, want 0", n)
	}
}
