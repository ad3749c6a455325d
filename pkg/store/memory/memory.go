package memory

import (
	"context"
	"sync"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/store"
)

type nodeKey struct {
	Type common.NodeType
	ID   string
}

type relKey struct {
	Label      common.RelType
	SourceType common.NodeType
	SourceID   string
	TargetType common.NodeType
	TargetID   string
}

// Store is an in-memory store.GraphStore used by tests and local development.
// Units of work stage their operations and apply them under a single lock on
// commit, so a failed unit leaves no trace and concurrent units never observe
// partial state.
type Store struct {
	mu    sync.Mutex
	nodes map[nodeKey]map[string]any
	rels  map[relKey]struct{}
}

func NewStore() *Store {
	return &Store{
		nodes: make(map[nodeKey]map[string]any),
		rels:  make(map[relKey]struct{}),
	}
}

type unitOfWork struct {
	nodes []common.Node
	rels  []common.Relationship
}

func (u *unitOfWork) MergeNode(ctx context.Context, node common.Node) error {
	u.nodes = append(u.nodes, node)
	return nil
}

func (u *unitOfWork) MergeRelationship(ctx context.Context, rel common.Relationship) error {
	u.rels = append(u.rels, rel)
	return nil
}

// ExecuteAtomic collects fn's operations into a staged unit and commits them
// only when fn returns nil.
func (s *Store) ExecuteAtomic(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	uow := &unitOfWork{}
	if err := fn(uow); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range uow.nodes {
		s.mergeNodeLocked(node)
	}
	for _, rel := range uow.rels {
		// Same placeholder semantics as the Neo4j backend: an edge target
		// that was never merged as a node becomes a bare node.
		s.ensureNodeLocked(rel.SourceType, rel.SourceID)
		s.ensureNodeLocked(rel.TargetType, rel.TargetID)
		s.rels[relKey{
			Label:      rel.Label,
			SourceType: rel.SourceType,
			SourceID:   rel.SourceID,
			TargetType: rel.TargetType,
			TargetID:   rel.TargetID,
		}] = struct{}{}
	}
	return nil
}

func (s *Store) mergeNodeLocked(node common.Node) {
	key := nodeKey{Type: node.Type, ID: node.ID}
	props, ok := s.nodes[key]
	if !ok {
		props = make(map[string]any, len(node.Props))
		s.nodes[key] = props
	}
	for k, v := range node.Props {
		if v == nil {
			continue
		}
		props[k] = v
	}
}

func (s *Store) ensureNodeLocked(typ common.NodeType, id string) {
	key := nodeKey{Type: typ, ID: id}
	if _, ok := s.nodes[key]; !ok {
		s.nodes[key] = make(map[string]any)
	}
}

func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[nodeKey]map[string]any)
	s.rels = make(map[relKey]struct{})
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

// NodeProps returns a copy of the stored properties for (typ, id) and whether
// the node exists.
func (s *Store) NodeProps(typ common.NodeType, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.nodes[nodeKey{Type: typ, ID: id}]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out, true
}

// NodeCount returns the number of stored nodes of the given type.
func (s *Store) NodeCount(typ common.NodeType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.nodes {
		if key.Type == typ {
			n++
		}
	}
	return n
}

// HasRelationship reports whether the exact edge triple is stored.
func (s *Store) HasRelationship(rel common.Relationship) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rels[relKey{
		Label:      rel.Label,
		SourceType: rel.SourceType,
		SourceID:   rel.SourceID,
		TargetType: rel.TargetType,
		TargetID:   rel.TargetID,
	}]
	return ok
}

// RelationshipCount returns the number of stored edges with the given label,
// or all edges when label is empty.
func (s *Store) RelationshipCount(label common.RelType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if label == "" {
		return len(s.rels)
	}
	n := 0
	for key := range s.rels {
		if key.Label == label {
			n++
		}
	}
	return n
}
