package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/store"
)

// Store implements store.GraphStore on top of the Neo4j bolt driver. Every
// ExecuteAtomic call maps to one managed write transaction, so commit and
// discard semantics come directly from the database.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewStoreParams configures the connection to a Neo4j server. Database may be
// empty, in which case the server default ("neo4j") is used.
type NewStoreParams struct {
	URI            string
	Username       string
	Password       string
	Database       string
	MaxPoolSize    int
	ConnectTimeout time.Duration
}

// NewStore connects to Neo4j and verifies connectivity before returning.
// A failed verification is reported as store.ErrUnavailable.
func NewStore(ctx context.Context, params NewStoreParams) (*Store, error) {
	timeout := params.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPool := params.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.Username, params.Password, ""),
		func(cfg *neo4j.Config) {
			cfg.MaxConnectionPoolSize = maxPool
			cfg.SocketConnectTimeout = timeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	err = util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		verifyCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return driver.VerifyConnectivity(verifyCtx)
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	database := params.Database
	if database == "" {
		database = "neo4j"
	}

	return &Store{
		driver:   driver,
		database: database,
	}, nil
}

type unitOfWork struct {
	tx neo4j.ManagedTransaction
}

// MergeNode upserts a node keyed on its id property. Nil-valued properties
// are stripped before the SET so a sparse row never erases values stored by
// an earlier merge.
func (u *unitOfWork) MergeNode(ctx context.Context, node common.Node) error {
	props := make(map[string]any, len(node.Props))
	for k, v := range node.Props {
		if v == nil {
			continue
		}
		props[k] = v
	}

	query := fmt.Sprintf(`
		MERGE (n:%s {id: $id})
		SET n += $props
	`, node.Type)

	res, err := u.tx.Run(ctx, query, map[string]any{
		"id":    node.ID,
		"props": props,
	})
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

// MergeRelationship upserts a directed edge. Both endpoints are merged on
// their id alone: for endpoints emitted earlier in the same unit this is a
// no-op, while a KNOWN_FOR target that has not been ingested yet becomes a
// bare node that picks up its properties when its own row arrives.
func (u *unitOfWork) MergeRelationship(ctx context.Context, rel common.Relationship) error {
	query := fmt.Sprintf(`
		MERGE (a:%s {id: $source_id})
		MERGE (b:%s {id: $target_id})
		MERGE (a)-[:%s]->(b)
	`, rel.SourceType, rel.TargetType, rel.Label)

	res, err := u.tx.Run(ctx, query, map[string]any{
		"source_id": rel.SourceID,
		"target_id": rel.TargetID,
	})
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

// ExecuteAtomic runs fn inside one managed write transaction. The driver
// commits when fn returns nil and rolls back otherwise. Connectivity
// failures are surfaced as store.ErrUnavailable so the batch driver can
// distinguish them from a bad row.
func (s *Store) ExecuteAtomic(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(&unitOfWork{tx: tx})
	})
	if err != nil {
		if neo4j.IsConnectivityError(err) {
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return err
	}
	return nil
}

// DeleteAll wipes the whole graph. Used by the -reset flag and tests only.
func (s *Store) DeleteAll(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	logger.Warn("[Store] Deleting all nodes and relationships", "database", s.database)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil && neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}
