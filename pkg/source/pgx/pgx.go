package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"
)

type pgxIConn interface {
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
}

// RowSource reads joined participant rows from PostgreSQL. Every column is
// selected as text with the relational NULL sentinel substituted for SQL
// NULL, so the normalizer is the single place NULL handling happens.
type RowSource struct {
	conn pgxIConn
}

// NewRowSource wraps an existing pgx connection or pool.
func NewRowSource(conn pgxIConn) *RowSource {
	return &RowSource{conn: conn}
}

const participantRowsQuery = `
	SELECT
		COALESCE(t.tconst, E'\\N'),
		COALESCE(t.title_type, E'\\N'),
		COALESCE(t.primary_title, E'\\N'),
		COALESCE(t.is_adult, E'\\N'),
		COALESCE(t.start_year, E'\\N'),
		COALESCE(t.runtime_minutes, E'\\N'),
		COALESCE(t.genres, E'\\N'),
		COALESCE(r.average_rating, E'\\N'),
		COALESCE(r.num_votes, E'\\N'),
		COALESCE(pl.plot, E'\\N'),
		COALESCE(p.nconst, E'\\N'),
		COALESCE(p.primary_name, E'\\N'),
		COALESCE(p.birth_year, E'\\N'),
		COALESCE(p.death_year, E'\\N'),
		COALESCE(p.primary_profession, E'\\N'),
		COALESCE(p.known_for_titles, E'\\N')
	FROM people p
	JOIN principals pr ON pr.nconst = p.nconst
	JOIN titles t ON t.tconst = pr.tconst
	LEFT JOIN ratings r ON r.tconst = t.tconst
	LEFT JOIN plots pl ON pl.tconst = t.tconst
	WHERE p.primary_name = $1
	ORDER BY t.tconst
`

// RowsForParticipant returns the finite set of joined rows for one
// participant name, in tconst order.
func (s *RowSource) RowsForParticipant(ctx context.Context, name string) ([]common.Row, error) {
	rows, err := s.conn.Query(ctx, participantRowsQuery, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant rows: %w", err)
	}
	defer rows.Close()

	out := make([]common.Row, 0)
	for rows.Next() {
		var r common.Row
		err := rows.Scan(
			&r.TitleID,
			&r.TitleType,
			&r.PrimaryTitle,
			&r.IsAdult,
			&r.StartYear,
			&r.RuntimeMinutes,
			&r.Genres,
			&r.AverageRating,
			&r.NumVotes,
			&r.Plot,
			&r.PersonID,
			&r.PrimaryName,
			&r.BirthYear,
			&r.DeathYear,
			&r.PrimaryProfession,
			&r.KnownForTitles,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participant rows: %w", err)
	}

	logger.Debug("[Source] Fetched participant rows", "participant", name, "rows", len(out))
	return out, nil
}
