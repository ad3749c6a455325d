package tsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cinegraph/backend/pkg/common"
)

// RowSource reads a pre-joined, tab-separated dump of participant rows. The
// first record must be a header naming the columns; unknown columns are
// ignored so dumps may carry extra fields.
//
// The whole dump is parsed once on construction, making the source cheaply
// restartable for repeated ingestion passes.
type RowSource struct {
	rows []common.Row
}

var columnSetters = map[string]func(*common.Row, string){
	"tconst":            func(r *common.Row, v string) { r.TitleID = v },
	"titleType":         func(r *common.Row, v string) { r.TitleType = v },
	"primaryTitle":      func(r *common.Row, v string) { r.PrimaryTitle = v },
	"isAdult":           func(r *common.Row, v string) { r.IsAdult = v },
	"startYear":         func(r *common.Row, v string) { r.StartYear = v },
	"runtimeMinutes":    func(r *common.Row, v string) { r.RuntimeMinutes = v },
	"genres":            func(r *common.Row, v string) { r.Genres = v },
	"averageRating":     func(r *common.Row, v string) { r.AverageRating = v },
	"numVotes":          func(r *common.Row, v string) { r.NumVotes = v },
	"plot":              func(r *common.Row, v string) { r.Plot = v },
	"nconst":            func(r *common.Row, v string) { r.PersonID = v },
	"primaryName":       func(r *common.Row, v string) { r.PrimaryName = v },
	"birthYear":         func(r *common.Row, v string) { r.BirthYear = v },
	"deathYear":         func(r *common.Row, v string) { r.DeathYear = v },
	"primaryProfession": func(r *common.Row, v string) { r.PrimaryProfession = v },
	"knownForTitles":    func(r *common.Row, v string) { r.KnownForTitles = v },
}

// NewRowSource parses a TSV dump from r.
func NewRowSource(r io.Reader) (*RowSource, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse TSV dump: %w", err)
	}
	if len(records) == 0 {
		return &RowSource{}, nil
	}

	header := records[0]
	setters := make([]func(*common.Row, string), len(header))
	for i, col := range header {
		setters[i] = columnSetters[col]
	}

	rows := make([]common.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := common.Row{}
		for i, value := range record {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			setters[i](&row, value)
		}
		rows = append(rows, row)
	}

	return &RowSource{rows: rows}, nil
}

// RowsForParticipant filters the dump by exact primary name.
func (s *RowSource) RowsForParticipant(ctx context.Context, name string) ([]common.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]common.Row, 0)
	for _, row := range s.rows {
		if row.PrimaryName == name {
			out = append(out, row)
		}
	}
	return out, nil
}
