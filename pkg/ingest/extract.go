package ingest

import (
	"errors"
	"fmt"

	"github.com/cinegraph/backend/pkg/common"
)

// ErrMissingIdentifier reports a row without a usable title or person
// identifier. Such a row is skipped and counted as failed; it never aborts
// the batch.
var ErrMissingIdentifier = errors.New("row is missing a required identifier")

func usableID(raw string) bool {
	return raw != "" && raw != NullSentinel
}

// ExtractRow derives the merge sequence for one row: the movie node, genre
// nodes and IN_GENRE edges, the person node, the RELATED_TO edge to the
// row's movie, KNOWN_FOR edges, and profession nodes with HAS_PROFESSION
// edges.
//
// Every relationship's endpoints appear earlier in the sequence as node
// operations, with one deliberate exception: a KNOWN_FOR target gets no node
// operation, because the referenced title is not part of this row's join
// result. The edge may dangle until that title's own row is ingested.
func ExtractRow(row common.Row) ([]common.Operation, error) {
	if !usableID(row.TitleID) {
		return nil, fmt.Errorf("%w: title identifier %q", ErrMissingIdentifier, row.TitleID)
	}
	if !usableID(row.PersonID) {
		return nil, fmt.Errorf("%w: person identifier %q", ErrMissingIdentifier, row.PersonID)
	}

	ops := make([]common.Operation, 0, 16)

	ops = append(ops, common.Operation{Node: &common.Node{
		Type: common.NodeMovie,
		ID:   row.TitleID,
		Props: map[string]any{
			"title":          NullableString(row.PrimaryTitle),
			"titleType":      NullableString(row.TitleType),
			"isAdult":        Flag(row.IsAdult),
			"startYear":      NullableInt(row.StartYear),
			"runtimeMinutes": NullableInt(row.RuntimeMinutes),
			"averageRating":  NullableFloat(row.AverageRating),
			"numVotes":       NullableInt(row.NumVotes),
			"plot":           NullableString(row.Plot),
		},
	}})

	for _, genre := range SplitMulti(row.Genres) {
		ops = append(ops, common.Operation{Node: &common.Node{
			Type:  common.NodeGenre,
			ID:    genre,
			Props: map[string]any{"name": genre},
		}})
		ops = append(ops, common.Operation{Rel: &common.Relationship{
			Label:      common.RelInGenre,
			SourceType: common.NodeMovie,
			SourceID:   row.TitleID,
			TargetType: common.NodeGenre,
			TargetID:   genre,
		}})
	}

	ops = append(ops, common.Operation{Node: &common.Node{
		Type: common.NodePerson,
		ID:   row.PersonID,
		Props: map[string]any{
			"name":              NullableString(row.PrimaryName),
			"birthYear":         NullableInt(row.BirthYear),
			"deathYear":         NullableInt(row.DeathYear),
			"primaryProfession": NullableString(row.PrimaryProfession),
		},
	}})

	ops = append(ops, common.Operation{Rel: &common.Relationship{
		Label:      common.RelRelatedTo,
		SourceType: common.NodePerson,
		SourceID:   row.PersonID,
		TargetType: common.NodeMovie,
		TargetID:   row.TitleID,
	}})

	for _, titleID := range SplitMulti(row.KnownForTitles) {
		ops = append(ops, common.Operation{Rel: &common.Relationship{
			Label:      common.RelKnownFor,
			SourceType: common.NodePerson,
			SourceID:   row.PersonID,
			TargetType: common.NodeMovie,
			TargetID:   titleID,
		}})
	}

	for _, profession := range SplitMulti(row.PrimaryProfession) {
		ops = append(ops, common.Operation{Node: &common.Node{
			Type:  common.NodeProfession,
			ID:    profession,
			Props: map[string]any{"name": profession},
		}})
		ops = append(ops, common.Operation{Rel: &common.Relationship{
			Label:      common.RelHasProfession,
			SourceType: common.NodePerson,
			SourceID:   row.PersonID,
			TargetType: common.NodeProfession,
			TargetID:   profession,
		}})
	}

	return ops, nil
}
