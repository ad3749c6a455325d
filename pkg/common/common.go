package common

// NodeType labels a class of graph nodes. A node identifier is only unique
// within its type; the pair (type, identifier) is the global primary key.
type NodeType string

const (
	NodeMovie      NodeType = "Movie"
	NodePerson     NodeType = "Person"
	NodeGenre      NodeType = "Genre"
	NodeProfession NodeType = "Profession"
)

// RelType labels a class of directed relationships between two nodes.
// A relationship is identified by (label, source, target); re-asserting an
// existing triple is a no-op.
type RelType string

const (
	RelInGenre       RelType = "IN_GENRE"
	RelRelatedTo     RelType = "RELATED_TO"
	RelKnownFor      RelType = "KNOWN_FOR"
	RelHasProfession RelType = "HAS_PROFESSION"
)

// Node is a typed, uniquely identified graph entity. Props carries scalar or
// vector property values using the dynamic types the graph driver accepts:
// nil, string, int64, float64, bool, or []float64 for embedding vectors.
//
// A nil property value means the source row had no value for the field and
// must never overwrite a previously stored value on merge.
type Node struct {
	Type  NodeType       `json:"type"`
	ID    string         `json:"id"`
	Props map[string]any `json:"props"`
}

// Relationship is a directed, labeled edge between two nodes, referenced by
// type and identifier. Relationships carry no properties of their own.
type Relationship struct {
	Label      RelType  `json:"label"`
	SourceType NodeType `json:"source_type"`
	SourceID   string   `json:"source_id"`
	TargetType NodeType `json:"target_type"`
	TargetID   string   `json:"target_id"`
}

// Operation is a single step in the merge sequence produced for one row.
// Exactly one of Node or Rel is set. The order of operations matters: every
// relationship's endpoints must appear earlier in the sequence as node
// operations, except for KNOWN_FOR targets which may resolve later.
type Operation struct {
	Node *Node
	Rel  *Relationship
}

// Row is one denormalized record from the relational source: the result of
// joining title, participant, person, rating and plot tables. All fields are
// raw strings; absent values use the relational NULL sentinel.
type Row struct {
	TitleID           string `json:"tconst"`
	TitleType         string `json:"title_type"`
	PrimaryTitle      string `json:"primary_title"`
	IsAdult           string `json:"is_adult"`
	StartYear         string `json:"start_year"`
	RuntimeMinutes    string `json:"runtime_minutes"`
	Genres            string `json:"genres"`
	AverageRating     string `json:"average_rating"`
	NumVotes          string `json:"num_votes"`
	Plot              string `json:"plot"`
	PersonID          string `json:"nconst"`
	PrimaryName       string `json:"primary_name"`
	BirthYear         string `json:"birth_year"`
	DeathYear         string `json:"death_year"`
	PrimaryProfession string `json:"primary_profession"`
	KnownForTitles    string `json:"known_for_titles"`
}

// Summary reports the outcome of one batch ingestion run.
type Summary struct {
	RowsFound    int `json:"rows_found"`
	RowsIngested int `json:"rows_ingested"`
	RowsFailed   int `json:"rows_failed"`
}
