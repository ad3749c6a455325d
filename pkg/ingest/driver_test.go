package ingest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/store"
	"github.com/cinegraph/backend/pkg/store/memory"
)

type stubSource struct {
	rows []common.Row
	err  error
}

func (s *stubSource) RowsForParticipant(ctx context.Context, name string) ([]common.Row, error) {
	return s.rows, s.err
}

type stubEmbedder struct {
	vec  []float64
	errs int
}

func (e *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if e.errs > 0 {
		e.errs--
		return nil, errors.New("embedding backend down")
	}
	return e.vec, nil
}

// unavailableAfter fails every unit of work past the first n with a store
// connectivity error.
type unavailableAfter struct {
	store.GraphStore
	remaining int
}

func (s *unavailableAfter) ExecuteAtomic(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	if s.remaining <= 0 {
		return fmt.Errorf("connection refused: %w", store.ErrUnavailable)
	}
	s.remaining--
	return s.GraphStore.ExecuteAtomic(ctx, fn)
}

func newTestDriver(t *testing.T, rows []common.Row) (*Driver, *memory.Store) {
	t.Helper()
	mem := memory.NewStore()
	d, err := NewDriver(NewDriverParams{
		Source: &stubSource{rows: rows},
		Store:  mem,
	})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	return d, mem
}

func TestIngestForParticipantIdempotence(t *testing.T) {
	d, mem := newTestDriver(t, []common.Row{gilliamRow()})

	for pass := 1; pass <= 2; pass++ {
		got, err := d.IngestForParticipant(context.Background(), "Terry Gilliam")
		if err != nil {
			t.Fatalf("pass %d: IngestForParticipant() error = %v", pass, err)
		}
		want := common.Summary{RowsFound: 1, RowsIngested: 1}
		if got != want {
			t.Fatalf("pass %d: summary = %+v, want %+v", pass, got, want)
		}
	}

	if n := mem.NodeCount(common.NodeGenre); n != 2 {
		t.Errorf("genre nodes = %d, want 2 after double ingestion", n)
	}
	if n := mem.RelationshipCount(common.RelInGenre); n != 2 {
		t.Errorf("IN_GENRE rels = %d, want 2 after double ingestion", n)
	}
	if n := mem.RelationshipCount(""); n != 6 {
		t.Errorf("total rels = %d, want 6 after double ingestion", n)
	}

	props, ok := mem.NodeProps(common.NodeMovie, "tt001")
	if !ok {
		t.Fatal("movie tt001 not stored")
	}
	if props["title"] != "Brazil" || props["startYear"] != int64(1985) || props["isAdult"] != false {
		t.Errorf("movie props = %#v", props)
	}
}

func TestIngestRowSparsePatch(t *testing.T) {
	d, mem := newTestDriver(t, nil)

	full := gilliamRow()
	full.Plot = "A bureaucrat dreams of escape."
	if err := d.IngestRow(context.Background(), full); err != nil {
		t.Fatalf("IngestRow() error = %v", err)
	}

	sparse := gilliamRow()
	sparse.Plot = `\N`
	sparse.StartYear = `\N`
	if err := d.IngestRow(context.Background(), sparse); err != nil {
		t.Fatalf("IngestRow() error = %v", err)
	}

	props, ok := mem.NodeProps(common.NodeMovie, "tt001")
	if !ok {
		t.Fatal("movie tt001 not stored")
	}
	if props["plot"] != "A bureaucrat dreams of escape." {
		t.Errorf("plot = %#v, want value from first merge preserved", props["plot"])
	}
	if props["startYear"] != int64(1985) {
		t.Errorf("startYear = %#v, want int64(1985) preserved", props["startYear"])
	}
}

func TestIngestForParticipantBatchResilience(t *testing.T) {
	rows := make([]common.Row, 0, 10)
	for i := 0; i < 10; i++ {
		row := gilliamRow()
		row.TitleID = fmt.Sprintf("tt%03d", i)
		if i == 4 {
			row.TitleID = `\N`
		}
		rows = append(rows, row)
	}

	d, _ := newTestDriver(t, rows)
	got, err := d.IngestForParticipant(context.Background(), "Terry Gilliam")
	if err != nil {
		t.Fatalf("IngestForParticipant() error = %v", err)
	}
	want := common.Summary{RowsFound: 10, RowsIngested: 9, RowsFailed: 1}
	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
}

func TestIngestForParticipantStoreUnavailableAborts(t *testing.T) {
	rows := []common.Row{gilliamRow(), gilliamRow(), gilliamRow()}
	mem := memory.NewStore()
	d, err := NewDriver(NewDriverParams{
		Source: &stubSource{rows: rows},
		Store:  &unavailableAfter{GraphStore: mem, remaining: 1},
	})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	got, err := d.IngestForParticipant(context.Background(), "Terry Gilliam")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("IngestForParticipant() error = %v, want ErrUnavailable", err)
	}
	if got.RowsIngested != 1 {
		t.Errorf("rows ingested before abort = %d, want 1", got.RowsIngested)
	}
	if got.RowsFailed != 0 {
		t.Errorf("rows failed = %d, want 0: unavailability is not a row failure", got.RowsFailed)
	}
}

func TestIngestForParticipantSourceFailureAborts(t *testing.T) {
	mem := memory.NewStore()
	d, err := NewDriver(NewDriverParams{
		Source: &stubSource{err: errors.New("source offline")},
		Store:  mem,
	})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	got, err := d.IngestForParticipant(context.Background(), "Terry Gilliam")
	if err == nil {
		t.Fatal("expected error on row source failure")
	}
	if got.RowsFound != 0 {
		t.Errorf("rows found = %d, want 0", got.RowsFound)
	}
}

func TestIngestForParticipantCancellationBetweenRows(t *testing.T) {
	rows := []common.Row{gilliamRow(), gilliamRow()}
	d, _ := newTestDriver(t, rows)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.IngestForParticipant(ctx, "Terry Gilliam")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("IngestForParticipant() error = %v, want context.Canceled", err)
	}
}

func TestIngestForParticipantParallel(t *testing.T) {
	rows := make([]common.Row, 0, 20)
	for i := 0; i < 20; i++ {
		row := gilliamRow()
		row.TitleID = fmt.Sprintf("tt%03d", i)
		rows = append(rows, row)
	}

	mem := memory.NewStore()
	d, err := NewDriver(NewDriverParams{
		Source:       &stubSource{rows: rows},
		Store:        mem,
		ParallelRows: 4,
	})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	got, err := d.IngestForParticipant(context.Background(), "Terry Gilliam")
	if err != nil {
		t.Fatalf("IngestForParticipant() error = %v", err)
	}
	want := common.Summary{RowsFound: 20, RowsIngested: 20}
	if got != want {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
	// Every KNOWN_FOR target (tt001, tt002) is itself among the ingested
	// movies, so no extra placeholder nodes appear.
	if n := mem.NodeCount(common.NodeMovie); n != 20 {
		t.Errorf("movie nodes = %d, want 20", n)
	}
}

func TestKnownForDanglingReferenceSelfHeals(t *testing.T) {
	d, mem := newTestDriver(t, nil)

	if err := d.IngestRow(context.Background(), gilliamRow()); err != nil {
		t.Fatalf("IngestRow() error = %v", err)
	}

	if !mem.HasRelationship(common.Relationship{
		Label:      common.RelKnownFor,
		SourceType: common.NodePerson,
		SourceID:   "nm001",
		TargetType: common.NodeMovie,
		TargetID:   "tt002",
	}) {
		t.Fatal("dangling KNOWN_FOR edge to tt002 not created")
	}
	props, ok := mem.NodeProps(common.NodeMovie, "tt002")
	if !ok {
		t.Fatal("placeholder node for tt002 missing")
	}
	if len(props) != 0 {
		t.Errorf("placeholder tt002 props = %#v, want empty", props)
	}

	later := gilliamRow()
	later.TitleID = "tt002"
	later.PrimaryTitle = "Twelve Monkeys"
	later.StartYear = "1995"
	if err := d.IngestRow(context.Background(), later); err != nil {
		t.Fatalf("IngestRow() error = %v", err)
	}

	props, _ = mem.NodeProps(common.NodeMovie, "tt002")
	if props["title"] != "Twelve Monkeys" || props["startYear"] != int64(1995) {
		t.Errorf("tt002 props after its own row = %#v", props)
	}
}

func TestIngestRowAttachesPlotEmbedding(t *testing.T) {
	mem := memory.NewStore()
	emb := &stubEmbedder{vec: []float64{0.1, 0.2, 0.3}}
	d, err := NewDriver(NewDriverParams{
		Source:   &stubSource{},
		Store:    mem,
		Embedder: emb,
	})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	row := gilliamRow()
	row.Plot = "A bureaucrat dreams of escape."
	if err := d.IngestRow(context.Background(), row); err != nil {
		t.Fatalf("IngestRow() error = %v", err)
	}

	props, _ := mem.NodeProps(common.NodeMovie, "tt001")
	if !reflect.DeepEqual(props["plotEmbedding"], []float64{0.1, 0.2, 0.3}) {
		t.Errorf("plotEmbedding = %#v, want stub vector", props["plotEmbedding"])
	}
}

func TestIngestRowEmbeddingFailureDoesNotFailRow(t *testing.T) {
	mem := memory.NewStore()
	d, err := NewDriver(NewDriverParams{
		Source:   &stubSource{},
		Store:    mem,
		Embedder: &stubEmbedder{errs: 1},
	})
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}

	row := gilliamRow()
	row.Plot = "A bureaucrat dreams of escape."
	if err := d.IngestRow(context.Background(), row); err != nil {
		t.Fatalf("IngestRow() error = %v, embedding failure must not fail the row", err)
	}

	props, _ := mem.NodeProps(common.NodeMovie, "tt001")
	if _, ok := props["plotEmbedding"]; ok {
		t.Error("plotEmbedding stored despite embedder failure")
	}
}
