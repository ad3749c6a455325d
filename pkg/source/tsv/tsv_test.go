package tsv

import (
	"context"
	"strings"
	"testing"
)

const sampleDump = "tconst\tprimaryTitle\tisAdult\tstartYear\tgenres\tnconst\tprimaryName\tprimaryProfession\tknownForTitles\n" +
	"tt001\tBrazil\t0\t1985\tComedy,Sci-Fi\tnm001\tTerry Gilliam\tdirector\ttt001,tt002\n" +
	"tt002\tTwelve Monkeys\t0\t1995\tSci-Fi,Thriller\tnm001\tTerry Gilliam\tdirector\ttt001,tt002\n" +
	"tt003\tAlien\t0\t1979\tHorror,Sci-Fi\tnm002\tRidley Scott\tdirector,producer\ttt003\n"

func TestRowsForParticipant(t *testing.T) {
	src, err := NewRowSource(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("NewRowSource() error = %v", err)
	}

	rows, err := src.RowsForParticipant(context.Background(), "Terry Gilliam")
	if err != nil {
		t.Fatalf("RowsForParticipant() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].TitleID != "tt001" || rows[0].PrimaryTitle != "Brazil" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Genres != "Sci-Fi,Thriller" {
		t.Errorf("rows[1].Genres = %q", rows[1].Genres)
	}
	// Columns absent from the dump stay empty, not sentinel.
	if rows[0].Plot != "" {
		t.Errorf("rows[0].Plot = %q, want empty", rows[0].Plot)
	}
}

func TestRowsForParticipantUnknownName(t *testing.T) {
	src, err := NewRowSource(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("NewRowSource() error = %v", err)
	}

	rows, err := src.RowsForParticipant(context.Background(), "Nobody")
	if err != nil {
		t.Fatalf("RowsForParticipant() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestNewRowSourceEmptyDump(t *testing.T) {
	src, err := NewRowSource(strings.NewReader(""))
	if err != nil {
		t.Fatalf("NewRowSource() error = %v", err)
	}
	rows, err := src.RowsForParticipant(context.Background(), "Anyone")
	if err != nil {
		t.Fatalf("RowsForParticipant() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestRowSourceIsRestartable(t *testing.T) {
	src, err := NewRowSource(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("NewRowSource() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		rows, err := src.RowsForParticipant(context.Background(), "Ridley Scott")
		if err != nil {
			t.Fatalf("pass %d: RowsForParticipant() error = %v", i+1, err)
		}
		if len(rows) != 1 {
			t.Fatalf("pass %d: got %d rows, want 1", i+1, len(rows))
		}
	}
}
