package queue

import (
	"context"
	"testing"
)

func TestProcessIngestMessageRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{name: "invalid json", msg: "{not json"},
		{name: "missing participant name", msg: `{"job_id":"abc123"}`},
		{name: "empty participant name", msg: `{"job_id":"abc123","participant_name":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := ProcessIngestMessage(context.Background(), nil, nil, nil, tt.msg)
			if err == nil {
				t.Fatal("ProcessIngestMessage() error = nil, want error")
			}
			if summary.RowsFound != 0 || summary.RowsIngested != 0 || summary.RowsFailed != 0 {
				t.Errorf("ProcessIngestMessage() summary = %+v, want zero", summary)
			}
		})
	}
}
