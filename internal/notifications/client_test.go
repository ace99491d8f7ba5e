package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"telemetry_ingest/internal/ingest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsToTopic(t *testing.T) {
	var gotPath, gotBody, gotPriority string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPriority = r.Header.Get("Priority")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "fleet-ingest", "high", zerolog.Nop())
	require.NoError(t, c.Send(context.Background(), "done"))
	assert.Equal(t, "/fleet-ingest", gotPath)
	assert.Equal(t, "high", gotPriority)
	assert.Equal(t, "done", gotBody)
}

func TestSendCategorizesHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "auth"},
		{http.StatusTooManyRequests, "rate_limit"},
		{http.StatusBadRequest, "client"},
		{http.StatusBadGateway, "server"},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		err := NewClient(srv.URL, "t", "", zerolog.Nop()).Send(context.Background(), "x")
		srv.Close()

		var nerr *NotificationError
		require.True(t, errors.As(err, &nerr), "status %d", tt.status)
		assert.Equal(t, tt.want, nerr.Type)
		assert.Equal(t, tt.status, nerr.StatusCode)
	}
}

func TestFormatSummaryTruncatesFailedKeys(t *testing.T) {
	var keys []string
	for i := 0; i < 12; i++ {
		keys = append(keys, fmt.Sprintf("IMEI-1/2024-01-%02d.xlsx", i+1))
	}
	msg := formatSummary(ingest.Summary{
		RunID:           "run-1",
		Succeeded:       3,
		Failed:          12,
		FailedKeys:      keys,
		RecordsInserted: 40,
		Elapsed:         1500 * time.Millisecond,
	})

	assert.True(t, strings.HasPrefix(msg, "Telemetry ingest completed: 15 files processed, 40 inserted records\n"))
	assert.Contains(t, msg, "12 files failed:")
	assert.Contains(t, msg, "- IMEI-1/2024-01-10.xlsx")
	assert.NotContains(t, msg, "2024-01-11")
	assert.Contains(t, msg, "... and 2 more")
	assert.True(t, strings.HasSuffix(msg, "Run run-1 took 1.5s"))
}

func TestReporterSendsOnBatchDone(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))
	defer srv.Close()

	r := NewReporter(NewClient(srv.URL, "t", "", zerolog.Nop()), zerolog.Nop())
	ctx := context.Background()
	r.BatchStarted(ctx, "run-1", 1)
	r.FileDone(ctx, ingest.FileEvent{})
	r.BatchDone(ctx, ingest.Summary{RunID: "run-1"})
	assert.Equal(t, 1, calls)
}
