package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// batchArgs are the inputs of one invocation.
type batchArgs struct {
	deviceIDs []int64
	start     time.Time
	end       time.Time
	logFile   string
}

// loadDotEnv loads .env if it exists. The result is reported once logging is set up.
func loadDotEnv() error {
	return godotenv.Load()
}

// parseDeviceIDs accepts a JSON array ("[1,2]") or a comma separated list ("1,2").
func parseDeviceIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("no device ids given")
	}
	if strings.HasPrefix(raw, "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, fmt.Errorf("invalid device id list %q: %w", raw, err)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("no device ids given")
		}
		return ids, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid device id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no device ids given")
	}
	return ids, nil
}

// parseDate accepts YYYY-MM-DD or a full RFC3339 timestamp; only the day is used.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func newBatchArgs(ids, start, end, logFile string) (batchArgs, error) {
	var (
		a   batchArgs
		err error
	)
	if a.deviceIDs, err = parseDeviceIDs(ids); err != nil {
		return a, err
	}
	if a.start, err = parseDate(start); err != nil {
		return a, err
	}
	if a.end, err = parseDate(end); err != nil {
		return a, err
	}
	if a.end.Before(a.start) {
		return a, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	a.logFile = logFile
	return a, nil
}

// openLogSink opens path for appending, creating it if needed. An empty path
// logs to stderr.
func openLogSink(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f.Close, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
