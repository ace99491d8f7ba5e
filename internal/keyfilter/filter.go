package keyfilter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"telemetry_ingest/internal/objectstore"

	"github.com/rs/zerolog"
)

// ErrInvalidKeyFormat is returned by ParseKey when the file name does not start
// with a YYYY-MM-DD date.
var ErrInvalidKeyFormat = errors.New("invalid key format")

var fileDatePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// Key is the information carried by an object key of the form
// <dirname>-<deviceId>/<YYYY-MM-DD...>.
type Key struct {
	DeviceID string
	Date     time.Time
}

// NumericDeviceID parses DeviceID as a base-10 number. Identifiers with anything
// other than digits (signs included) do not parse.
func (k Key) NumericDeviceID() (int64, bool) {
	if k.DeviceID == "" {
		return 0, false
	}
	for _, r := range k.DeviceID {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(k.DeviceID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseKey splits key into its device directory and file name. The device
// identifier is everything after the first '-' of the directory; a directory
// without '-' yields an empty identifier.
func ParseKey(key string) (Key, error) {
	segments := strings.Split(key, "/")

	var parsed Key
	if _, after, ok := strings.Cut(segments[0], "-"); ok {
		parsed.DeviceID = after
	}

	if len(segments) < 2 {
		return parsed, fmt.Errorf("%w: %s: no file name", ErrInvalidKeyFormat, key)
	}
	match := fileDatePattern.FindStringSubmatch(segments[1])
	if match == nil {
		return parsed, fmt.Errorf("%w: %s: file name has no leading date", ErrInvalidKeyFormat, key)
	}
	date, err := time.Parse("2006-01-02", match[1])
	if err != nil {
		return parsed, fmt.Errorf("%w: %s: %v", ErrInvalidKeyFormat, key, err)
	}
	parsed.Date = date
	return parsed, nil
}

// Matches reports whether an already parsed key satisfies c.
func (c Criteria) Matches(k Key) bool {
	id, ok := k.NumericDeviceID()
	if !ok {
		return false
	}
	return c.HasDevice(id) && c.InRange(k.Date)
}

// Filter keeps the objects whose key matches c, in listing order. Keys without a
// parsable date are logged and skipped.
func Filter(objects []objectstore.Object, c Criteria, log zerolog.Logger) []objectstore.Object {
	var kept []objectstore.Object
	invalid := 0
	for _, obj := range objects {
		k, err := ParseKey(obj.Key)
		if err != nil {
			invalid++
			log.Warn().Err(err).Str("key", obj.Key).Msg("Invalid date format in file")
			continue
		}
		if c.Matches(k) {
			kept = append(kept, obj)
		}
	}

	log.Debug().
		Int("listed", len(objects)).
		Int("invalid", invalid).
		Int("kept", len(kept)).
		Msg("Filtered objects")
	return kept
}
