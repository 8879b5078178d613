package storage

import (
	"fmt"
	"strings"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// timestamp writes times as RFC 3339 text, which SQLite stores verbatim and
// PostgreSQL parses into TIMESTAMPTZ.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// dbTime scans a TIMESTAMPTZ (time.Time) or the text written by timestamp.
type dbTime struct {
	t *time.Time
}

func (d dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d.t = v.UTC()
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case int64:
		*d.t = time.Unix(v, 0).UTC()
		return nil
	case nil:
		*d.t = time.Time{}
		return nil
	}
	return fmt.Errorf("scan timestamp: unsupported type %T", src)
}

func (d dbTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			*d.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: malformed value %q", s)
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
