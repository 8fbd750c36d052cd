package library

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func parseTime(field string, value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}, &ParsingError{Field: field, Raw: value.String, Err: err}
	}
	return t, nil
}

// encodeWorkParts stores part indices as a comma separated list.
func encodeWorkParts(parts []int) string {
	if len(parts) == 0 {
		return ""
	}
	values := make([]string, len(parts))
	for i, p := range parts {
		values[i] = strconv.Itoa(p)
	}
	return strings.Join(values, ",")
}

func decodeWorkParts(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	fields := strings.Split(raw, ",")
	parts := make([]int, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || value < 0 {
			return nil, &ParsingError{Field: "tracks.work_parts", Raw: raw, Err: err}
		}
		parts = append(parts, value)
	}
	return parts, nil
}

func decodeTimes(table string, lastUsed, lastPlayed sql.NullString) (time.Time, time.Time, error) {
	used, err := parseTime(table+".last_used", lastUsed)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	played, err := parseTime(table+".last_played", lastPlayed)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return used, played, nil
}
