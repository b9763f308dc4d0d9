package postgres

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// pgTextArray round-trips a Postgres TEXT[] column through the stdlib
// database/sql interface, which the pgx stdlib driver surfaces as the array
// literal text form.
type pgTextArray []string

func textArray(values []string) pgTextArray {
	return pgTextArray(values)
}

func (a pgTextArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(a))
	for _, v := range a {
		escaped := strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`)
		parts = append(parts, `"`+escaped+`"`)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

func (a *pgTextArray) Scan(src any) error {
	var literal string
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return fmt.Errorf("scan text array: unsupported type %T", src)
	}
	values, err := parseTextArray(literal)
	if err != nil {
		return fmt.Errorf("scan text array: %w", err)
	}
	*a = values
	return nil
}

func parseTextArray(literal string) ([]string, error) {
	literal = strings.TrimSpace(literal)
	if !strings.HasPrefix(literal, "{") || !strings.HasSuffix(literal, "}") {
		return nil, fmt.Errorf("malformed literal %q", literal)
	}
	inner := literal[1 : len(literal)-1]
	if inner == "" {
		return []string{}, nil
	}

	var (
		values   []string
		current  strings.Builder
		inQuotes bool
		escaped  bool
		quoted   bool
	)
	flush := func() {
		v := current.String()
		// A bare NULL element is a SQL null; the quoted string "NULL" is
		// the literal word.
		if v == "NULL" && !quoted {
			v = ""
		}
		values = append(values, v)
		current.Reset()
		quoted = false
	}
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case escaped:
			current.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
			quoted = true
		case c == ',' && !inQuotes:
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return values, nil
}
