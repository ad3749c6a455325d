package ingest

import (
	"strconv"
	"strings"
)

// NullSentinel is the literal token the relational source uses for an absent
// field value. It is distinct from the empty string.
const NullSentinel = `\N`

const multiDelimiter = ","

// NullableString coerces a raw string field. The NULL sentinel maps to nil;
// every other value passes through unchanged.
func NullableString(raw string) any {
	if raw == NullSentinel {
		return nil
	}
	return raw
}

// NullableInt coerces a raw integer field. The NULL sentinel maps to nil.
// Any other non-numeric value maps to zero, never to an error: upstream data
// is known to contain blanks and malformed numbers, and a single bad field
// must not cost the row.
func NullableInt(raw string) any {
	if raw == NullSentinel {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return int64(0)
	}
	return n
}

// NullableFloat coerces a raw floating-point field with the same leniency as
// NullableInt.
func NullableFloat(raw string) any {
	if raw == NullSentinel {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return float64(0)
	}
	return f
}

// Flag coerces a boolean-flag field: only the literal "1" is true, every
// other value including the NULL sentinel is false.
func Flag(raw string) bool {
	return raw == "1"
}

// SplitMulti splits a delimiter-separated multi-value field into atomic
// tokens: whitespace-trimmed, empty and sentinel tokens dropped, duplicates
// collapsed with first-occurrence order preserved. The NULL sentinel as the
// whole field yields zero tokens.
func SplitMulti(raw string) []string {
	if raw == "" || raw == NullSentinel {
		return nil
	}
	parts := strings.Split(raw, multiDelimiter)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" || token == NullSentinel {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
