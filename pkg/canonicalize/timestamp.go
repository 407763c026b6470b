package canonicalize

import (
	"strings"
	"time"
)

// microLayout is RFC 3339 with exactly six fractional-second digits
// and a literal "Z" offset — the canonical timestamp rendering every
// hashed payload in this system uses.
const microLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp wraps time.Time so that it marshals to canonical JSON as a
// microsecond-precision UTC string with a trailing "Z", matching the
// rule that canonical hashing normalizes every timestamp to that
// representation before it is quantized into a payload hash.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to microsecond precision in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Microsecond)}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.UTC().Format(microLayout) + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	t, err := time.Parse(microLayout, s)
	if err != nil {
		// Accept any RFC3339-compatible variant (fewer fractional
		// digits, explicit zero offset) rather than rejecting input
		// that is semantically identical but not byte-identical to
		// our own canonical rendering.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	*ts = NewTimestamp(t)
	return nil
}

func (ts Timestamp) String() string {
	return ts.UTC().Format(microLayout)
}
