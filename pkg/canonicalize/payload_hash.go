package canonicalize

// PayloadHash is the domain-facing name for CanonicalHash: it computes
// the SHA-256 hash of v's canonical JSON form. Money and Timestamp
// values normalize themselves through their own MarshalJSON
// implementations (quoted scale-4 decimal strings, quoted
// microsecond-UTC-Z timestamps) before this function ever sees them,
// so no separate tree-walking normalization pass is needed here.
func PayloadHash(v any) (string, error) {
	return CanonicalHash(v)
}
