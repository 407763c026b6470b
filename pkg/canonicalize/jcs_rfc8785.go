package canonicalize

import (
	"encoding/json"
	"fmt"

	webpkijcs "github.com/gowebpki/jcs"
)

// VerifyRFC8785 re-derives v's canonical form using the independent
// github.com/gowebpki/jcs reference implementation and compares it
// byte-for-byte against this package's own JCS output. It exists as a
// cross-check path — callers that need to prove a stored hash matches
// the RFC 8785 reference encoder (rather than trust our hand-rolled
// one) can call this instead of JCS directly.
func VerifyRFC8785(v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("canonicalize: marshal: %w", err)
	}

	ours, err := JCS(v)
	if err != nil {
		return false, err
	}

	theirs, err := webpkijcs.Transform(raw)
	if err != nil {
		return false, fmt.Errorf("canonicalize: rfc8785 transform: %w", err)
	}

	return string(ours) == string(theirs), nil
}
