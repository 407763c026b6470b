package tools

import "github.com/ChrisPatten/capital-os/pkg/canonicalize"

// canonicalResponse renders v as canonical JSON and its hash, then
// returns v itself with output_hash attached — the same
// build-then-hash-then-embed shape every original per-tool handler
// uses before logging and persisting its response.
func canonicalResponse(v map[string]any) (map[string]any, string, error) {
	hash, err := canonicalize.CanonicalHash(v)
	if err != nil {
		return nil, "", err
	}
	v["output_hash"] = hash
	return v, hash, nil
}

func canonicalJSON(v any) (string, error) {
	b, err := canonicalize.JCS(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
