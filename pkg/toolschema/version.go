package toolschema

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is this build's tool-schema version. Bump the minor
// version when a tool gains an optional field, the major version
// when a required field is added/removed/renamed. Grounded on the
// teacher's pkg/trust/pack_loader.go, which gates pack compatibility
// the same way: parse the installed version once, compare it against
// a caller-supplied constraint.
const Version = "1.0.0"

var parsedVersion = semver.MustParse(Version)

// CheckCompatible reports whether this build's schema Version
// satisfies constraint (e.g. "^1.0.0", ">=1.0.0, <2.0.0"). A caller
// pinned to an incompatible major version — the CLI's `tool schema`
// command, or a stdio client's `initialize` call — should refuse to
// proceed rather than send a payload shaped for a schema revision
// this build doesn't speak.
func CheckCompatible(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("toolschema: invalid version constraint %q: %w", constraint, err)
	}
	return c.Check(parsedVersion), nil
}
