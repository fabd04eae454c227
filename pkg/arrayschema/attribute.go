package arrayschema

import (
	"strconv"
	"strings"
)

// Attribute is a named field stored per cell: an element type plus an
// arity (fixed cell size = arity * type byte width, or VarArity for
// variable-length cells).
type Attribute struct {
	Name  string
	Type  ElementType
	Arity int
}

// Dimension is a named axis of the coordinate space. The coordinate
// element type is shared across all dimensions of a Schema and is not
// stored on the Dimension itself.
type Dimension struct {
	Name string
}

// parseTypeSpec parses a textual type spec of the form
// "<scalar>[:<arity>|:var]" as described in spec §4.D. Missing arity
// defaults to 1; "var" yields VarArity; anything else must be a positive
// integer. An unrecognized scalar, non-positive arity, or trailing token
// fails with CodeBadTypeSpec.
func parseTypeSpec(spec string) (ElementType, int, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 2 {
		return 0, 0, newErr(CodeBadTypeSpec, "type spec %q has too many colon-separated tokens", spec)
	}

	scalar := parts[0]
	t, ok := elementTypeFromString(scalar)
	if !ok {
		return 0, 0, newErr(CodeBadTypeSpec, "unrecognized scalar type %q", scalar)
	}

	if len(parts) == 1 {
		return t, 1, nil
	}

	arityTok := parts[1]
	if arityTok == "var" {
		return t, VarArity, nil
	}

	n, err := strconv.Atoi(arityTok)
	if err != nil || n <= 0 {
		return 0, 0, newErr(CodeBadTypeSpec, "arity %q must be a positive integer or \"var\"", arityTok)
	}
	return t, n, nil
}

// isKeyValueCoordSpec recognizes the key-value coordinate spec
// "char:var", which expands dimensions to 4 synthetic INT32 hash
// dimensions (spec §4.D step 3).
func isKeyValueCoordSpec(spec string) bool {
	return spec == "char:var"
}
