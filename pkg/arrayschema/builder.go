package arrayschema

import (
	"fmt"
	"math"
)

// Default values for optional fields left unset by the caller (spec
// §4.D: "unspecified capacity ⇒ implementation constant", etc).
const (
	defaultCapacity          int64 = 100000
	defaultConsolidationStep int32 = 1
	defaultOrder                   = RowMajor
)

// Builder accepts the fields of a Schema in any order, with shallow
// per-field validation as each is supplied, and performs the full
// cross-field validation and derived-table computation in Finalize.
// A Builder is single-owner, single-writer — like the Schema it
// produces, it supports no concurrent use.
type Builder struct {
	err *Error

	name    string
	nameSet bool

	attributes []Attribute

	dimNames []string

	coordsType    ElementType
	coordsTypeSet bool
	keyValue      bool
	keyValueDim   string // original dimension name expanded into 4 hash dims

	dense    bool
	denseSet bool

	domain      any
	tileExtents any

	capacity          int64
	capacitySet       bool
	consolidationStep int32
	consolidationSet  bool

	cellOrder    CellOrder
	cellOrderSet bool
	tileOrder    TileOrder
	tileOrderSet bool

	compression map[string]Compression
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{compression: make(map[string]Compression)}
}

func (b *Builder) fail(err *Error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetName sets the array name.
func (b *Builder) SetName(name string) *Builder {
	if b.err != nil {
		return b
	}
	b.name = name
	b.nameSet = true
	return b
}

// AddAttribute declares an attribute from a textual type spec of the
// form "<scalar>[:<arity>|:var]" (spec §4.D).
func (b *Builder) AddAttribute(name, typeSpec string) *Builder {
	if b.err != nil {
		return b
	}
	t, arity, err := parseTypeSpec(typeSpec)
	if err != nil {
		return b.fail(err.(*Error))
	}
	b.attributes = append(b.attributes, Attribute{Name: name, Type: t, Arity: arity})
	return b
}

// AddAttributeTyped declares an attribute directly from a structured
// element type and arity, bypassing textual type-spec parsing for
// callers that already hold typed values (§9 redesign note).
func (b *Builder) AddAttributeTyped(name string, t ElementType, arity int) *Builder {
	if b.err != nil {
		return b
	}
	if !t.Valid() {
		return b.fail(newErr(CodeBadTypeSpec, "unrecognized element type %v", t))
	}
	if arity <= 0 && arity != VarArity {
		return b.fail(newErr(CodeBadTypeSpec, "arity %d must be positive or VarArity", arity))
	}
	b.attributes = append(b.attributes, Attribute{Name: name, Type: t, Arity: arity})
	return b
}

// AddDimension declares a dimension by name; the coordinate element type
// is set separately via SetCoordsTypeSpec or SetCoordsType.
func (b *Builder) AddDimension(name string) *Builder {
	if b.err != nil {
		return b
	}
	b.dimNames = append(b.dimNames, name)
	return b
}

// SetCoordsTypeSpec sets the shared coordinate element type from a
// textual spec: one of "int32", "int64", "float32", "float64", or the
// key-value form "char:var", which marks the schema as key-value and
// defers dimension expansion to Finalize.
func (b *Builder) SetCoordsTypeSpec(spec string) *Builder {
	if b.err != nil {
		return b
	}
	if isKeyValueCoordSpec(spec) {
		b.keyValue = true
		b.coordsType = Int32
		b.coordsTypeSet = true
		return b
	}
	t, ok := elementTypeFromString(spec)
	if !ok {
		return b.fail(newErr(CodeBadTypeSpec, "unrecognized coordinate type %q", spec))
	}
	b.coordsType = t
	b.coordsTypeSet = true
	return b
}

// SetCoordsType sets the shared coordinate element type directly,
// bypassing textual parsing (§9 redesign note). Key-value mode is only
// reachable via SetCoordsTypeSpec("char:var").
func (b *Builder) SetCoordsType(t ElementType) *Builder {
	if b.err != nil {
		return b
	}
	if !t.Valid() {
		return b.fail(newErr(CodeBadTypeSpec, "unrecognized element type %v", t))
	}
	b.coordsType = t
	b.coordsTypeSet = true
	return b
}

// SetDense sets the dense flag.
func (b *Builder) SetDense(dense bool) *Builder {
	if b.err != nil {
		return b
	}
	b.dense = dense
	b.denseSet = true
	return b
}

// SetCapacity sets the target cell count per tile for sparse,
// irregularly tiled arrays.
func (b *Builder) SetCapacity(capacity int64) *Builder {
	if b.err != nil {
		return b
	}
	if capacity <= 0 {
		return b.fail(newErr(CodeBadValue, "capacity must be positive, got %d", capacity))
	}
	b.capacity = capacity
	b.capacitySet = true
	return b
}

// SetConsolidationStep sets the opaque consolidation step.
func (b *Builder) SetConsolidationStep(step int32) *Builder {
	if b.err != nil {
		return b
	}
	if step <= 0 {
		return b.fail(newErr(CodeBadValue, "consolidation step must be positive, got %d", step))
	}
	b.consolidationStep = step
	b.consolidationSet = true
	return b
}

// SetCellOrder sets the cell order from one of
// "row-major"|"column-major"|"hilbert".
func (b *Builder) SetCellOrder(order string) *Builder {
	if b.err != nil {
		return b
	}
	o, ok := cellOrderFromString(order)
	if !ok {
		return b.fail(newErr(CodeBadValue, "unrecognized cell order %q", order))
	}
	b.cellOrder = o
	b.cellOrderSet = true
	return b
}

// SetTileOrder sets the tile order from one of
// "row-major"|"column-major"|"hilbert".
func (b *Builder) SetTileOrder(order string) *Builder {
	if b.err != nil {
		return b
	}
	o, ok := cellOrderFromString(order)
	if !ok {
		return b.fail(newErr(CodeBadValue, "unrecognized tile order %q", order))
	}
	b.tileOrder = o
	b.tileOrderSet = true
	return b
}

// SetCompression sets the compression mode, one of "NONE"|"GZIP", for
// the named attribute. Pass CoordsName to set the coordinates'
// compression mode.
func (b *Builder) SetCompression(name, mode string) *Builder {
	if b.err != nil {
		return b
	}
	c, ok := compressionFromString(mode)
	if !ok {
		return b.fail(newErr(CodeBadValue, "unrecognized compression mode %q", mode))
	}
	b.compression[name] = c
	return b
}

// SetDomain sets the per-dimension inclusive [lo, hi] bounds, 2*D
// elements interleaved as [lo_0, hi_0, lo_1, hi_1, ...]. It is a free
// function, not a method, because Go methods cannot carry their own
// type parameters.
func SetDomain[T Coordinate](b *Builder, domain []T) *Builder {
	if b.err != nil {
		return b
	}
	b.domain = domain
	return b
}

// SetTileExtents sets the D regular tile extents, each strictly
// positive. Omit entirely for irregular (capacity-driven) sparse tiling.
func SetTileExtents[T Coordinate](b *Builder, extents []T) *Builder {
	if b.err != nil {
		return b
	}
	b.tileExtents = extents
	return b
}

// Finalize runs the validation order of spec §4.D and, on success,
// returns an immutable Schema with its derived tables populated. On any
// violation it returns a typed *Error and consumes no resources.
func (b *Builder) Finalize() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.nameSet || b.name == "" {
		return nil, newErr(CodeMissingField, "array name is required")
	}
	if !b.coordsTypeSet {
		return nil, newErr(CodeMissingField, "coordinate type is required")
	}

	// 1. Attributes: non-empty, names unique, disjoint from dimension names.
	if len(b.attributes) == 0 {
		return nil, newErr(CodeMissingField, "at least one attribute is required")
	}
	attrNames := make(map[string]bool, len(b.attributes))
	for _, a := range b.attributes {
		if attrNames[a.Name] {
			return nil, newErr(CodeDuplicateName, "duplicate attribute name %q", a.Name)
		}
		attrNames[a.Name] = true
	}

	// 2. Dimensions: non-empty, names unique.
	if len(b.dimNames) == 0 {
		return nil, newErr(CodeMissingField, "at least one dimension is required")
	}
	dimNames := make([]string, len(b.dimNames))
	copy(dimNames, b.dimNames)
	seenDim := make(map[string]bool, len(dimNames))
	for _, n := range dimNames {
		if seenDim[n] {
			return nil, newErr(CodeDuplicateName, "duplicate dimension name %q", n)
		}
		seenDim[n] = true
		if attrNames[n] {
			return nil, newErr(CodeDuplicateName, "name %q used for both an attribute and a dimension", n)
		}
	}

	// 3. Types parsed (already done incrementally); key-value expansion.
	dense := b.dense
	coordsType := b.coordsType
	if b.keyValue {
		if len(dimNames) != 1 {
			return nil, newErr(CodeBadValue, "key-value coordinates require exactly one placeholder dimension, got %d", len(dimNames))
		}
		if dense {
			return nil, newErr(CodeDenseCoordType, "key-value coordinates are incompatible with a dense array")
		}
		orig := dimNames[0]
		dimNames = make([]string, 4)
		for i := 0; i < 4; i++ {
			dimNames[i] = fmt.Sprintf("%s_%d", orig, i+1)
		}
		coordsType = Int32
	}
	if dense && coordsType != Int32 && coordsType != Int64 {
		return nil, newErr(CodeDenseCoordType, "dense arrays require an int32 or int64 coordinate type, got %s", coordsType)
	}

	dimNum := len(dimNames)

	// 4. Domain copied and checked (lo <= hi).
	domain := b.domain
	if b.keyValue {
		domain = fullInt32Domain(dimNum)
	}
	if domain == nil {
		return nil, newErr(CodeMissingField, "domain is required")
	}
	if err := checkDomainType(domain, coordsType, 2*dimNum); err != nil {
		return nil, err
	}
	if err := validateDomainBounds(domain, coordsType); err != nil {
		return nil, err
	}

	// 5. Tile extents copied; dense requires non-null.
	tileExtents := b.tileExtents
	if b.keyValue {
		tileExtents = nil
	}
	if dense && tileExtents == nil {
		return nil, newErr(CodeDenseRequiresExtents, "dense arrays require tile extents")
	}
	if tileExtents != nil {
		if err := checkDomainType(tileExtents, coordsType, dimNum); err != nil {
			return nil, err
		}
		if err := validateTileExtents(domain, tileExtents, coordsType, dimNum); err != nil {
			return nil, err
		}
	}

	// 6. Orders checked against the HILBERT/tile-extents constraint.
	cellOrder := defaultOrder
	if b.cellOrderSet {
		cellOrder = b.cellOrder
	}
	tileOrder := defaultOrder
	if b.tileOrderSet {
		tileOrder = b.tileOrder
	}
	if tileExtents != nil && (cellOrder == Hilbert || tileOrder == Hilbert) {
		return nil, newErr(CodeIncompatibleOrder, "hilbert order is incompatible with regular tile extents")
	}

	capacity := defaultCapacity
	if b.capacitySet {
		capacity = b.capacity
	}
	consolidationStep := defaultConsolidationStep
	if b.consolidationSet {
		consolidationStep = b.consolidationStep
	}

	attributes := make([]Attribute, len(b.attributes))
	copy(attributes, b.attributes)

	compression := make([]Compression, len(attributes)+1)
	for i, a := range attributes {
		compression[i] = b.compression[a.Name]
	}
	compression[len(attributes)] = b.compression[CoordsName]

	dimensions := make([]Dimension, dimNum)
	for i, n := range dimNames {
		dimensions[i] = Dimension{Name: n}
	}

	s := &Schema{
		name:              b.name,
		attributes:        attributes,
		dimensions:        dimensions,
		coordsType:        coordsType,
		dense:             dense,
		keyValue:          b.keyValue,
		domain:            domain,
		tileExtents:       tileExtents,
		capacity:          capacity,
		consolidationStep: consolidationStep,
		cellOrder:         cellOrder,
		tileOrder:         tileOrder,
		compression:       compression,
	}

	// 7. Derived tables computed.
	if err := computeDerived(s); err != nil {
		return nil, err
	}
	return s, nil
}

func fullInt32Domain(dimNum int) any {
	d := make([]int32, 2*dimNum)
	for i := 0; i < dimNum; i++ {
		d[2*i] = math.MinInt32
		d[2*i+1] = math.MaxInt32
	}
	return d
}

func checkDomainType(v any, coordsType ElementType, wantLen int) error {
	switch coordsType {
	case Int32:
		s, ok := v.([]int32)
		if !ok || len(s) != wantLen {
			return newErr(CodeBadValue, "domain/tile-extents buffer type or length mismatch for int32 coordinates")
		}
	case Int64:
		s, ok := v.([]int64)
		if !ok || len(s) != wantLen {
			return newErr(CodeBadValue, "domain/tile-extents buffer type or length mismatch for int64 coordinates")
		}
	case Float32:
		s, ok := v.([]float32)
		if !ok || len(s) != wantLen {
			return newErr(CodeBadValue, "domain/tile-extents buffer type or length mismatch for float32 coordinates")
		}
	case Float64:
		s, ok := v.([]float64)
		if !ok || len(s) != wantLen {
			return newErr(CodeBadValue, "domain/tile-extents buffer type or length mismatch for float64 coordinates")
		}
	default:
		return newErr(CodeBadValue, "coordinate type %s cannot carry a domain buffer", coordsType)
	}
	return nil
}

func validateDomainBounds(v any, coordsType ElementType) error {
	switch coordsType {
	case Int32:
		return validateBoundsOrdered(v.([]int32))
	case Int64:
		return validateBoundsOrdered(v.([]int64))
	case Float32:
		return validateBoundsOrdered(v.([]float32))
	case Float64:
		return validateBoundsOrdered(v.([]float64))
	}
	return nil
}

func validateBoundsOrdered[T Coordinate](domain []T) error {
	for i := 0; i < len(domain)/2; i++ {
		if domain[2*i] > domain[2*i+1] {
			return newErr(CodeBadValue, "dimension %d has lo > hi (%v > %v)", i, domain[2*i], domain[2*i+1])
		}
	}
	return nil
}

func validateTileExtents(domain, extents any, coordsType ElementType, dimNum int) error {
	switch coordsType {
	case Int32:
		return validateExtentsOrdered(domain.([]int32), extents.([]int32))
	case Int64:
		return validateExtentsOrdered(domain.([]int64), extents.([]int64))
	case Float32:
		return validateExtentsPositive(extents.([]float32))
	case Float64:
		return validateExtentsPositive(extents.([]float64))
	}
	return nil
}

// validateExtentsOrdered enforces strict positivity and, for integer
// coordinate types, that each per-dimension span divides evenly by the
// corresponding extent (spec §3 invariant 6, required for exact
// tile-count arithmetic).
func validateExtentsOrdered[T int32 | int64](domain, extents []T) error {
	for i, e := range extents {
		if e <= 0 {
			return newErr(CodeBadValue, "tile extent %d must be strictly positive, got %v", i, e)
		}
		span := domain[2*i+1] - domain[2*i] + 1
		if span%e != 0 {
			return newErr(CodeBadValue, "dimension %d span %v does not divide evenly by tile extent %v", i, span, e)
		}
	}
	return nil
}

func validateExtentsPositive[T float32 | float64](extents []T) error {
	for i, e := range extents {
		if e <= 0 {
			return newErr(CodeBadValue, "tile extent %d must be strictly positive, got %v", i, e)
		}
	}
	return nil
}
