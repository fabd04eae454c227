package arrayschema

import (
	"fmt"
	"strings"

	"github.com/tilegrid/arrayschema/internal/hilbert"
)

// Schema is the validated, immutable descriptor of a dense or sparse
// array's logical structure. It is constructed by Builder.Finalize or by
// Deserialize, never directly. After construction the accessors that
// take no argument never fail. The index-taking accessors (Attribute,
// Type, CellSize, Compression, TileSize) return BAD_VALUE for an index
// outside [0, AttributeNum()]; AttributeIDs returns BAD_VALUE for an
// unknown name; TileNum returns BAD_VALUE without regular tile extents
// or for a floating coordinate type.
type Schema struct {
	name       string
	attributes []Attribute // length attributeNum, coords attribute is implicit
	dimensions []Dimension
	coordsType ElementType
	dense      bool
	keyValue   bool

	domain      any // []T, len 2*dimNum
	tileExtents any // []T, len dimNum, or nil (irregular tiling)
	tileDomain  any // []T, len 2*dimNum, or nil

	capacity          int64
	consolidationStep int32
	cellOrder         CellOrder
	tileOrder         TileOrder
	compression       []Compression // length attributeNum+1, last slot is coordinates

	// derived (component E)
	cellSizes       []int // length attributeNum+1, varCellSize sentinel
	tileSizes       []int64
	cellNumPerTile  int64
	varAttributeNum int
	hilbertBits     int
	hilbertCurve    *hilbert.Curve
}

// Name returns the array name.
func (s *Schema) Name() string { return s.name }

// AttributeNum returns the number of declared attributes (excluding the
// synthetic coordinates attribute).
func (s *Schema) AttributeNum() int { return len(s.attributes) }

// DimNum returns the number of dimensions.
func (s *Schema) DimNum() int { return len(s.dimensions) }

// Dense reports whether the array is dense.
func (s *Schema) Dense() bool { return s.dense }

// KeyValue reports whether this schema was built from the key-value
// coordinate form ("char:var"), which expands to 4 synthetic INT32 hash
// dimensions.
func (s *Schema) KeyValue() bool { return s.keyValue }

// Capacity returns the target cell count per tile for sparse, irregularly
// tiled arrays; it equals cell_num_per_tile in that case.
func (s *Schema) Capacity() int64 { return s.capacity }

// ConsolidationStep returns the opaque consolidation step, consumed by an
// external collaborator.
func (s *Schema) ConsolidationStep() int32 { return s.consolidationStep }

// CellOrder returns the traversal order of cells within a tile.
func (s *Schema) CellOrder() CellOrder { return s.cellOrder }

// TileOrder returns the traversal order of tiles across the tile domain.
func (s *Schema) TileOrder() TileOrder { return s.tileOrder }

// Attributes returns the declared attributes, excluding the synthetic
// coordinates attribute.
func (s *Schema) Attributes() []Attribute {
	out := make([]Attribute, len(s.attributes))
	copy(out, s.attributes)
	return out
}

// Attribute returns the i-th attribute. i == AttributeNum() refers to the
// synthetic coordinates slot and returns an Attribute whose Name is
// CoordsName, whose Type is the coordinate type and whose Arity is
// DimNum().
func (s *Schema) Attribute(i int) (Attribute, error) {
	if i < 0 || i > len(s.attributes) {
		return Attribute{}, newErr(CodeBadValue, "attribute index %d out of range [0,%d]", i, len(s.attributes))
	}
	if i == len(s.attributes) {
		return Attribute{Name: CoordsName, Type: s.coordsType, Arity: s.DimNum()}, nil
	}
	return s.attributes[i], nil
}

// AttributeID resolves a name to an index. It returns NotFound, not an
// error, when the name is absent — the one accessor in this package with
// that contract (spec §7). CoordsName resolves to AttributeNum().
func (s *Schema) AttributeID(name string) int {
	if name == CoordsName {
		return len(s.attributes)
	}
	for i, a := range s.attributes {
		if a.Name == name {
			return i
		}
	}
	return NotFound
}

// AttributeIDs resolves a batch of names, failing on the first unknown
// name (supplemented from the original's get_attribute_ids, §C.1).
func (s *Schema) AttributeIDs(names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id := s.AttributeID(name)
		if id == NotFound {
			return nil, newErr(CodeBadValue, "attribute %q does not exist", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Type returns the element type of attribute/coordinates slot i
// (i == AttributeNum() is the coordinates slot).
func (s *Schema) Type(i int) (ElementType, error) {
	if i < 0 || i > len(s.attributes) {
		return 0, newErr(CodeBadValue, "type index %d out of range [0,%d]", i, len(s.attributes))
	}
	if i == len(s.attributes) {
		return s.coordsType, nil
	}
	return s.attributes[i].Type, nil
}

// CellSize returns the fixed cell size, in bytes, of slot i, or
// varCellSize if i is a variable-length attribute.
func (s *Schema) CellSize(i int) (int, error) {
	if i < 0 || i > len(s.attributes) {
		return 0, newErr(CodeBadValue, "cell size index %d out of range [0,%d]", i, len(s.attributes))
	}
	return s.cellSizes[i], nil
}

// CoordsSize returns cell_size(attribute_num): the fixed byte size of one
// coordinate tuple.
func (s *Schema) CoordsSize() int {
	return s.cellSizes[len(s.attributes)]
}

// VarSize reports whether slot i holds variable-length cells.
func (s *Schema) VarSize(i int) bool {
	return s.cellSizes[i] == varCellSize
}

// VarAttributeNum returns the number of variable-length attributes.
func (s *Schema) VarAttributeNum() int { return s.varAttributeNum }

// Compression returns the compression mode of slot i
// (i == AttributeNum() is the coordinates slot).
func (s *Schema) Compression(i int) (Compression, error) {
	if i < 0 || i > len(s.attributes) {
		return 0, newErr(CodeBadValue, "compression index %d out of range [0,%d]", i, len(s.attributes))
	}
	return s.compression[i], nil
}

// TileNum returns the total number of tiles, defined only for dense
// arrays and regularly tiled sparse arrays over integer coordinates
// (spec §8 property 3; §C.5 — returns BAD_VALUE instead of the original's
// assert-and-crash on a floating coordinate type).
func (s *Schema) TileNum() (int64, error) {
	if s.tileExtents == nil {
		return 0, newErr(CodeBadValue, "tile_num is undefined without regular tile extents")
	}
	switch s.coordsType {
	case Int32:
		return tileNumFor(tileDomainSlice[int32](s)), nil
	case Int64:
		return tileNumFor(tileDomainSlice[int64](s)), nil
	default:
		return 0, newErr(CodeBadValue, "tile_num requires an integer coordinate type, got %s", s.coordsType)
	}
}

func tileNumFor[T int32 | int64](tileDomain []T) int64 {
	var ret int64 = 1
	for i := 0; i < len(tileDomain)/2; i++ {
		ret *= int64(tileDomain[2*i+1]-tileDomain[2*i]) + 1
	}
	return ret
}

// CellNumPerTile returns the derived cell count per tile.
func (s *Schema) CellNumPerTile() int64 { return s.cellNumPerTile }

// TileSize returns the derived tile size, in bytes, for slot i.
func (s *Schema) TileSize(i int) (int64, error) {
	if i < 0 || i > len(s.attributes) {
		return 0, newErr(CodeBadValue, "tile size index %d out of range [0,%d]", i, len(s.attributes))
	}
	return s.tileSizes[i], nil
}

// String renders a human-readable dump of the schema, in the original's
// field order (supplemented, §C.2).
func (s *Schema) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Array name:\n\t%s\n", s.name)
	fmt.Fprintf(&b, "Dimension names:\n")
	for _, d := range s.dimensions {
		fmt.Fprintf(&b, "\t%s\n", d.Name)
	}
	fmt.Fprintf(&b, "Attribute names:\n")
	for _, a := range s.attributes {
		fmt.Fprintf(&b, "\t%s\n", a.Name)
	}
	fmt.Fprintf(&b, "Dense:\n\t%v\n", s.dense)
	fmt.Fprintf(&b, "Key-value:\n\t%v\n", s.keyValue)
	fmt.Fprintf(&b, "Cell order:\n\t%s\n", s.cellOrder)
	fmt.Fprintf(&b, "Tile order:\n\t%s\n", s.tileOrder)
	fmt.Fprintf(&b, "Capacity:\n\t%d\n", s.capacity)
	fmt.Fprintf(&b, "Consolidation step:\n\t%d\n", s.consolidationStep)
	return b.String()
}

func domainSlice[T Coordinate](s *Schema) []T {
	v, _ := s.domain.([]T)
	return v
}

func tileExtentsSlice[T Coordinate](s *Schema) []T {
	if s.tileExtents == nil {
		return nil
	}
	v, _ := s.tileExtents.([]T)
	return v
}

func tileDomainSlice[T Coordinate](s *Schema) []T {
	if s.tileDomain == nil {
		return nil
	}
	v, _ := s.tileDomain.([]T)
	return v
}

// Domain returns a copy of the array domain, laid out as
// [lo_0, hi_0, lo_1, hi_1, ...] (spec §4.C). T must match the schema's
// coordinate type; a mismatched T yields nil.
func Domain[T Coordinate](s *Schema) []T {
	src := domainSlice[T](s)
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// TileExtents returns a copy of the regular tile extents, one per
// dimension, or nil for an irregularly tiled (capacity-based) array.
func TileExtents[T Coordinate](s *Schema) []T {
	src := tileExtentsSlice[T](s)
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// TileDomain returns a copy of the tile domain, laid out like Domain but
// in tile-index units, or nil when tile extents are irregular.
func TileDomain[T Coordinate](s *Schema) []T {
	src := tileDomainSlice[T](s)
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}
