package arrayschema

// Geometry engine (component F): a stateless set of functions
// parameterized by Schema and coordinate element type T. None of these
// allocate long-lived state; HilbertID's only scratch is the
// caller-supplied buffer, so concurrent callers never contend.

func coordTypeOf[T Coordinate]() ElementType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	panic("unreachable")
}

func checkCoordType[T Coordinate](s *Schema) error {
	if coordTypeOf[T]() != s.coordsType {
		return newErr(CodeBadValue, "coordinate type %s does not match schema coordinate type %s", coordTypeOf[T](), s.coordsType)
	}
	return nil
}

func requireExtents[T Coordinate](s *Schema) ([]T, error) {
	extents := tileExtentsSlice[T](s)
	if extents == nil {
		return nil, newErr(CodeBadValue, "operation requires regular tile extents")
	}
	return extents, nil
}

// CellNumInRangeSlab counts the cells along the fastest-varying
// dimension inside a slab-aligned range: the last dimension under
// row-major order, the first under column-major. Undefined (fails) for
// Hilbert cell order.
func CellNumInRangeSlab[T Coordinate](s *Schema, rng []T) (T, error) {
	if err := checkCoordType[T](s); err != nil {
		return 0, err
	}
	fast, err := fastestDim(s.cellOrder, s.DimNum())
	if err != nil {
		return 0, err
	}
	return rng[2*fast+1] - rng[2*fast] + 1, nil
}

// CellNumInTileSlab returns the tile extent along the fastest-varying
// dimension.
func CellNumInTileSlab[T Coordinate](s *Schema) (T, error) {
	if err := checkCoordType[T](s); err != nil {
		return 0, err
	}
	extents, err := requireExtents[T](s)
	if err != nil {
		return 0, err
	}
	fast, err := fastestDim(s.cellOrder, s.DimNum())
	if err != nil {
		return 0, err
	}
	return extents[fast], nil
}

func fastestDim(order CellOrder, dimNum int) (int, error) {
	switch order {
	case RowMajor:
		return dimNum - 1, nil
	case ColMajor:
		return 0, nil
	default:
		return 0, newErr(CodeIncompatibleOrder, "fastest-varying dimension is undefined for hilbert order")
	}
}

// GetCellPos returns the linear position of coords within its tile,
// given the schema's tile extents. coords must already lie in
// [0, extent_i) per dimension; out-of-range coordinates are caller
// responsibility per spec (undefined behavior, not validated here).
func GetCellPos[T Coordinate](s *Schema, coords []T) (int64, error) {
	if err := checkCoordType[T](s); err != nil {
		return 0, err
	}
	extents, err := requireExtents[T](s)
	if err != nil {
		return 0, err
	}
	d := s.DimNum()
	strides := make([]int64, d)
	switch s.cellOrder {
	case RowMajor:
		strides[d-1] = 1
		for i := d - 2; i >= 0; i-- {
			strides[i] = strides[i+1] * int64(extents[i+1])
		}
	case ColMajor:
		strides[0] = 1
		for i := 1; i < d; i++ {
			strides[i] = strides[i-1] * int64(extents[i-1])
		}
	default:
		return 0, newErr(CodeIncompatibleOrder, "get_cell_pos is undefined for hilbert cell order")
	}
	var pos int64
	for i := 0; i < d; i++ {
		pos += int64(coords[i]) * strides[i]
	}
	return pos, nil
}

// GetTilePos returns the linear position of tileCoords among tiles,
// analogous to GetCellPos but driven by tile order and per-dimension
// tile counts derived from the schema's tile domain.
func GetTilePos[T Coordinate](s *Schema, tileCoords []T) (int64, error) {
	if err := checkCoordType[T](s); err != nil {
		return 0, err
	}
	if s.tileOrder == Hilbert || s.cellOrder == Hilbert {
		return 0, newErr(CodeIncompatibleOrder, "get_tile_pos is undefined for hilbert cell or tile order")
	}
	tileDomain := tileDomainSlice[T](s)
	if tileDomain == nil {
		return 0, newErr(CodeBadValue, "get_tile_pos requires regular tile extents")
	}
	d := s.DimNum()
	counts := make([]int64, d)
	for i := 0; i < d; i++ {
		counts[i] = int64(tileDomain[2*i+1]-tileDomain[2*i]) + 1
	}
	strides := make([]int64, d)
	switch s.tileOrder {
	case RowMajor:
		strides[d-1] = 1
		for i := d - 2; i >= 0; i-- {
			strides[i] = strides[i+1] * counts[i+1]
		}
	case ColMajor:
		strides[0] = 1
		for i := 1; i < d; i++ {
			strides[i] = strides[i-1] * counts[i-1]
		}
	}
	var pos int64
	for i := 0; i < d; i++ {
		pos += int64(tileCoords[i]) * strides[i]
	}
	return pos, nil
}

// GetNextTileCoords increments tileCoords in place, one step along the
// fastest-varying dimension of the tile order, carrying into slower
// dimensions as each one overflows domain's per-dimension upper bound.
// Row-major carries from the last dimension toward the first;
// column-major from the first toward the last. The terminal state is
// reached when the outermost dimension (in carry order) is left past
// its upper bound; callers detect this by comparing against domain.
func GetNextTileCoords[T Coordinate](s *Schema, domain []T, tileCoords []T) error {
	if err := checkCoordType[T](s); err != nil {
		return err
	}
	d := s.DimNum()
	switch s.tileOrder {
	case RowMajor:
		for i := d - 1; i >= 0; i-- {
			tileCoords[i]++
			if tileCoords[i] <= domain[2*i+1] {
				return nil
			}
			if i == 0 {
				return nil // terminal: outermost dim left past its upper bound
			}
			tileCoords[i] = domain[2*i]
		}
	case ColMajor:
		for i := 0; i < d; i++ {
			tileCoords[i]++
			if tileCoords[i] <= domain[2*i+1] {
				return nil
			}
			if i == d-1 {
				return nil
			}
			tileCoords[i] = domain[2*i]
		}
	default:
		return newErr(CodeIncompatibleOrder, "get_next_tile_coords is undefined for hilbert tile order")
	}
	return nil
}

// HilbertID shifts coords by the domain's per-dimension lower bound,
// casts to integer (truncating toward zero, which is lossy for floating
// coordinate types), and invokes the Hilbert forward map with
// the schema's bit budget. scratch must have length DimNum() and is
// owned by the caller, so concurrent callers never contend (spec §5).
func HilbertID[T Coordinate](s *Schema, coords []T, scratch []uint32) (uint64, error) {
	if err := checkCoordType[T](s); err != nil {
		return 0, err
	}
	if s.hilbertCurve == nil {
		return 0, newErr(CodeIncompatibleOrder, "hilbert_id requires hilbert cell order")
	}
	domain := domainSlice[T](s)
	shifted := make([]uint32, s.DimNum())
	for i := range shifted {
		shifted[i] = uint32(int64(coords[i] - domain[2*i]))
	}
	return s.hilbertCurve.Index(shifted, scratch), nil
}

// overlapKind classifies the overlap of a query range against a
// rectangle (an MBR or an absolute tile rectangle), per spec §4.F.
// 0: disjoint. 2: partial overlap. 3: contiguous/full overlap. 1 never
// escapes this function.
func overlapKind[T Coordinate](order CellOrder, dimNum int, out, rect []T) int {
	if rangeEqual(out, rect) {
		return 3
	}
	if order != Hilbert && contigExcludingSlowest(order, dimNum, out, rect) {
		return 3
	}
	return 2
}

func rangeEqual[T Coordinate](a, b []T) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// contigExcludingSlowest checks equality on every dimension but the
// slowest-varying one (row-major: dim 0; column-major: the last dim).
func contigExcludingSlowest[T Coordinate](order CellOrder, dimNum int, out, rect []T) bool {
	lo, hi := 1, dimNum-1 // row-major: check dims [1, dimNum-1]
	if order == ColMajor {
		lo, hi = 0, dimNum-2 // column-major: check dims [0, dimNum-2]
	}
	for i := lo; i <= hi; i++ {
		if out[2*i] != rect[2*i] || out[2*i+1] != rect[2*i+1] {
			return false
		}
	}
	return true
}

func maxCoord[T Coordinate](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func minCoord[T Coordinate](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// ComputeMBRRangeOverlap intersects rng against mbr dimension-wise and
// classifies the result. A nil overlap range means disjoint (kind 0).
func ComputeMBRRangeOverlap[T Coordinate](s *Schema, rng, mbr []T) ([]T, int, error) {
	if err := checkCoordType[T](s); err != nil {
		return nil, 0, err
	}
	d := s.DimNum()
	out := make([]T, 2*d)
	for i := 0; i < d; i++ {
		lo := maxCoord(mbr[2*i], rng[2*i])
		hi := minCoord(mbr[2*i+1], rng[2*i+1])
		if lo > hi {
			return nil, 0, nil
		}
		out[2*i], out[2*i+1] = lo, hi
	}
	return out, overlapKind(s.cellOrder, d, out, mbr), nil
}

// ComputeTileRangeOverlap is ComputeMBRRangeOverlap against the absolute
// rectangle of the tile identified by tileCoords, with the result
// re-based to be zero-origin within that tile.
func ComputeTileRangeOverlap[T Coordinate](s *Schema, rng, tileCoords []T) ([]T, int, error) {
	if err := checkCoordType[T](s); err != nil {
		return nil, 0, err
	}
	domain := domainSlice[T](s)
	extents, err := requireExtents[T](s)
	if err != nil {
		return nil, 0, err
	}
	d := s.DimNum()
	tileRect := make([]T, 2*d)
	for i := 0; i < d; i++ {
		lo := domain[2*i] + tileCoords[i]*extents[i]
		tileRect[2*i] = lo
		tileRect[2*i+1] = lo + extents[i] - 1
	}

	out := make([]T, 2*d)
	for i := 0; i < d; i++ {
		lo := maxCoord(tileRect[2*i], rng[2*i])
		hi := minCoord(tileRect[2*i+1], rng[2*i+1])
		if lo > hi {
			return nil, 0, nil
		}
		out[2*i], out[2*i+1] = lo, hi
	}
	kind := overlapKind(s.cellOrder, d, out, tileRect)

	rebased := make([]T, 2*d)
	for i := 0; i < d; i++ {
		rebased[2*i] = out[2*i] - tileRect[2*i]
		rebased[2*i+1] = out[2*i+1] - tileRect[2*i]
	}
	return rebased, kind, nil
}
