package arrayschema

import (
	"math"

	"github.com/tilegrid/arrayschema/internal/hilbert"
)

// computeDerived populates every derived field on s from its primary
// fields (component E). It is called exactly once, at the end of
// Builder.Finalize and again after Deserialize reconstructs the primary
// fields, never incrementally.
func computeDerived(s *Schema) error {
	n := len(s.attributes)
	s.cellSizes = make([]int, n+1)
	s.varAttributeNum = 0
	for i, a := range s.attributes {
		if a.Arity == VarArity {
			s.cellSizes[i] = varCellSize
			s.varAttributeNum++
		} else {
			s.cellSizes[i] = a.Arity * a.Type.ByteWidth()
		}
	}
	s.cellSizes[n] = s.DimNum() * s.coordsType.ByteWidth()

	if err := computeTileDomain(s); err != nil {
		return err
	}

	if err := computeCellNumPerTile(s); err != nil {
		return err
	}

	s.tileSizes = make([]int64, n+1)
	for i := 0; i <= n; i++ {
		if s.cellSizes[i] == varCellSize {
			s.tileSizes[i] = s.cellNumPerTile * int64(varOffsetSize)
		} else {
			s.tileSizes[i] = s.cellNumPerTile * int64(s.cellSizes[i])
		}
	}

	if s.cellOrder == Hilbert {
		bits, err := computeHilbertBits(s)
		if err != nil {
			return err
		}
		s.hilbertBits = bits
		s.hilbertCurve = hilbert.New(bits, s.DimNum())
	}

	return nil
}

// computeTileDomain fills s.tileDomain with [0, ceil(span/extent)-1] per
// dimension. Left nil when tile extents are absent (irregular tiling).
func computeTileDomain(s *Schema) error {
	if s.tileExtents == nil {
		s.tileDomain = nil
		return nil
	}
	switch s.coordsType {
	case Int32:
		s.tileDomain = tileDomainFor(domainSlice[int32](s), tileExtentsSlice[int32](s))
	case Int64:
		s.tileDomain = tileDomainFor(domainSlice[int64](s), tileExtentsSlice[int64](s))
	case Float32:
		s.tileDomain = tileDomainForFloat(domainSlice[float32](s), tileExtentsSlice[float32](s))
	case Float64:
		s.tileDomain = tileDomainForFloat(domainSlice[float64](s), tileExtentsSlice[float64](s))
	}
	return nil
}

func tileDomainFor[T int32 | int64](domain, extents []T) []T {
	d := len(extents)
	out := make([]T, 2*d)
	for i := 0; i < d; i++ {
		span := domain[2*i+1] - domain[2*i] + 1
		count := (span + extents[i] - 1) / extents[i]
		out[2*i] = 0
		out[2*i+1] = count - 1
	}
	return out
}

func tileDomainForFloat[T float32 | float64](domain, extents []T) []T {
	d := len(extents)
	out := make([]T, 2*d)
	for i := 0; i < d; i++ {
		span := float64(domain[2*i+1]) - float64(domain[2*i]) + 1
		count := math.Ceil(span / float64(extents[i]))
		out[2*i] = 0
		out[2*i+1] = T(count - 1)
	}
	return out
}

// computeCellNumPerTile fills s.cellNumPerTile per spec §4.E: dense and
// sparse-regular take the product of tile extents; sparse-irregular
// equals capacity.
func computeCellNumPerTile(s *Schema) error {
	if s.tileExtents == nil {
		s.cellNumPerTile = s.capacity
		return nil
	}
	switch s.coordsType {
	case Int32:
		s.cellNumPerTile = productInt(tileExtentsSlice[int32](s))
	case Int64:
		s.cellNumPerTile = productInt(tileExtentsSlice[int64](s))
	case Float32:
		s.cellNumPerTile = productFloat(tileExtentsSlice[float32](s))
	case Float64:
		s.cellNumPerTile = productFloat(tileExtentsSlice[float64](s))
	}
	return nil
}

func productInt[T int32 | int64](extents []T) int64 {
	var ret int64 = 1
	for _, e := range extents {
		ret *= int64(e)
	}
	return ret
}

func productFloat[T float32 | float64](extents []T) int64 {
	ret := 1.0
	for _, e := range extents {
		ret *= float64(e)
	}
	return int64(ret)
}

// computeHilbertBits derives the per-coordinate bit budget from the
// widest per-dimension span, per §4.B:
// bits = ceil(log2(max_i(hi_i - lo_i + 1))), following the original's
// ceil(log2(int64(max_domain_range + 0.5))) formulation (§C.3).
func computeHilbertBits(s *Schema) (int, error) {
	var maxRange float64
	switch s.coordsType {
	case Int32:
		maxRange = maxSpanInt(domainSlice[int32](s))
	case Int64:
		maxRange = maxSpanInt(domainSlice[int64](s))
	case Float32:
		maxRange = maxSpanFloat(domainSlice[float32](s))
	case Float64:
		maxRange = maxSpanFloat(domainSlice[float64](s))
	}
	n := int64(maxRange + 0.5)
	if n <= 1 {
		return 1, nil
	}
	bits := int(math.Ceil(math.Log2(float64(n))))
	if bits < 1 {
		bits = 1
	}
	if bits*s.DimNum() > 64 {
		return 0, newErr(CodeBadValue, "hilbert bit budget %d over %d dims exceeds 64 bits", bits, s.DimNum())
	}
	return bits, nil
}

func maxSpanInt[T int32 | int64](domain []T) float64 {
	var max float64
	for i := 0; i < len(domain)/2; i++ {
		span := float64(domain[2*i+1]) - float64(domain[2*i]) + 1
		if span > max {
			max = span
		}
	}
	return max
}

func maxSpanFloat[T float32 | float64](domain []T) float64 {
	var max float64
	for i := 0; i < len(domain)/2; i++ {
		span := float64(domain[2*i+1]) - float64(domain[2*i]) + 1
		if span > max {
			max = span
		}
	}
	return max
}
