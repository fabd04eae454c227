package arrayschema

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_SerializeDeserializeRoundTrip validates that Deserialize
// reconstructs the name, consolidation step and tile count Serialize
// encoded, for arbitrary dense, regularly tiled, int32-coordinate schemas.
func TestProperty_SerializeDeserializeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 80
	properties := gopter.NewProperties(parameters)

	properties.Property("serialize then deserialize preserves name, consolidation step, and tile count", prop.ForAll(
		func(hi0, hi1 int32, extent0, extent1 int32, step int32) bool {
			if hi0 < 1 {
				hi0 = 1
			}
			if hi1 < 1 {
				hi1 = 1
			}
			extent0 = divisor(hi0+1, extent0)
			extent1 = divisor(hi1+1, extent1)
			if step <= 0 {
				step = 1
			}

			b := NewBuilder().
				SetName("prop").
				AddAttribute("v", "int32").
				AddDimension("x").
				AddDimension("y").
				SetCoordsTypeSpec("int32").
				SetDense(true).
				SetConsolidationStep(step)
			b = SetDomain(b, []int32{0, hi0, 0, hi1})
			b = SetTileExtents(b, []int32{extent0, extent1})
			want, err := b.Finalize()
			if err != nil {
				return false
			}

			data, err := Serialize(want)
			if err != nil {
				return false
			}
			got, err := Deserialize(data)
			if err != nil {
				return false
			}

			if got.Name() != want.Name() {
				return false
			}
			if got.ConsolidationStep() != want.ConsolidationStep() {
				return false
			}
			wantTileNum, err1 := want.TileNum()
			gotTileNum, err2 := got.TileNum()
			if err1 != nil || err2 != nil {
				return false
			}
			return wantTileNum == gotTileNum
		},
		gen.Int32Range(1, 200),
		gen.Int32Range(1, 200),
		gen.Int32Range(1, 50),
		gen.Int32Range(1, 50),
		gen.Int32Range(1, 1000),
	))

	properties.TestingRun(t)
}

// TestProperty_CellNumPerTileEqualsTileSizeOverCellSize validates that
// the derived tile size for a fixed-width attribute always equals
// cell_num_per_tile * cell_size -- the defining relationship of
// component E's derived tables.
func TestProperty_CellNumPerTileEqualsTileSizeOverCellSize(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 80
	properties := gopter.NewProperties(parameters)

	properties.Property("tile_size(i) == cell_num_per_tile * cell_size(i) for fixed-width attributes", prop.ForAll(
		func(capacity int64, arity int32) bool {
			if capacity <= 0 {
				capacity = 1
			}
			if arity <= 0 {
				arity = 1
			}

			b := NewBuilder().
				SetName("prop2").
				AddAttributeTyped("v", Int64, int(arity)).
				AddDimension("x").
				SetCoordsTypeSpec("int32").
				SetCapacity(capacity)
			b = SetDomain(b, []int32{0, 999})
			s, err := b.Finalize()
			if err != nil {
				return false
			}

			cellSize, err := s.CellSize(0)
			if err != nil {
				return false
			}
			tileSize, err := s.TileSize(0)
			if err != nil {
				return false
			}
			return tileSize == s.CellNumPerTile()*int64(cellSize)
		},
		gen.Int64Range(1, 1_000_000),
		gen.Int32Range(1, 32),
	))

	properties.TestingRun(t)
}

// TestProperty_HilbertIDInjectiveOverSmallGrid validates that HilbertID
// never maps two distinct points in a small grid to the same index --
// the forward mapping must be injective for it to serve as a sort key.
func TestProperty_HilbertIDInjectiveOverSmallGrid(t *testing.T) {
	b := NewBuilder().
		SetName("hilbertgrid").
		AddAttribute("v", "int32").
		AddDimension("x").
		AddDimension("y").
		SetCoordsTypeSpec("int32").
		SetCapacity(16).
		SetCellOrder("hilbert")
	b = SetDomain(b, []int32{0, 15, 0, 15})
	s, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	seen := make(map[uint64][2]int32)
	scratch := make([]uint32, 2)
	for x := int32(0); x < 16; x++ {
		for y := int32(0); y < 16; y++ {
			id, err := HilbertID(s, []int32{x, y}, scratch)
			if err != nil {
				t.Fatalf("HilbertID failed: %v", err)
			}
			if prev, ok := seen[id]; ok {
				t.Fatalf("hilbert_id collision: (%d,%d) and %v both map to %d", x, y, prev, id)
			}
			seen[id] = [2]int32{x, y}
		}
	}
}

// divisor returns the largest value <= max that divides span evenly,
// falling back to span itself (which always divides span).
func divisor(span, max int32) int32 {
	if max < 1 {
		max = 1
	}
	if max > span {
		max = span
	}
	for d := max; d >= 1; d-- {
		if span%d == 0 {
			return d
		}
	}
	return span
}
