package arrayschema

import (
	"errors"
	"testing"
)

func denseBuilder() *Builder {
	b := NewBuilder().
		SetName("sensors").
		AddAttribute("reading", "float64").
		AddDimension("x").
		AddDimension("y").
		SetCoordsTypeSpec("int64").
		SetDense(true)
	b = SetDomain(b, []int64{0, 99, 0, 99})
	b = SetTileExtents(b, []int64{10, 10})
	return b
}

func TestBuilder_DenseFinalize(t *testing.T) {
	s, err := denseBuilder().Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if s.Name() != "sensors" {
		t.Errorf("got name %q, want sensors", s.Name())
	}
	if !s.Dense() {
		t.Error("expected dense schema")
	}
	if s.DimNum() != 2 {
		t.Errorf("got dim num %d, want 2", s.DimNum())
	}
	tileNum, err := s.TileNum()
	if err != nil {
		t.Fatalf("TileNum failed: %v", err)
	}
	if tileNum != 100 {
		t.Errorf("got tile_num %d, want 100", tileNum)
	}
	if s.CellNumPerTile() != 100 {
		t.Errorf("got cell_num_per_tile %d, want 100", s.CellNumPerTile())
	}
}

func TestBuilder_MissingName(t *testing.T) {
	_, err := NewBuilder().
		AddAttribute("v", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		Finalize()
	if err == nil {
		t.Fatal("expected error for missing name")
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeMissingField {
		t.Errorf("got %v, want CodeMissingField", err)
	}
}

func TestBuilder_DuplicateAttributeName(t *testing.T) {
	_, err := NewBuilder().
		SetName("dup").
		AddAttribute("v", "int32").
		AddAttribute("v", "float64").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		Finalize()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeDuplicateName {
		t.Fatalf("got %v, want CodeDuplicateName", err)
	}
}

func TestBuilder_AttributeDimensionNameCollision(t *testing.T) {
	_, err := NewBuilder().
		SetName("collide").
		AddAttribute("x", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		Finalize()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeDuplicateName {
		t.Fatalf("got %v, want CodeDuplicateName", err)
	}
}

func TestBuilder_DenseRequiresTileExtents(t *testing.T) {
	b := NewBuilder().
		SetName("nodense").
		AddAttribute("v", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		SetDense(true)
	b = SetDomain(b, []int32{0, 9})
	_, err := b.Finalize()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeDenseRequiresExtents {
		t.Fatalf("got %v, want CodeDenseRequiresExtents", err)
	}
}

func TestBuilder_DenseRejectsFloatCoords(t *testing.T) {
	b := NewBuilder().
		SetName("floatdense").
		AddAttribute("v", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("float64").
		SetDense(true)
	b = SetDomain(b, []float64{0, 9})
	b = SetTileExtents(b, []float64{1})
	_, err := b.Finalize()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeDenseCoordType {
		t.Fatalf("got %v, want CodeDenseCoordType", err)
	}
}

func TestBuilder_TileExtentMustDivideSpanEvenly(t *testing.T) {
	b := NewBuilder().
		SetName("uneven").
		AddAttribute("v", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		SetDense(true)
	b = SetDomain(b, []int32{0, 9})
	b = SetTileExtents(b, []int32{4})
	_, err := b.Finalize()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeBadValue {
		t.Fatalf("got %v, want CodeBadValue", err)
	}
}

func TestBuilder_HilbertIncompatibleWithTileExtents(t *testing.T) {
	b := NewBuilder().
		SetName("hilbertextents").
		AddAttribute("v", "int32").
		AddDimension("x").
		AddDimension("y").
		SetCoordsTypeSpec("int32").
		SetCellOrder("hilbert")
	b = SetDomain(b, []int32{0, 1023, 0, 1023})
	b = SetTileExtents(b, []int32{16, 16})
	_, err := b.Finalize()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeIncompatibleOrder {
		t.Fatalf("got %v, want CodeIncompatibleOrder", err)
	}
}

func TestBuilder_SparseIrregularHilbert(t *testing.T) {
	b := NewBuilder().
		SetName("kvless_sparse").
		AddAttribute("v", "float32").
		AddDimension("x").
		AddDimension("y").
		SetCoordsTypeSpec("int32").
		SetCapacity(10000).
		SetCellOrder("hilbert")
	b = SetDomain(b, []int32{0, 1023, 0, 1023})
	s, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if s.CellNumPerTile() != 10000 {
		t.Errorf("got cell_num_per_tile %d, want 10000", s.CellNumPerTile())
	}
	if _, err := s.TileNum(); err == nil {
		t.Error("expected TileNum to fail without regular tile extents")
	}

	scratch := make([]uint32, 2)
	id, err := HilbertID(s, []int32{0, 0}, scratch)
	if err != nil {
		t.Fatalf("HilbertID failed: %v", err)
	}
	if id != 0 {
		t.Errorf("got hilbert_id(0,0) = %d, want 0", id)
	}
}

func TestBuilder_KeyValueExpandsToFourDimensions(t *testing.T) {
	b := NewBuilder().
		SetName("kv").
		AddAttribute("payload", "char:var").
		AddDimension("key").
		SetCoordsTypeSpec("char:var")
	s, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if !s.KeyValue() {
		t.Error("expected key-value schema")
	}
	if s.DimNum() != 4 {
		t.Errorf("got dim num %d, want 4", s.DimNum())
	}
}

func TestBuilder_KeyValueRejectsDense(t *testing.T) {
	b := NewBuilder().
		SetName("kvdense").
		AddAttribute("payload", "char:var").
		AddDimension("key").
		SetCoordsTypeSpec("char:var").
		SetDense(true)
	_, err := b.Finalize()
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeDenseCoordType {
		t.Fatalf("got %v, want CodeDenseCoordType", err)
	}
}
