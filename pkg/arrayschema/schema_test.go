package arrayschema

import "testing"

func TestSchema_AttributeAccessors(t *testing.T) {
	b := NewBuilder().
		SetName("multi").
		AddAttribute("temp", "float64").
		AddAttribute("tags", "char:var").
		AddDimension("x").
		AddDimension("y").
		SetCoordsTypeSpec("int32").
		SetCapacity(1000)
	b = SetDomain(b, []int32{0, 255, 0, 255})
	s, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if s.AttributeNum() != 2 {
		t.Fatalf("got attribute num %d, want 2", s.AttributeNum())
	}
	if id := s.AttributeID("temp"); id != 0 {
		t.Errorf("got AttributeID(temp) = %d, want 0", id)
	}
	if id := s.AttributeID("tags"); id != 1 {
		t.Errorf("got AttributeID(tags) = %d, want 1", id)
	}
	if id := s.AttributeID("nope"); id != NotFound {
		t.Errorf("got AttributeID(nope) = %d, want NotFound", id)
	}
	if id := s.AttributeID(CoordsName); id != s.AttributeNum() {
		t.Errorf("got AttributeID(coords) = %d, want %d", id, s.AttributeNum())
	}

	if size, err := s.CellSize(0); err != nil || size != 8 {
		t.Errorf("got CellSize(temp) = (%d, %v), want (8, nil)", size, err)
	}
	if !s.VarSize(1) {
		t.Error("expected tags attribute to be variable-length")
	}
	if s.VarAttributeNum() != 1 {
		t.Errorf("got VarAttributeNum() = %d, want 1", s.VarAttributeNum())
	}
	if s.CoordsSize() != 8 {
		t.Errorf("got CoordsSize() = %d, want 8 (2 int32 coords)", s.CoordsSize())
	}
}

func TestSchema_AttributeIDsFailsOnUnknownName(t *testing.T) {
	s := mustSparseSchema(t)
	_, err := s.AttributeIDs([]string{"v", "ghost"})
	if err == nil {
		t.Fatal("expected error for unknown attribute name")
	}
}

func TestSchema_CompressionDefaultsToNone(t *testing.T) {
	s := mustSparseSchema(t)
	c, err := s.Compression(0)
	if err != nil {
		t.Fatalf("Compression failed: %v", err)
	}
	if c != CompressionNone {
		t.Errorf("got default compression %v, want CompressionNone", c)
	}
}

func TestSchema_CompressionHonorsBuilderSetting(t *testing.T) {
	b := NewBuilder().
		SetName("compressed").
		AddAttribute("v", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		SetCapacity(100).
		SetCompression("v", "GZIP").
		SetCompression(CoordsName, "GZIP")
	b = SetDomain(b, []int32{0, 9})
	s, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	c, _ := s.Compression(0)
	if c != CompressionGZIP {
		t.Errorf("got attribute compression %v, want GZIP", c)
	}
	coordsC, _ := s.Compression(s.AttributeNum())
	if coordsC != CompressionGZIP {
		t.Errorf("got coords compression %v, want GZIP", coordsC)
	}
}

func mustSparseSchema(t *testing.T) *Schema {
	t.Helper()
	b := NewBuilder().
		SetName("sparse").
		AddAttribute("v", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		SetCapacity(100)
	b = SetDomain(b, []int32{0, 9})
	s, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	return s
}
