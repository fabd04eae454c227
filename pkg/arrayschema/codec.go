package arrayschema

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Serialize encodes a finalized Schema into its compact binary image
// (component G). The layout is little-endian on every platform — an
// explicit portability contract, not merely the host's native order.
func Serialize(s *Schema) ([]byte, error) {
	var buf bytes.Buffer

	writeString(&buf, s.name)
	writeI8(&buf, boolToI8(s.dense))
	writeI8(&buf, boolToI8(s.keyValue))
	writeI8(&buf, int8(s.tileOrder))
	writeI8(&buf, int8(s.cellOrder))
	writeI64(&buf, s.capacity)
	writeI32(&buf, s.consolidationStep)

	writeI32(&buf, int32(len(s.attributes)))
	for _, a := range s.attributes {
		writeString(&buf, a.Name)
	}

	writeI32(&buf, int32(len(s.dimensions)))
	for _, d := range s.dimensions {
		writeString(&buf, d.Name)
	}

	domainBytes, err := encodeCoords(s.coordsType, s.domain)
	if err != nil {
		return nil, wrapErr(CodeBadValue, err, "cannot encode domain")
	}
	writeI32(&buf, int32(len(domainBytes)))
	buf.Write(domainBytes)

	var extentBytes []byte
	if s.tileExtents != nil {
		extentBytes, err = encodeCoords(s.coordsType, s.tileExtents)
		if err != nil {
			return nil, wrapErr(CodeBadValue, err, "cannot encode tile extents")
		}
	}
	writeI32(&buf, int32(len(extentBytes)))
	buf.Write(extentBytes)

	for i := 0; i <= len(s.attributes); i++ {
		t, _ := s.Type(i)
		writeI8(&buf, int8(t))
	}

	for _, a := range s.attributes {
		writeI32(&buf, int32(a.Arity))
	}

	for i := 0; i <= len(s.attributes); i++ {
		c, _ := s.Compression(i)
		writeI8(&buf, int8(c))
	}

	return buf.Bytes(), nil
}

// Deserialize reads a binary image produced by Serialize and reconstructs
// a finalized Schema, recomputing derived tables per §4.E rather than
// trusting anything beyond the primary fields. Any short read, tag value
// outside the type registry, or internally inconsistent size fails with
// BAD_SCHEMA_IMAGE and leaves no partial object.
func Deserialize(data []byte) (*Schema, error) {
	r := &reader{data: data}

	name, err := r.readString()
	if err != nil {
		return nil, badImage("array name", err)
	}
	denseByte, err := r.readI8()
	if err != nil {
		return nil, badImage("dense flag", err)
	}
	kvByte, err := r.readI8()
	if err != nil {
		return nil, badImage("key-value flag", err)
	}
	tileOrderByte, err := r.readI8()
	if err != nil {
		return nil, badImage("tile order", err)
	}
	cellOrderByte, err := r.readI8()
	if err != nil {
		return nil, badImage("cell order", err)
	}
	if !validOrderByte(tileOrderByte) || !validOrderByte(cellOrderByte) {
		return nil, badImage("order", fmt.Errorf("tag %d/%d not in registry", tileOrderByte, cellOrderByte))
	}

	capacity, err := r.readI64()
	if err != nil {
		return nil, badImage("capacity", err)
	}
	consolidationStep, err := r.readI32()
	if err != nil {
		return nil, badImage("consolidation step", err)
	}

	// Every name carries a 4-byte length prefix, so a count larger than
	// remaining/4 cannot be satisfied by the rest of the image.
	attrNum, err := r.readI32()
	if err != nil || attrNum < 0 || int(attrNum) > r.remaining()/4 {
		return nil, badImage("attribute_num", err)
	}
	attrNames := make([]string, attrNum)
	for i := range attrNames {
		attrNames[i], err = r.readString()
		if err != nil {
			return nil, badImage("attribute name", err)
		}
	}

	dimNum, err := r.readI32()
	if err != nil || dimNum <= 0 || int(dimNum) > r.remaining()/4 {
		return nil, badImage("dim_num", err)
	}
	dimNames := make([]string, dimNum)
	for i := range dimNames {
		dimNames[i], err = r.readString()
		if err != nil {
			return nil, badImage("dimension name", err)
		}
	}

	domainSize, err := r.readI32()
	if err != nil || domainSize < 0 {
		return nil, badImage("domain_size", err)
	}
	domainBytes, err := r.readBytes(int(domainSize))
	if err != nil {
		return nil, badImage("domain", err)
	}

	extentsSize, err := r.readI32()
	if err != nil || extentsSize < 0 {
		return nil, badImage("tile_extents_size", err)
	}
	extentsBytes, err := r.readBytes(int(extentsSize))
	if err != nil {
		return nil, badImage("tile_extents", err)
	}

	typeTags := make([]ElementType, attrNum+1)
	for i := range typeTags {
		tag, err := r.readI8()
		if err != nil {
			return nil, badImage("type_tag", err)
		}
		t := ElementType(tag)
		if !t.Valid() {
			return nil, badImage("type_tag", fmt.Errorf("tag %d not in type registry", tag))
		}
		typeTags[i] = t
	}

	valNums := make([]int32, attrNum)
	for i := range valNums {
		valNums[i], err = r.readI32()
		if err != nil {
			return nil, badImage("val_num", err)
		}
	}

	compressionTags := make([]Compression, attrNum+1)
	for i := range compressionTags {
		tag, err := r.readI8()
		if err != nil {
			return nil, badImage("compression", err)
		}
		c := Compression(tag)
		if c != CompressionNone && c != CompressionGZIP {
			return nil, badImage("compression", fmt.Errorf("tag %d not in compression registry", tag))
		}
		compressionTags[i] = c
	}

	if !r.atEnd() {
		return nil, badImage("trailer", fmt.Errorf("%d unexpected trailing bytes", r.remaining()))
	}

	coordsType := typeTags[attrNum]
	coordsSize := int(dimNum) * coordsType.ByteWidth()
	if domainSize != int32(2*coordsSize) {
		return nil, badImage("domain", fmt.Errorf("size %d inconsistent with coords_size %d", domainSize, coordsSize))
	}
	if extentsSize != 0 && extentsSize != int32(coordsSize) {
		return nil, badImage("tile_extents", fmt.Errorf("size %d inconsistent with coords_size %d", extentsSize, coordsSize))
	}

	domain, err := decodeCoords(coordsType, domainBytes, 2*int(dimNum))
	if err != nil {
		return nil, badImage("domain", err)
	}
	var tileExtents any
	if extentsSize != 0 {
		tileExtents, err = decodeCoords(coordsType, extentsBytes, int(dimNum))
		if err != nil {
			return nil, badImage("tile_extents", err)
		}
	}

	attributes := make([]Attribute, attrNum)
	for i := range attributes {
		attributes[i] = Attribute{Name: attrNames[i], Type: typeTags[i], Arity: int(valNums[i])}
	}
	dimensions := make([]Dimension, dimNum)
	for i := range dimensions {
		dimensions[i] = Dimension{Name: dimNames[i]}
	}

	s := &Schema{
		name:              name,
		attributes:        attributes,
		dimensions:        dimensions,
		coordsType:        coordsType,
		dense:             i8ToBool(denseByte),
		keyValue:          i8ToBool(kvByte),
		domain:            domain,
		tileExtents:       tileExtents,
		capacity:          capacity,
		consolidationStep: consolidationStep,
		cellOrder:         CellOrder(cellOrderByte),
		tileOrder:         TileOrder(tileOrderByte),
		compression:       compressionTags,
	}

	if err := computeDerived(s); err != nil {
		return nil, &Error{Code: CodeBadSchemaImage, Message: "derived tables inconsistent with primary fields", Cause: err}
	}
	return s, nil
}

func badImage(field string, cause error) *Error {
	return &Error{Code: CodeBadSchemaImage, Message: fmt.Sprintf("malformed %s", field), Cause: cause}
}

func validOrderByte(b int8) bool {
	return b == int8(RowMajor) || b == int8(ColMajor) || b == int8(Hilbert)
}

func boolToI8(b bool) int8 {
	if b {
		return 1
	}
	return 0
}

func i8ToBool(b int8) bool { return b != 0 }

// --- primitive writers ---

func writeI8(buf *bytes.Buffer, v int8)   { buf.WriteByte(byte(v)) }
func writeI32(buf *bytes.Buffer, v int32) { _ = binary.Write(buf, binary.LittleEndian, v) }
func writeI64(buf *bytes.Buffer, v int64) { _ = binary.Write(buf, binary.LittleEndian, v) }

func writeString(buf *bytes.Buffer, s string) {
	writeI32(buf, int32(len(s)))
	buf.WriteString(s)
}

// --- primitive reader ---

type reader struct {
	data []byte
	pos  int
}

func (r *reader) atEnd() bool    { return r.pos >= len(r.data) }
func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) readI8() (int8, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *reader) readI32() (int32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *reader) readI64() (int64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *reader) readString() (string, error) {
	n, err := r.readI32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d", n)
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// --- coordinate buffer encoding ---

func encodeCoords(coordsType ElementType, v any) ([]byte, error) {
	switch coordsType {
	case Int32:
		s, ok := v.([]int32)
		if !ok {
			return nil, fmt.Errorf("expected []int32 coordinate buffer")
		}
		out := make([]byte, 4*len(s))
		for i, x := range s {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(x))
		}
		return out, nil
	case Int64:
		s, ok := v.([]int64)
		if !ok {
			return nil, fmt.Errorf("expected []int64 coordinate buffer")
		}
		out := make([]byte, 8*len(s))
		for i, x := range s {
			binary.LittleEndian.PutUint64(out[8*i:], uint64(x))
		}
		return out, nil
	case Float32:
		s, ok := v.([]float32)
		if !ok {
			return nil, fmt.Errorf("expected []float32 coordinate buffer")
		}
		out := make([]byte, 4*len(s))
		for i, x := range s {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(x))
		}
		return out, nil
	case Float64:
		s, ok := v.([]float64)
		if !ok {
			return nil, fmt.Errorf("expected []float64 coordinate buffer")
		}
		out := make([]byte, 8*len(s))
		for i, x := range s {
			binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(x))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("coordinate type %s cannot be encoded", coordsType)
	}
}

func decodeCoords(coordsType ElementType, data []byte, n int) (any, error) {
	switch coordsType {
	case Int32:
		if len(data) != 4*n {
			return nil, fmt.Errorf("int32 coordinate buffer length %d, want %d", len(data), 4*n)
		}
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return out, nil
	case Int64:
		if len(data) != 8*n {
			return nil, fmt.Errorf("int64 coordinate buffer length %d, want %d", len(data), 8*n)
		}
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return out, nil
	case Float32:
		if len(data) != 4*n {
			return nil, fmt.Errorf("float32 coordinate buffer length %d, want %d", len(data), 4*n)
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return out, nil
	case Float64:
		if len(data) != 8*n {
			return nil, fmt.Errorf("float64 coordinate buffer length %d, want %d", len(data), 8*n)
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("coordinate type %s cannot be decoded", coordsType)
	}
}
