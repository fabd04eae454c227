package registry

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"

	"github.com/tilegrid/arrayschema/pkg/arrayschema"
)

// Envelope wraps a Codec binary image in Snappy compression before it is
// handed to a BlobStore. Format: 8 bytes uncompressed length (uint64,
// little-endian) + snappy(serialized schema image).
//
// The registry never inspects the uncompressed payload beyond handing it
// to arrayschema.Serialize/Deserialize — it treats the schema image as
// opaque bytes, same as any other collaborator (spec §6).
func EncodeEnvelope(s *arrayschema.Schema) ([]byte, error) {
	raw, err := arrayschema.Serialize(s)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to serialize schema: %w", err)
	}
	compressed := snappy.Encode(nil, raw)

	buf := make([]byte, 8+len(compressed))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(raw)))
	copy(buf[8:], compressed)
	return buf, nil
}

// DecodeEnvelope reverses EncodeEnvelope.
func DecodeEnvelope(data []byte) (*arrayschema.Schema, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("registry: envelope too short")
	}
	wantLen := binary.LittleEndian.Uint64(data[0:8])

	raw, err := snappy.Decode(nil, data[8:])
	if err != nil {
		return nil, fmt.Errorf("registry: snappy decompress failed: %w", err)
	}
	if uint64(len(raw)) != wantLen {
		return nil, fmt.Errorf("registry: decompressed length %d, want %d", len(raw), wantLen)
	}

	return arrayschema.Deserialize(raw)
}
