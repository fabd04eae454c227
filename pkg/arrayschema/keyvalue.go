package arrayschema

import "github.com/spaolacci/murmur3"

// HashKeyCoords maps a key-value mode string key to its four synthetic
// INT32 hash dimensions. A key-value Schema (built from the "char:var"
// coordinate spec, §4.D step 3) stores no coordinates of its own — every
// key is hashed into this 128-bit space, split into four 32-bit lanes,
// so the array's usual dense/sparse dimension machinery applies
// unchanged to key-value lookups.
func HashKeyCoords(key string) [4]int32 {
	h1, h2 := murmur3.Sum128([]byte(key))
	return [4]int32{
		int32(h1),
		int32(h1 >> 32),
		int32(h2),
		int32(h2 >> 32),
	}
}

// KeyCoords hashes key into this schema's four synthetic hash dimensions,
// the coordinate tuple a key-value array stores the key's cell under. It
// fails on a schema that wasn't built in key-value mode.
func (s *Schema) KeyCoords(key string) ([4]int32, error) {
	if !s.keyValue {
		return [4]int32{}, newErr(CodeBadValue, "key_coords requires a key-value schema")
	}
	return HashKeyCoords(key), nil
}
