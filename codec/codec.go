// Package codec defines how structured values are serialized before they
// are written to Redis. The store passes strings and byte slices through
// untouched; everything else goes through a Codec. JSON is the default.
package codec

// Codec marshals values to []byte for storage and back. Implementations
// must round-trip: Unmarshal(Marshal(v)) reproduces v structurally.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}
