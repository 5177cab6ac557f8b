package route

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// VertexSize is the size, in bytes, of a serialized compressed public key,
// the identifier used for every node in the routing graph.
const VertexSize = 33

// Vertex is a node in the routing graph, identified by its compressed
// public key. The recipient of a payment, and every peer a channel opens
// onto, is named this way.
type Vertex [VertexSize]byte

// NewVertexFromBytes builds a Vertex from a serialized compressed public
// key, validating its length.
func NewVertexFromBytes(b []byte) (Vertex, error) {
	var v Vertex

	if len(b) != VertexSize {
		return v, fmt.Errorf("invalid vertex length: %v, want %v",
			len(b), VertexSize)
	}

	copy(v[:], b)

	return v, nil
}

// NewVertexFromPubKey builds a Vertex from a decoded public key.
func NewVertexFromPubKey(pubKey *btcec.PublicKey) Vertex {
	var v Vertex
	copy(v[:], pubKey.SerializeCompressed())

	return v
}

// String returns the hex-encoded public key.
func (v Vertex) String() string {
	return hex.EncodeToString(v[:])
}
