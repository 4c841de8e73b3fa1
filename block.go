package retrie

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// maxDestinations caps how many distinct destination keys one block may
// carry. Growable collections are unbounded in memory; the cap is
// enforced when a block is put on the wire.
const maxDestinations = 1024

// blockHeaderLen is proofLen + isAccepting + numEdges + numDestinations,
// each a big-endian uint16.
const blockHeaderLen = 8

// MalformedBlockError reports a block that failed structural
// validation.
type MalformedBlockError struct {
	Reason string
}

func (e *MalformedBlockError) Error() string {
	return "malformed block: " + e.Reason
}

// BlockEvaluation classifies a block fetched from the store against
// the key it was found under and the search string remainder.
type BlockEvaluation int

const (
	// BlockOK means valid and useful for this query.
	BlockOK BlockEvaluation = iota
	// BlockInvalid means the block fails validation and must be
	// discarded no matter the query.
	BlockInvalid
	// BlockIrrelevant means the block is well formed but no edge
	// matches the query remainder.
	BlockIrrelevant
	// BlockDuplicate means the same block was already seen for this
	// query.
	BlockDuplicate
)

// Block is one published automaton state: its proof, whether it
// accepts, and its outgoing edges.
type Block struct {
	Proof     string
	Accepting bool
	Edges     []Edge
}

// Key returns the key the block is stored under, the hash of its proof.
func (b *Block) Key() Hash {
	return hashOf(b.Proof)
}

// Marshal serializes the block. Destination keys shared by several
// edges are stored once; edges refer to them by index.
//
// Layout, all integers big-endian uint16: proof length, accepting flag,
// edge count, destination count; then the deduplicated destination
// keys, the per-edge {destination index, token length} pairs, the proof
// bytes and the concatenated edge tokens.
func (b *Block) Marshal() ([]byte, error) {
	if len(b.Proof) > 0xffff {
		return nil, &MalformedBlockError{Reason: "proof too long"}
	}
	if len(b.Edges) > 0xffff {
		return nil, &MalformedBlockError{Reason: "too many edges"}
	}

	var destinations []Hash
	destIndex := make(map[Hash]int)
	for _, e := range b.Edges {
		if _, ok := destIndex[e.Destination]; ok {
			continue
		}
		destIndex[e.Destination] = len(destinations)
		destinations = append(destinations, e.Destination)
	}
	if len(destinations) > maxDestinations {
		return nil, &MalformedBlockError{
			Reason: fmt.Sprintf("%d destinations exceed the maximum of %d",
				len(destinations), maxDestinations),
		}
	}

	size := blockHeaderLen + len(destinations)*len(Hash{}) + len(b.Edges)*4 + len(b.Proof)
	for _, e := range b.Edges {
		if len(e.Label) > 0xffff {
			return nil, &MalformedBlockError{Reason: "edge token too long"}
		}
		size += len(e.Label)
	}

	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.Proof)))
	accepting := uint16(0)
	if b.Accepting {
		accepting = 1
	}
	out = binary.BigEndian.AppendUint16(out, accepting)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.Edges)))
	out = binary.BigEndian.AppendUint16(out, uint16(len(destinations)))
	for _, d := range destinations {
		out = append(out, d[:]...)
	}
	for _, e := range b.Edges {
		out = binary.BigEndian.AppendUint16(out, uint16(destIndex[e.Destination]))
		out = binary.BigEndian.AppendUint16(out, uint16(len(e.Label)))
	}
	out = append(out, b.Proof...)
	for _, e := range b.Edges {
		out = append(out, e.Label...)
	}
	return out, nil
}

// UnmarshalBlock parses and structurally validates a serialized block.
// Every length field has to account for the byte count exactly; blocks
// with trailing or missing bytes are rejected.
func UnmarshalBlock(data []byte) (*Block, error) {
	if len(data) < blockHeaderLen {
		return nil, &MalformedBlockError{Reason: "truncated header"}
	}
	proofLen := int(binary.BigEndian.Uint16(data[0:2]))
	acceptingField := binary.BigEndian.Uint16(data[2:4])
	numEdges := int(binary.BigEndian.Uint16(data[4:6]))
	numDestinations := int(binary.BigEndian.Uint16(data[6:8]))

	if acceptingField > 1 {
		return nil, &MalformedBlockError{Reason: "bad accepting flag"}
	}
	if numDestinations > maxDestinations {
		return nil, &MalformedBlockError{Reason: "too many destinations"}
	}

	hashLen := len(Hash{})
	fixed := blockHeaderLen + numDestinations*hashLen + numEdges*4 + proofLen
	if len(data) < fixed {
		return nil, &MalformedBlockError{Reason: "truncated body"}
	}

	destinations := make([]Hash, numDestinations)
	off := blockHeaderLen
	for i := range destinations {
		copy(destinations[i][:], data[off:off+hashLen])
		off += hashLen
	}

	type edgeInfo struct {
		destIdx  int
		tokenLen int
	}
	infos := make([]edgeInfo, numEdges)
	tokenTotal := 0
	for i := range infos {
		infos[i].destIdx = int(binary.BigEndian.Uint16(data[off : off+2]))
		infos[i].tokenLen = int(binary.BigEndian.Uint16(data[off+2 : off+4]))
		if infos[i].destIdx >= numDestinations {
			return nil, &MalformedBlockError{Reason: "destination index out of range"}
		}
		tokenTotal += infos[i].tokenLen
		off += 4
	}
	if len(data) != fixed+tokenTotal {
		return nil, &MalformedBlockError{Reason: "length fields do not match block size"}
	}

	proof := string(data[off : off+proofLen])
	off += proofLen

	b := &Block{
		Proof:     proof,
		Accepting: acceptingField == 1,
		Edges:     make([]Edge, numEdges),
	}
	for i, info := range infos {
		b.Edges[i] = Edge{
			Label:       string(data[off : off+info.tokenLen]),
			Destination: destinations[info.destIdx],
		}
		off += info.tokenLen
	}
	return b, nil
}

// Evaluate classifies the block against the key it was fetched under
// and the unconsumed remainder of the search string. A block whose
// proof does not hash to the key is Invalid. With an empty remainder
// the block is relevant only if it accepts; otherwise some edge token
// has to prefix the remainder.
func (b *Block) Evaluate(key Hash, remainder string) BlockEvaluation {
	if b.Key() != key {
		return BlockInvalid
	}
	if len(remainder) == 0 {
		if b.Accepting {
			return BlockOK
		}
		return BlockIrrelevant
	}
	for _, e := range b.Edges {
		if strings.HasPrefix(remainder, e.Label) {
			return BlockOK
		}
	}
	return BlockIrrelevant
}

// signaturePurposeRegexAccept tags what an accept block signature
// covers, so the same key cannot be tricked into signing something else
// that happens to have the same byte layout.
const signaturePurposeRegexAccept = 22

const acceptBlockLen = 4 + 4 + 8 + 64 + ed25519.PublicKeySize + ed25519.SignatureSize

// AcceptBlock announces that a concrete peer sits behind an accepting
// state. It is signed by the peer and expires.
type AcceptBlock struct {
	Expiration time.Time
	Key        Hash
	Peer       ed25519.PublicKey
	Signature  []byte
}

func acceptBlockSignedBytes(key Hash, expiration time.Time) []byte {
	out := make([]byte, 0, 4+4+8+len(Hash{}))
	out = binary.BigEndian.AppendUint32(out, uint32(4+4+8+len(Hash{})))
	out = binary.BigEndian.AppendUint32(out, signaturePurposeRegexAccept)
	out = binary.BigEndian.AppendUint64(out, uint64(expiration.UnixMicro()))
	out = append(out, key[:]...)
	return out
}

// NewAcceptBlock signs an accept block for the given state key with the
// peer's private key.
func NewAcceptBlock(priv ed25519.PrivateKey, key Hash, expiration time.Time) *AcceptBlock {
	signed := acceptBlockSignedBytes(key, expiration)
	return &AcceptBlock{
		Expiration: expiration,
		Key:        key,
		Peer:       priv.Public().(ed25519.PublicKey),
		Signature:  ed25519.Sign(priv, signed),
	}
}

// Marshal serializes the accept block: the signed region followed by
// the peer's public key and the signature.
func (ab *AcceptBlock) Marshal() ([]byte, error) {
	if len(ab.Peer) != ed25519.PublicKeySize {
		return nil, &MalformedBlockError{Reason: "bad peer key size"}
	}
	if len(ab.Signature) != ed25519.SignatureSize {
		return nil, &MalformedBlockError{Reason: "bad signature size"}
	}
	out := acceptBlockSignedBytes(ab.Key, ab.Expiration)
	out = append(out, ab.Peer...)
	out = append(out, ab.Signature...)
	return out, nil
}

// UnmarshalAcceptBlock parses a serialized accept block, checking the
// fixed size and the purpose fields but not yet the signature.
func UnmarshalAcceptBlock(data []byte) (*AcceptBlock, error) {
	if len(data) != acceptBlockLen {
		return nil, &MalformedBlockError{Reason: "bad accept block size"}
	}
	if binary.BigEndian.Uint32(data[0:4]) != uint32(4+4+8+len(Hash{})) {
		return nil, &MalformedBlockError{Reason: "bad signature purpose size"}
	}
	if binary.BigEndian.Uint32(data[4:8]) != signaturePurposeRegexAccept {
		return nil, &MalformedBlockError{Reason: "bad signature purpose"}
	}
	ab := &AcceptBlock{
		Expiration: time.UnixMicro(int64(binary.BigEndian.Uint64(data[8:16]))),
		Peer:       make(ed25519.PublicKey, ed25519.PublicKeySize),
		Signature:  make([]byte, ed25519.SignatureSize),
	}
	copy(ab.Key[:], data[16:80])
	copy(ab.Peer, data[80:80+ed25519.PublicKeySize])
	copy(ab.Signature, data[80+ed25519.PublicKeySize:])
	return ab, nil
}

// Verify checks the signature and that the block has not expired and
// actually announces the given key.
func (ab *AcceptBlock) Verify(key Hash, now time.Time) error {
	if ab.Key != key {
		return &MalformedBlockError{Reason: "accept block for wrong key"}
	}
	if now.After(ab.Expiration) {
		return &MalformedBlockError{Reason: "accept block expired"}
	}
	if !ed25519.Verify(ab.Peer, acceptBlockSignedBytes(ab.Key, ab.Expiration), ab.Signature) {
		return &MalformedBlockError{Reason: "bad signature"}
	}
	return nil
}
