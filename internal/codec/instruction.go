package codec

import (
	"fmt"

	"github.com/roach88/sortition/internal/protocol"
)

// Instruction tags of the operation union. Wire constants.
const (
	TagCreateTargetPool    byte = 0
	TagSubmitSession       byte = 1
	TagFinalizeSession     byte = 2
	TagAppendTargetsToPool byte = 3
	TagFinalizePool        byte = 4
)

// Instruction is one decoded operation of the discriminated union.
type Instruction interface {
	// Name returns the operation name used in the op log and CLI output.
	Name() string

	encode(w *writer)
}

// CreateTargetPool creates a new, unfinalized pool.
type CreateTargetPool struct {
	PoolID       string
	TargetHashes []protocol.Hash32
}

// Name implements Instruction.
func (CreateTargetPool) Name() string { return "create_target_pool" }

func (in CreateTargetPool) encode(w *writer) {
	w.u8(TagCreateTargetPool)
	w.string(in.PoolID)
	w.u32(uint32(len(in.TargetHashes)))
	for _, h := range in.TargetHashes {
		w.bytes32(h)
	}
}

// SubmitSession records a session claim against a pool, before any target is
// assigned.
type SubmitSession struct {
	SessionID              string
	PoolID                 string
	MediaHash              protocol.Hash32
	SelectorProgram        protocol.Hash32
	CompletedTargetIndices []uint16
}

// Name implements Instruction.
func (SubmitSession) Name() string { return "submit_session" }

func (in SubmitSession) encode(w *writer) {
	w.u8(TagSubmitSession)
	w.string(in.SessionID)
	w.string(in.PoolID)
	w.bytes32(in.MediaHash)
	w.bytes32(in.SelectorProgram)
	w.u16Seq(in.CompletedTargetIndices)
}

// FinalizeSession assigns a target to a submitted session. Entropy travels as
// base58 text on the wire and is decoded to 32 raw bytes during processing.
type FinalizeSession struct {
	SessionID              string
	Entropy                string
	CompletedTargetIndices []uint16
}

// Name implements Instruction.
func (FinalizeSession) Name() string { return "finalize_session" }

func (in FinalizeSession) encode(w *writer) {
	w.u8(TagFinalizeSession)
	w.string(in.SessionID)
	w.string(in.Entropy)
	w.u16Seq(in.CompletedTargetIndices)
}

// AppendTargetsToPool grows an unfinalized pool. Existing indices are never
// renumbered.
type AppendTargetsToPool struct {
	PoolID       string
	TargetHashes []protocol.Hash32
}

// Name implements Instruction.
func (AppendTargetsToPool) Name() string { return "append_targets_to_pool" }

func (in AppendTargetsToPool) encode(w *writer) {
	w.u8(TagAppendTargetsToPool)
	w.string(in.PoolID)
	w.u32(uint32(len(in.TargetHashes)))
	for _, h := range in.TargetHashes {
		w.bytes32(h)
	}
}

// FinalizePool closes a pool to further additions.
type FinalizePool struct {
	PoolID string
}

// Name implements Instruction.
func (FinalizePool) Name() string { return "finalize_pool" }

func (in FinalizePool) encode(w *writer) {
	w.u8(TagFinalizePool)
	w.string(in.PoolID)
}

// EncodeInstruction serializes an instruction to its wire form.
func EncodeInstruction(in Instruction) []byte {
	w := &writer{}
	in.encode(w)
	return w.buf
}

// DecodeInstruction parses the wire form of the operation union.
//
// Any malformation - unknown tag, truncation, trailing bytes - is reported as
// CodeInvalidInstruction; the caller learns nothing about how far decoding
// got, matching the closed error taxonomy.
func DecodeInstruction(data []byte) (Instruction, error) {
	in, err := decodeInstruction(data)
	if err != nil {
		return nil, &protocol.OpError{
			Code:    protocol.CodeInvalidInstruction,
			Message: "request does not decode to a known operation",
		}
	}
	return in, nil
}

func decodeInstruction(data []byte) (Instruction, error) {
	r := newReader(data)

	tag, err := r.u8()
	if err != nil {
		return nil, err
	}

	var in Instruction
	switch tag {
	case TagCreateTargetPool:
		in, err = decodeCreateTargetPool(r)
	case TagSubmitSession:
		in, err = decodeSubmitSession(r)
	case TagFinalizeSession:
		in, err = decodeFinalizeSession(r)
	case TagAppendTargetsToPool:
		in, err = decodeAppendTargetsToPool(r)
	case TagFinalizePool:
		in, err = decodeFinalizePool(r)
	default:
		return nil, fmt.Errorf("unknown instruction tag 0x%02x", tag)
	}
	if err != nil {
		return nil, err
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after instruction", r.remaining())
	}
	return in, nil
}

func decodeHashSeq(r *reader) ([]protocol.Hash32, error) {
	n, err := r.length()
	if err != nil {
		return nil, err
	}
	hashes := make([]protocol.Hash32, n)
	for i := range hashes {
		raw, err := r.bytes32()
		if err != nil {
			return nil, err
		}
		hashes[i] = raw
	}
	return hashes, nil
}

func decodeCreateTargetPool(r *reader) (Instruction, error) {
	var in CreateTargetPool
	var err error
	if in.PoolID, err = r.string(); err != nil {
		return nil, err
	}
	if in.TargetHashes, err = decodeHashSeq(r); err != nil {
		return nil, err
	}
	return in, nil
}

func decodeSubmitSession(r *reader) (Instruction, error) {
	var in SubmitSession
	var err error
	if in.SessionID, err = r.string(); err != nil {
		return nil, err
	}
	if in.PoolID, err = r.string(); err != nil {
		return nil, err
	}
	var raw [32]byte
	if raw, err = r.bytes32(); err != nil {
		return nil, err
	}
	in.MediaHash = raw
	if raw, err = r.bytes32(); err != nil {
		return nil, err
	}
	in.SelectorProgram = raw
	if in.CompletedTargetIndices, err = r.u16Seq(); err != nil {
		return nil, err
	}
	return in, nil
}

func decodeFinalizeSession(r *reader) (Instruction, error) {
	var in FinalizeSession
	var err error
	if in.SessionID, err = r.string(); err != nil {
		return nil, err
	}
	if in.Entropy, err = r.string(); err != nil {
		return nil, err
	}
	if in.CompletedTargetIndices, err = r.u16Seq(); err != nil {
		return nil, err
	}
	return in, nil
}

func decodeAppendTargetsToPool(r *reader) (Instruction, error) {
	var in AppendTargetsToPool
	var err error
	if in.PoolID, err = r.string(); err != nil {
		return nil, err
	}
	if in.TargetHashes, err = decodeHashSeq(r); err != nil {
		return nil, err
	}
	return in, nil
}

func decodeFinalizePool(r *reader) (Instruction, error) {
	var in FinalizePool
	var err error
	if in.PoolID, err = r.string(); err != nil {
		return nil, err
	}
	return in, nil
}
