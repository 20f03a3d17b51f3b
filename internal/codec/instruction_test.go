package codec

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sortition/internal/protocol"
)

func fill32(b byte) protocol.Hash32 {
	var h protocol.Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

func TestInstruction_RoundTrip(t *testing.T) {
	cases := []Instruction{
		CreateTargetPool{PoolID: "pool-alpha", TargetHashes: []protocol.Hash32{fill32(0x10), fill32(0x20)}},
		CreateTargetPool{PoolID: "empty-pool", TargetHashes: []protocol.Hash32{}},
		SubmitSession{
			SessionID:              "sess-1",
			PoolID:                 "pool-alpha",
			MediaHash:              fill32(0xAA),
			SelectorProgram:        fill32(0xBB),
			CompletedTargetIndices: []uint16{1, 3},
		},
		FinalizeSession{SessionID: "sess-1", Entropy: "test-entropy", CompletedTargetIndices: []uint16{2}},
		AppendTargetsToPool{PoolID: "pool-alpha", TargetHashes: []protocol.Hash32{fill32(0x30)}},
		FinalizePool{PoolID: "pool-alpha"},
	}

	for _, in := range cases {
		t.Run(in.Name(), func(t *testing.T) {
			data := EncodeInstruction(in)

			got, err := DecodeInstruction(data)
			require.NoError(t, err)

			// Sequences decode to empty slices, never nil; normalize the
			// expectation the same way before comparing.
			assert.Equal(t, in.Name(), got.Name())
			assert.EqualValues(t, EncodeInstruction(got), data, "re-encoding must reproduce the wire bytes")
		})
	}
}

func TestDecodeInstruction_UnknownTag(t *testing.T) {
	_, err := DecodeInstruction([]byte{0x09})
	assert.True(t, protocol.IsCode(err, protocol.CodeInvalidInstruction))
}

func TestDecodeInstruction_Empty(t *testing.T) {
	_, err := DecodeInstruction(nil)
	assert.True(t, protocol.IsCode(err, protocol.CodeInvalidInstruction))
}

func TestDecodeInstruction_Truncated(t *testing.T) {
	full := EncodeInstruction(SubmitSession{
		SessionID:       "sess-1",
		PoolID:          "pool-alpha",
		MediaHash:       fill32(0xAA),
		SelectorProgram: fill32(0xBB),
	})

	for cut := 1; cut < len(full); cut += 7 {
		_, err := DecodeInstruction(full[:cut])
		assert.True(t, protocol.IsCode(err, protocol.CodeInvalidInstruction),
			"truncation at %d must fail with INVALID_INSTRUCTION", cut)
	}
}

func TestDecodeInstruction_TrailingBytes(t *testing.T) {
	data := EncodeInstruction(FinalizePool{PoolID: "p"})
	data = append(data, 0x00)

	_, err := DecodeInstruction(data)
	assert.True(t, protocol.IsCode(err, protocol.CodeInvalidInstruction))
}

func TestDecodeInstruction_OversizedLengthPrefix(t *testing.T) {
	// Tag + a length prefix claiming 4 GiB of pool id.
	data := []byte{TagFinalizePool, 0xFF, 0xFF, 0xFF, 0xFF}

	_, err := DecodeInstruction(data)
	assert.True(t, protocol.IsCode(err, protocol.CodeInvalidInstruction))
}

// Golden files pin the exact wire bytes. The layout is shared with deployed
// state, so any diff here is a compatibility break, not a refactor.
func TestInstruction_GoldenEncoding(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	g.Assert(t, "instruction_create_pool", EncodeInstruction(CreateTargetPool{
		PoolID:       "pool-alpha",
		TargetHashes: []protocol.Hash32{fill32(0x10), fill32(0x20)},
	}))

	g.Assert(t, "instruction_submit_session", EncodeInstruction(SubmitSession{
		SessionID:              "sess-1",
		PoolID:                 "pool-alpha",
		MediaHash:              fill32(0xAA),
		SelectorProgram:        fill32(0xBB),
		CompletedTargetIndices: []uint16{1, 3},
	}))

	g.Assert(t, "instruction_finalize_session", EncodeInstruction(FinalizeSession{
		SessionID:              "sess-1",
		Entropy:                "test-entropy",
		CompletedTargetIndices: []uint16{2},
	}))

	g.Assert(t, "instruction_append_targets", EncodeInstruction(AppendTargetsToPool{
		PoolID:       "pool-alpha",
		TargetHashes: []protocol.Hash32{fill32(0x30)},
	}))

	g.Assert(t, "instruction_finalize_pool", EncodeInstruction(FinalizePool{
		PoolID: "pool-alpha",
	}))
}
