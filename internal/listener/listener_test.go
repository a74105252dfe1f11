package listener

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestListener(t *testing.T) *Listener {
	t.Helper()
	l, err := New(Config{
		RPCURL:          "https://rpc.example.com",
		ProgramID:       "LanMV9sAd7wArD4vJFi2qDdfnVhFxYSUg6eADduJ3uj",
		PollInterval:    2 * time.Second,
		FreshnessWindow: 15 * time.Second,
		BonkSuffixOnly:  true,
	}, zap.NewNop())
	require.NoError(t, err)
	return l
}

func TestNewRejectsBadProgramID(t *testing.T) {
	_, err := New(Config{
		RPCURL:    "https://rpc.example.com",
		ProgramID: "not-a-pubkey",
	}, zap.NewNop())
	assert.Error(t, err)
}

func TestMarkSignatureDeduplicates(t *testing.T) {
	l := newTestListener(t)

	var sig solana.Signature
	copy(sig[:], []byte("signature-one"))

	assert.True(t, l.markSignature(sig))
	assert.False(t, l.markSignature(sig), "same signature must be suppressed")

	var other solana.Signature
	copy(other[:], []byte("signature-two"))
	assert.True(t, l.markSignature(other))
}

func TestMarkMintDeduplicates(t *testing.T) {
	l := newTestListener(t)

	assert.True(t, l.markMint("mint1bonk"))
	assert.False(t, l.markMint("mint1bonk"))
	assert.True(t, l.markMint("mint2bonk"))
}

func TestMarkSignatureResetsAtCapacity(t *testing.T) {
	l := newTestListener(t)

	for i := 0; i < maxSeenSigs; i++ {
		var sig solana.Signature
		sig[0] = byte(i)
		sig[1] = byte(i >> 8)
		sig[2] = byte(i >> 16)
		l.markSignature(sig)
	}

	// The map resets rather than grows without bound, so the next mark wins
	// even though memory stays bounded.
	var sig solana.Signature
	sig[3] = 0xFF
	assert.True(t, l.markSignature(sig))
	assert.LessOrEqual(t, len(l.seenSigs), maxSeenSigs)
}

func TestHasCreateLog(t *testing.T) {
	creates := [][]string{
		{"Program log: Instruction: InitializeMint2"},
		{"Program log: something", "Program log: Instruction: Create"},
		{"Program log: Instruction: Initialize"},
	}
	for _, logs := range creates {
		assert.True(t, hasCreateLog(logs), "logs: %v", logs)
	}

	trades := [][]string{
		{"Program log: Instruction: Swap"},
		{"Program log: Instruction: Buy", "Program log: Instruction: Sell"},
		{},
	}
	for _, logs := range trades {
		assert.False(t, hasCreateLog(logs), "logs: %v", logs)
	}
}

func TestShortSig(t *testing.T) {
	var sig solana.Signature
	copy(sig[:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	short := shortSig(sig)
	assert.Len(t, short, 11)
	assert.Contains(t, short, "...")
}
