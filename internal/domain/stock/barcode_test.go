package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBarcode(t *testing.T) {
	assert.Equal(t, "ITM4K7Q2ZP1-00007", FormatBarcode("ITM4K7Q2ZP1", 7))
	assert.Equal(t, "ABC-99999", FormatBarcode("ABC", 99999))
	assert.Equal(t, "ABC-100000", FormatBarcode("ABC", 100000))
}

func TestMatchGenerated(t *testing.T) {
	tests := []struct {
		scanned string
		prefix  string
		seq     int64
		ok      bool
	}{
		{"ITM123-00007", "ITM123", 7, true},
		{"A-B-00001", "A-B", 1, true},
		{"ITM123-00000", "ITM123", 0, true},
		{"ITM123-0007", "", 0, false},
		{"ITM123-000007", "", 0, false},
		{"-00001", "", 0, false},
		{"ITM123", "", 0, false},
		{"ITM123-0000a", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.scanned, func(t *testing.T) {
			prefix, seq, ok := MatchGenerated(tt.scanned)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.seq, seq)
		})
	}
}

func TestSequenceFor(t *testing.T) {
	seq, err := SequenceFor("ITM123", "ITM123")
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "原条码序号固定为1")

	seq, err = SequenceFor("ITM123", "ITM123-00042")
	require.NoError(t, err)
	assert.Equal(t, 42, seq)

	seq, err = SequenceFor("ITM123", "ITM123-123456")
	require.NoError(t, err)
	assert.Equal(t, 123456, seq)

	for _, broken := range []string{"ITM999", "ITM123-", "ITM123-abc", "ITM123-00000"} {
		_, err := SequenceFor("ITM123", broken)
		assert.Error(t, err, broken)
	}
}

func TestNewPoolStats(t *testing.T) {
	assert.Equal(t, PoolStats{ItemID: 1}, NewPoolStats(1, 0, 0))

	stats := NewPoolStats(2, 3, 2)
	assert.Equal(t, int64(1), stats.Available)
	assert.Equal(t, 66.7, stats.UtilizationPercent)

	assert.Equal(t, 100.0, NewPoolStats(3, 4, 4).UtilizationPercent)
}

func TestStorageDays(t *testing.T) {
	added := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 1.5, StorageDays(added, added.Add(36*time.Hour)), 1e-9)
	assert.Zero(t, StorageDays(added, added))
}

func TestParseRemovalPolicy(t *testing.T) {
	p, err := ParseRemovalPolicy("", PolicyFIFO)
	require.NoError(t, err)
	assert.Equal(t, PolicyFIFO, p)

	p, err = ParseRemovalPolicy("lifo", PolicyFIFO)
	require.NoError(t, err)
	assert.Equal(t, PolicyLIFO, p)

	_, err = ParseRemovalPolicy("FIFO", PolicyFIFO)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}
