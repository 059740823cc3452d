package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemuxFixedSixValueLayout(t *testing.T) {
	b := NewBuffer(10)

	Demux([]uint16{100, 200, 300, 101, 201, 301}, b)

	drained := b.DrainAll()
	require.Len(t, drained, 3)
	assert.Equal(t, []uint16{100, 101}, drained[ChannelPPGIR])
	assert.Equal(t, []uint16{200, 201}, drained[ChannelPPGRed])
	assert.Equal(t, []uint16{300, 301}, drained[ChannelECG])
}

func TestDemuxGenericLayout(t *testing.T) {
	tests := []struct {
		name   string
		values []uint16
	}{
		{name: "shorter than fixed layout", values: []uint16{7, 8, 9}},
		{name: "longer than fixed layout", values: []uint16{1, 2, 3, 4, 5, 6, 7}},
		{name: "single value", values: []uint16{42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(10)

			Demux(tt.values, b)

			drained := b.DrainAll()
			require.Len(t, drained, len(tt.values))
			for i, v := range tt.values {
				assert.Equal(t, []uint16{v}, drained[i], "value %d routes to channel %d", v, i)
			}
		})
	}
}

func TestDemuxEmptyFrameIsNoOp(t *testing.T) {
	b := NewBuffer(10)

	Demux(nil, b)
	Demux([]uint16{}, b)

	assert.Empty(t, b.DrainAll())
}

func TestDemuxPreservesTemporalOrderAcrossFrames(t *testing.T) {
	b := NewBuffer(10)

	Demux([]uint16{100, 200, 300, 101, 201, 301}, b)
	Demux([]uint16{102, 202, 302, 103, 203, 303}, b)

	drained := b.DrainAll()
	assert.Equal(t, []uint16{100, 101, 102, 103}, drained[ChannelPPGIR])
	assert.Equal(t, []uint16{200, 201, 202, 203}, drained[ChannelPPGRed])
	assert.Equal(t, []uint16{300, 301, 302, 303}, drained[ChannelECG])
}
