package main

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/biotel/biotel/internal/stream"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.2.3", want: "v1.2.3"},
		{in: "v1.2.3", want: "v1.2.3"},
		{in: "dev", want: "dev"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.in))
	}
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "ppg_ir", channelName(0))
	assert.Equal(t, "ppg_red", channelName(1))
	assert.Equal(t, "ecg", channelName(2))
	assert.Equal(t, "ch7", channelName(7))
}

func TestSnapshotChannelsSorted(t *testing.T) {
	snap := stream.Snapshot{2: {1}, 0: {2}, 1: {3}}

	assert.Equal(t, []int{0, 1, 2}, snapshotChannels(snap))
}

func TestFormatCSV(t *testing.T) {
	snap := stream.Snapshot{
		0: {100, 101},
		1: {200, 201},
		2: {300, 301},
	}
	ids := snapshotChannels(snap)

	assert.Equal(t, "ppg_ir,ppg_red,ecg", formatCSVHeader(ids))
	assert.Equal(t, "101,201,301", formatCSVLine(snap, ids))
}

func TestFormatCSVLineEmptyWindow(t *testing.T) {
	snap := stream.Snapshot{0: {42}, 1: nil}
	ids := snapshotChannels(snap)

	assert.Equal(t, "42,", formatCSVLine(snap, ids))
}

func TestFormatTableLine(t *testing.T) {
	color.NoColor = true

	snap := stream.Snapshot{
		0: {100, 101},
		2: {300},
	}

	got := formatTableLine(snap, snapshotChannels(snap))

	assert.Equal(t, "ppg_ir   101 (n=2)  ecg   300 (n=1)", got)
}
