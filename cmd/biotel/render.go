package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/biotel/biotel/internal/sample"
	"github.com/biotel/biotel/internal/stream"
)

// labelColors assigns a stable color per known biosignal channel.
var labelColors = map[int]*color.Color{
	sample.ChannelPPGIR:  color.New(color.FgCyan),
	sample.ChannelPPGRed: color.New(color.FgRed),
	sample.ChannelECG:    color.New(color.FgGreen),
}

// channelName returns the stable label of a channel id.
func channelName(id int) string {
	switch id {
	case sample.ChannelPPGIR:
		return "ppg_ir"
	case sample.ChannelPPGRed:
		return "ppg_red"
	case sample.ChannelECG:
		return "ecg"
	default:
		return fmt.Sprintf("ch%d", id)
	}
}

// snapshotChannels returns the snapshot's channel ids in ascending
// order, so output columns stay stable across ticks.
func snapshotChannels(snap stream.Snapshot) []int {
	ids := make([]int, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// formatCSVHeader builds the CSV header row for the given channels.
func formatCSVHeader(ids []int) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = channelName(id)
	}
	return strings.Join(names, ",")
}

// formatCSVLine renders the latest sample of every channel as one CSV
// row. A channel with an empty window contributes an empty field.
func formatCSVLine(snap stream.Snapshot, ids []int) string {
	fields := make([]string, len(ids))
	for i, id := range ids {
		if window := snap[id]; len(window) > 0 {
			fields[i] = fmt.Sprintf("%d", window[len(window)-1])
		}
	}
	return strings.Join(fields, ",")
}

// formatTableLine renders one status line with colored channel labels,
// the latest sample and the window length per channel.
func formatTableLine(snap stream.Snapshot, ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		window := snap[id]
		if len(window) == 0 {
			continue
		}
		label := channelName(id)
		if c, ok := labelColors[id]; ok {
			label = c.Sprint(label)
		}
		parts = append(parts, fmt.Sprintf("%s %5d (n=%d)", label, window[len(window)-1], len(window)))
	}
	return strings.Join(parts, "  ")
}
