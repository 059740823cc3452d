package sample

// Logical channel ids of the sensor's biosignals. The ids are positions
// in the fixed telemetry layout, not arbitrary labels.
const (
	ChannelPPGIR  = 0 // photoplethysmography, infrared
	ChannelPPGRed = 1 // photoplethysmography, red
	ChannelECG    = 2 // electrocardiogram
)

// fixedLayout maps value positions of a 6-value telemetry frame to
// channel ids: two interleaved 3-channel sub-samples per frame.
var fixedLayout = [6]int{ChannelPPGIR, ChannelPPGRed, ChannelECG, ChannelPPGIR, ChannelPPGRed, ChannelECG}

// Demux routes one decoded telemetry frame into per-channel windows.
// Layout selection is a pure function of the value count: a 6-value
// frame uses the interleaved biosignal layout, anything else maps value
// i to channel i. Pushing in frame order preserves the temporal order of
// the two sub-samples within each channel. An empty frame is a no-op.
func Demux(values []uint16, buf *Buffer) {
	if len(values) == len(fixedLayout) {
		for i, v := range values {
			buf.Push(fixedLayout[i], v)
		}
		return
	}
	for i, v := range values {
		buf.Push(i, v)
	}
}
