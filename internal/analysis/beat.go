package analysis

// DefaultBeatThreshold is the relative rise over the previous tick that
// counts as a beat.
const DefaultBeatThreshold = 0.2

// BeatDetector flags ticks whose volume rises sharply over the previous tick.
//
// The baseline is the previous call's volume, not a running average, so a
// loud tick is usually followed by a quiet reading and the output flickers
// on sustained material. Callers that want a steadier signal should smooth
// the volume before calling Detect.
type BeatDetector struct {
	threshold float64
	baseline  float64
}

// NewBeatDetector returns a detector with a zero baseline. A negative
// threshold is treated as zero.
func NewBeatDetector(threshold float64) *BeatDetector {
	if threshold < 0 {
		threshold = 0
	}
	analyserLog.Debugf("Initializing BeatDetector (Threshold: %.2f)", threshold)
	return &BeatDetector{threshold: threshold}
}

// Detect reports whether volume exceeds the baseline by more than the
// threshold, then makes volume the new baseline regardless of the outcome.
func (d *BeatDetector) Detect(volume float64) bool {
	isBeat := volume > d.baseline*(1+d.threshold)
	d.baseline = volume
	return isBeat
}

// Baseline returns the volume the next call will be compared against.
func (d *BeatDetector) Baseline() float64 { return d.baseline }

// Threshold returns the configured relative threshold.
func (d *BeatDetector) Threshold() float64 { return d.threshold }

// Reset returns the detector to its initial state.
func (d *BeatDetector) Reset() { d.baseline = 0 }

// Volume returns the arithmetic mean of the bins, in [0,255]. An empty
// slice has volume 0.
func Volume(bins []uint8) float64 {
	if len(bins) == 0 {
		return 0
	}
	var sum int
	for _, b := range bins {
		sum += int(b)
	}
	return float64(sum) / float64(len(bins))
}

// NormalizedMagnitude scales a volume into [0,1].
func NormalizedMagnitude(volume float64) float64 {
	switch {
	case !(volume > 0):
		return 0
	case volume >= 255:
		return 1
	default:
		return volume / 255
	}
}
