// Package chunker implements the Adaptive Chunker: it tracks per-chunk
// throughput and retunes the transfer granularity from a rolling
// average over an adjustment interval, so neither sender nor receiver
// needs out-of-band signaling to agree on a chunk size.
package chunker

import "time"

// Size bounds and defaults, as specified.
const (
	MinChunkSize     = 8 * 1024        // 8 KiB
	MaxChunkSize     = 2 * 1024 * 1024 // 2 MiB
	InitialChunkSize = 64 * 1024       // 64 KiB

	sampleCount         = 5
	adjustmentInterval  = 2 * time.Second
	bytesPerMB  float64 = 1 << 20
)

// tier maps an average throughput (bytes/sec) to the next chunk size.
// Boundaries are inclusive-lower, exclusive-upper; ties fall into the
// lower tier.
func tier(avgBytesPerSec float64) int {
	switch {
	case avgBytesPerSec < 1*bytesPerMB:
		return MinChunkSize
	case avgBytesPerSec < 10*bytesPerMB:
		return 64 * 1024
	case avgBytesPerSec < 50*bytesPerMB:
		return 256 * 1024
	case avgBytesPerSec < 100*bytesPerMB:
		return 1024 * 1024
	default:
		return MaxChunkSize
	}
}

// clamp forces size into [MinChunkSize, MaxChunkSize].
func clamp(size int) int {
	if size < MinChunkSize {
		return MinChunkSize
	}
	if size > MaxChunkSize {
		return MaxChunkSize
	}
	return size
}

// State is the per-transfer AdaptiveState: the current chunk size, the
// rolling ring of recent throughput samples, and bookkeeping for when
// the next adjustment is due. The zero value is not usable; construct
// with New.
type State struct {
	currentChunkSize int

	samples    [sampleCount]float64
	sampleIdx  int
	sampleNum  int // number of populated slots, saturates at sampleCount

	lastAdjustment time.Time
	intervalBytes  int64

	totalBytes int64
	startTime  time.Time

	now func() time.Time // overridable for deterministic tests
}

// New creates an AdaptiveState for a transfer of totalBytes (advisory;
// only used by callers for progress reporting, the chunker itself does
// not need it to make decisions).
func New(totalBytes int64) *State {
	s := &State{now: time.Now}
	s.init(totalBytes)
	return s
}

// init performs the init(total_bytes) operation from the spec: resets
// current_chunk_size to INITIAL, clears samples, and stamps start and
// last-adjustment to "now".
func (s *State) init(totalBytes int64) {
	s.currentChunkSize = InitialChunkSize
	s.samples = [sampleCount]float64{}
	s.sampleIdx = 0
	s.sampleNum = 0
	s.intervalBytes = 0
	s.totalBytes = 0
	n := s.now()
	s.startTime = n
	s.lastAdjustment = n
}

// GetChunkSize returns the current chunk size, defensively clamped
// into [MinChunkSize, MaxChunkSize].
func (s *State) GetChunkSize() int {
	s.currentChunkSize = clamp(s.currentChunkSize)
	return s.currentChunkSize
}

// Update records that bytesDone bytes were transferred in
// elapsedSeconds wall-clock seconds, and retunes current_chunk_size
// if at least one adjustment interval has passed since the last
// retune. A non-positive elapsedSeconds discards the sample (no
// divide-by-zero, no spurious infinity).
func (s *State) Update(bytesDone int64, elapsedSeconds float64) {
	if elapsedSeconds > 0 {
		speed := float64(bytesDone) / elapsedSeconds
		s.samples[s.sampleIdx] = speed
		s.sampleIdx = (s.sampleIdx + 1) % sampleCount
		if s.sampleNum < sampleCount {
			s.sampleNum++
		}
	}
	s.totalBytes += bytesDone
	s.intervalBytes += bytesDone

	now := s.now()
	if now.Sub(s.lastAdjustment) >= adjustmentInterval {
		s.currentChunkSize = clamp(tier(s.average()))
		s.lastAdjustment = now
		s.intervalBytes = 0
	}
}

// average returns the arithmetic mean of the populated sample slots,
// or 0 if none have been recorded yet (which selects the MIN tier,
// causing an immediate first adjustment to starve down rather than
// up, as specified).
func (s *State) average() float64 {
	if s.sampleNum == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < s.sampleNum; i++ {
		sum += s.samples[i]
	}
	return sum / float64(s.sampleNum)
}

// Reset clears the sample ring but preserves current_chunk_size.
func (s *State) Reset() {
	s.samples = [sampleCount]float64{}
	s.sampleIdx = 0
	s.sampleNum = 0
	s.intervalBytes = 0
}

// TotalBytes returns the cumulative bytes recorded via Update, for
// progress reporting and transfer-summary logging.
func (s *State) TotalBytes() int64 {
	return s.totalBytes
}

// Elapsed returns the wall-clock time since the transfer started.
func (s *State) Elapsed() time.Duration {
	return s.now().Sub(s.startTime)
}
