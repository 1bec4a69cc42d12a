package logging

import "strings"

// ProgressSampler suppresses repetitive batch progress logs. It emits when the
// completed share of a batch crosses a bucket boundary or when the phase
// changes (for example "resolve" to "covers").
type ProgressSampler struct {
	bucketSize float64
	lastPhase  string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket size in
// percent. Non-positive sizes default to 10%.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether progress at done out of total should be logged.
// A non-positive total means the batch size is unknown; only phase changes
// emit in that case.
func (s *ProgressSampler) ShouldLog(done, total int, phase string) bool {
	if s == nil {
		return true
	}
	phase = strings.TrimSpace(phase)
	emit := false
	if phase != "" && phase != s.lastPhase {
		s.lastPhase = phase
		s.lastBucket = -1
		emit = true
	}
	if total > 0 {
		percent := float64(done) * 100 / float64(total)
		bucket := int(percent / s.bucketSize)
		if done >= total {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state before a new batch.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastPhase = ""
	s.lastBucket = -1
}
