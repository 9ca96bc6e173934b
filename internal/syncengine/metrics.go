package syncengine

import "time"

// Stats summarizes one executed plan.
type Stats struct {
	// Done counts completed actions per phase.
	Done map[Phase]int

	// BytesCopied is the size of every copied file, as recorded in the catalog.
	BytesCopied int64

	Started  time.Time
	Finished time.Time
}

func newStats(now time.Time) *Stats {
	return &Stats{Done: make(map[Phase]int), Started: now}
}

// Elapsed is the wall time of the run.
func (s *Stats) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}

	return s.Finished.Sub(s.Started)
}

// Total is the number of completed actions.
func (s *Stats) Total() int {
	total := 0
	for _, count := range s.Done {
		total += count
	}

	return total
}

// Throughput returns copied bytes per second, 0 for an instantaneous run.
func (s *Stats) Throughput() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(s.BytesCopied) / elapsed
}

func (s *Stats) record(phase Phase, action Action) {
	s.Done[phase]++

	if action.Kind == ActionCopyFile {
		s.BytesCopied += action.Size
	}
}
