package results

import "seqclu/core/engine"

// Iface hint:
var _ Store = new(MemoryStore)

// MemoryStore keeps everything in maps. Nothing survives the process;
// meant for tests and runs where persistence is not wanted.
type MemoryStore struct {
	runs        map[string]Run
	assignments map[string][]engine.Assignment
	metrics     map[string]map[string]float64
}

// NewMemoryStore sets up an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:        make(map[string]Run),
		assignments: make(map[string][]engine.Assignment),
		metrics:     make(map[string]map[string]float64),
	}
}

func (s *MemoryStore) SaveRun(run Run) error {
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) SaveAssignments(runID string, assignments []engine.Assignment) error {
	if _, ok := s.runs[runID]; !ok {
		return ErrUnknownRun
	}
	s.assignments[runID] = append(s.assignments[runID], assignments...)
	return nil
}

func (s *MemoryStore) SaveMetrics(runID string, metrics map[string]float64) error {
	if _, ok := s.runs[runID]; !ok {
		return ErrUnknownRun
	}
	if s.metrics[runID] == nil {
		s.metrics[runID] = make(map[string]float64, len(metrics))
	}
	for name, value := range metrics {
		s.metrics[runID][name] = value
	}
	return nil
}

func (s *MemoryStore) Assignments(runID string) ([]engine.Assignment, error) {
	if _, ok := s.runs[runID]; !ok {
		return nil, ErrUnknownRun
	}
	return s.assignments[runID], nil
}

func (s *MemoryStore) Metrics(runID string) (map[string]float64, error) {
	if _, ok := s.runs[runID]; !ok {
		return nil, ErrUnknownRun
	}
	return s.metrics[runID], nil
}

func (s *MemoryStore) Close() error { return nil }
