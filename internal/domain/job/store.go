package job

import "sync"

// Store is the process-scoped registry of job records. Writes always replace
// the whole record, so a concurrent reader sees either the previous
// fully-formed job or the new one, never a partially mutated record.
//
// Records are kept for the lifetime of the process; there is no eviction.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewStore creates an empty job store
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]Job),
	}
}

// Put inserts or replaces the record for job.ID
func (s *Store) Put(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

// Get returns a snapshot of the record for id, or false if it never existed
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// Len returns the number of stored jobs
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// CountByStatus returns the number of jobs currently in each status
func (s *Store) CountByStatus() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[Status]int, 4)
	for _, j := range s.jobs {
		counts[j.Status]++
	}
	return counts
}
