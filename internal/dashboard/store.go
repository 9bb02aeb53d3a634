package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxStoredReports bounds the in-memory report store; the oldest entries
// are evicted first.
const maxStoredReports = 64

type storedReport struct {
	text    string
	created time.Time
	seq     uint64
}

// reportStore keeps raw reports in memory so they can be downloaded after
// the analysis stream has closed.
type reportStore struct {
	mu      sync.Mutex
	reports map[string]storedReport
	nextSeq uint64
}

func newReportStore() *reportStore {
	return &reportStore{reports: make(map[string]storedReport)}
}

// Put stores text and returns its download ID.
func (s *reportStore) Put(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.reports) >= maxStoredReports {
		s.evictOldestLocked()
	}

	id := uuid.NewString()
	s.reports[id] = storedReport{text: text, created: time.Now(), seq: s.nextSeq}
	s.nextSeq++
	return id
}

// Get returns the stored report for id, if present.
func (s *reportStore) Get(id string) (storedReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reports[id]
	return stored, ok
}

func (s *reportStore) evictOldestLocked() {
	var oldestID string
	var oldestSeq uint64
	for id, r := range s.reports {
		if oldestID == "" || r.seq < oldestSeq {
			oldestID = id
			oldestSeq = r.seq
		}
	}
	delete(s.reports, oldestID)
}
