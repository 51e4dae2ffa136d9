package memory

import (
	"context"
	"sync"

	"github.com/govm-net/harness/journal"
)

// memoryJournal keeps entries in insertion order
type memoryJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
	nextID  uint64
}

func init() {
	journal.Register(journal.MemoryBackend, NewJournal)
}

// NewJournal creates an empty in-memory journal; params are ignored
func NewJournal(params map[string]any) (journal.Journal, error) {
	return &memoryJournal{nextID: 1}, nil
}

func (j *memoryJournal) Record(ctx context.Context, e *journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	e.ID = j.nextID
	j.nextID++
	j.entries = append(j.entries, *e)
	return nil
}

func (j *memoryJournal) List(ctx context.Context, filter journal.Filter) ([]journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var result []journal.Entry
	for i := len(j.entries) - 1; i >= 0; i-- {
		if !filter.Match(&j.entries[i]) {
			continue
		}
		result = append(result, j.entries[i])
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func (j *memoryJournal) Close() error {
	return nil
}
