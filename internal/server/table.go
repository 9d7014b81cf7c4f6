package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ironsheep/unimage/internal/processor"
)

// ProcessorTable maps integer handles to live processors.
//
// A Processor has no locking of its own, so the table serializes every
// access: With and WithPair hold the table lock for the duration of the
// callback. Handles are never reused within one table.
type ProcessorTable struct {
	mu         sync.Mutex
	processors map[int64]*processor.Processor
	next       int64
	limit      int
}

// NewProcessorTable creates an empty table holding at most limit processors.
// A limit below 1 means unlimited.
func NewProcessorTable(limit int) *ProcessorTable {
	return &ProcessorTable{
		processors: make(map[int64]*processor.Processor),
		limit:      limit,
	}
}

// Add stores p and returns its handle.
func (t *ProcessorTable) Add(p *processor.Processor) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.limit > 0 && len(t.processors) >= t.limit {
		return 0, fmt.Errorf("processor limit of %d reached; free a handle first", t.limit)
	}
	t.next++
	t.processors[t.next] = p
	return t.next, nil
}

// With runs fn with exclusive access to the processor behind handle.
func (t *ProcessorTable) With(handle int64, fn func(*processor.Processor) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.processors[handle]
	if !ok {
		return unknownHandle(handle)
	}
	return fn(p)
}

// WithPair runs fn with exclusive access to two processors. The handles may
// be equal.
func (t *ProcessorTable) WithPair(a, b int64, fn func(pa, pb *processor.Processor) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pa, ok := t.processors[a]
	if !ok {
		return unknownHandle(a)
	}
	pb, ok := t.processors[b]
	if !ok {
		return unknownHandle(b)
	}
	return fn(pa, pb)
}

// Remove closes and forgets the processor behind handle.
func (t *ProcessorTable) Remove(handle int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.processors[handle]
	if !ok {
		return unknownHandle(handle)
	}
	p.Close()
	delete(t.processors, handle)
	return nil
}

// Len returns the number of live processors.
func (t *ProcessorTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.processors)
}

// Handles returns the live handles in ascending order.
func (t *ProcessorTable) Handles() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	handles := make([]int64, 0, len(t.processors))
	for h := range t.processors {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// CloseAll releases every processor.
func (t *ProcessorTable) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for h, p := range t.processors {
		p.Close()
		delete(t.processors, h)
	}
}

func unknownHandle(handle int64) error {
	return fmt.Errorf("unknown processor handle %d", handle)
}
