// Package events fans out change notifications to in-process subscribers.
package events

import (
	"sync"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpReplace is emitted once per collection when an import or reset
	// rewrites it wholesale.
	OpReplace Op = "replace"
)

const (
	CollectionClients   = "clients"
	CollectionDocuments = "documents"
	CollectionLedgers   = "ledgers"
	CollectionSettings  = "settings"
	CollectionCompanies = "companies"
)

// Change describes one committed mutation.
type Change struct {
	Collection string
	Op         Op
	ID         string
	CompanyID  string
}

// Broadcaster delivers every change to all current subscribers. Sends never
// block: a subscriber whose buffer is full misses the change.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan Change
	nextID int
	buffer int
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{subs: make(map[int]chan Change), buffer: buffer}
}

// Subscribe returns a channel of changes and a function that closes it.
func (b *Broadcaster) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Change, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Broadcaster) Notify(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Discard drops every change.
type Discard struct{}

func (Discard) Notify(Change) {}
