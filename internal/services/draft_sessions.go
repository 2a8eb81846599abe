package services

import (
	"sync"

	"github.com/google/uuid"
)

// DraftSessions keeps one Composer per in-progress route, keyed by id.
type DraftSessions struct {
	mu       sync.RWMutex
	drafts   map[uuid.UUID]*Composer
	newDraft func() *Composer
}

func NewDraftSessions(newDraft func() *Composer) *DraftSessions {
	return &DraftSessions{
		drafts:   make(map[uuid.UUID]*Composer),
		newDraft: newDraft,
	}
}

func (d *DraftSessions) Create() (uuid.UUID, *Composer) {
	id := uuid.New()
	c := d.newDraft()

	d.mu.Lock()
	d.drafts[id] = c
	d.mu.Unlock()

	return id, c
}

func (d *DraftSessions) Get(id uuid.UUID) (*Composer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.drafts[id]
	return c, ok
}

// Discard closes and forgets a draft. It reports whether the draft existed.
func (d *DraftSessions) Discard(id uuid.UUID) bool {
	d.mu.Lock()
	c, ok := d.drafts[id]
	delete(d.drafts, id)
	d.mu.Unlock()

	if ok {
		c.Close()
	}
	return ok
}

func (d *DraftSessions) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.drafts)
}

// CloseAll discards every draft.
func (d *DraftSessions) CloseAll() {
	d.mu.Lock()
	drafts := d.drafts
	d.drafts = make(map[uuid.UUID]*Composer)
	d.mu.Unlock()

	for _, c := range drafts {
		c.Close()
	}
}
