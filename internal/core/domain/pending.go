package domain

// PendingSet holds the work items not yet confirmed as successfully uploaded.
//
// It is an ordered multiset: an item listed twice in the input must be
// confirmed twice before it disappears. A PendingSet is not safe for
// concurrent use; the orchestrator mutates it from a single goroutine.
type PendingSet struct {
	items []WorkItem
}

// NewPendingSet creates a pending set holding a copy of items.
func NewPendingSet(items []WorkItem) *PendingSet {
	cp := make([]WorkItem, len(items))
	copy(cp, items)
	return &PendingSet{items: cp}
}

// Items returns a copy of the pending items in their current order.
func (p *PendingSet) Items() []WorkItem {
	out := make([]WorkItem, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of pending items.
func (p *PendingSet) Len() int {
	return len(p.items)
}

// Contains reports whether item is pending.
func (p *PendingSet) Contains(item WorkItem) bool {
	return p.indexOf(item) >= 0
}

// Remove drops one occurrence of each given item.
// Items that are not pending are ignored. Returns the number removed.
func (p *PendingSet) Remove(items ...WorkItem) int {
	removed := 0
	for _, item := range items {
		i := p.indexOf(item)
		if i < 0 {
			continue
		}
		p.items = append(p.items[:i], p.items[i+1:]...)
		removed++
	}
	return removed
}

func (p *PendingSet) indexOf(item WorkItem) int {
	for i, it := range p.items {
		if it == item {
			return i
		}
	}
	return -1
}
