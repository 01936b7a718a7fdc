package buttons

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownButton is returned when a lookup does not match any button.
var ErrUnknownButton = errors.New("unknown button")

// Record is the flat description of a button supplied by a button source.
type Record struct {
	Title    string
	Icon     string
	GroupKey string
	Source   Source
}

// Collection is the ordered set of buttons shown on the bar.
//
// It is not safe for concurrent use; callers serialize access on the
// dispatcher that owns the bar.
type Collection struct {
	items     []*Info
	observers map[int]func()
	nextObs   int
	batch     int
	dirty     bool
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{observers: make(map[int]func())}
}

// Subscribe registers fn to be called on every forced re-layout signal.
// The returned function removes the subscription.
func (c *Collection) Subscribe(fn func()) func() {
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() { delete(c.observers, id) }
}

// Batch runs fn with change notifications deferred; a single signal is
// emitted afterwards if any index changed.
func (c *Collection) Batch(fn func()) {
	c.batch++
	defer func() {
		c.batch--
		if c.batch == 0 && c.dirty {
			c.dirty = false
			c.notify()
		}
	}()
	fn()
}

// Invalidate forces a re-layout signal without changing indices.
func (c *Collection) Invalidate() {
	c.changed()
}

func (c *Collection) changed() {
	if c.batch > 0 {
		c.dirty = true
		return
	}
	c.notify()
}

func (c *Collection) notify() {
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := c.observers[id]; ok {
			fn()
		}
	}
}

// Len returns the number of buttons.
func (c *Collection) Len() int { return len(c.items) }

// Items returns the buttons in insertion order.
func (c *Collection) Items() []*Info {
	out := make([]*Info, len(c.items))
	copy(out, c.items)
	return out
}

// Sorted returns the buttons ordered by window index.
func (c *Collection) Sorted() []*Info {
	out := c.Items()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].windowIndex < out[j].windowIndex
	})
	return out
}

// Group returns the members of a group ordered by window index.
func (c *Collection) Group(groupIndex int) []*Info {
	var out []*Info
	for _, b := range c.Sorted() {
		if b.groupIndex == groupIndex {
			out = append(out, b)
		}
	}
	return out
}

// ByWindowIndex finds the button at the given window index.
func (c *Collection) ByWindowIndex(idx int) (*Info, error) {
	for _, b := range c.items {
		if b.windowIndex == idx {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: window index %d", ErrUnknownButton, idx)
}

// Contains reports whether b is currently part of the collection.
func (c *Collection) Contains(b *Info) bool {
	return b != nil && b.owner == c
}

// ByKey finds the button for a source key.
func (c *Collection) ByKey(key string) (*Info, error) {
	for _, b := range c.items {
		if b.Key() == key {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownButton, key)
}

// Add appends b at the end of its group, or as a new trailing group.
func (c *Collection) Add(b *Info) {
	c.Batch(func() {
		b.owner = c
		b.groupIndex = -1
		b.windowIndex = len(c.items)
		c.items = append(c.items, b)
		c.Normalize()
	})
}

// Remove drops b and closes the gap it leaves.
func (c *Collection) Remove(b *Info) error {
	for i, it := range c.items {
		if it != b {
			continue
		}
		c.Batch(func() {
			c.items = append(c.items[:i], c.items[i+1:]...)
			b.owner = nil
			c.Normalize()
			c.dirty = true
		})
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownButton, b.Key())
}

// Normalize compacts indices so window indices are 0..n-1 and every
// group occupies a contiguous run. Buttons with a negative group index
// are attached to the group sharing their GroupKey, or become a new
// trailing group.
func (c *Collection) Normalize() {
	placed := make([]*Info, 0, len(c.items))
	var pending []*Info
	for _, b := range c.items {
		if b.groupIndex < 0 {
			pending = append(pending, b)
			continue
		}
		placed = append(placed, b)
	}
	sort.SliceStable(placed, func(i, j int) bool {
		if placed[i].groupIndex != placed[j].groupIndex {
			return placed[i].groupIndex < placed[j].groupIndex
		}
		return placed[i].windowIndex < placed[j].windowIndex
	})

	// Group runs keyed by their first member's group index.
	type run struct {
		key     string
		members []*Info
	}
	var runs []*run
	for _, b := range placed {
		if n := len(runs); n > 0 && runs[n-1].members[0].groupIndex == b.groupIndex {
			runs[n-1].members = append(runs[n-1].members, b)
			continue
		}
		runs = append(runs, &run{key: b.GroupKey, members: []*Info{b}})
	}
	for _, b := range pending {
		var target *run
		if b.GroupKey != "" {
			for _, r := range runs {
				if r.key == b.GroupKey {
					target = r
					break
				}
			}
		}
		if target == nil {
			target = &run{key: b.GroupKey}
			runs = append(runs, target)
		}
		target.members = append(target.members, b)
	}

	c.Batch(func() {
		wi := 0
		for gi, r := range runs {
			for _, b := range r.members {
				b.SetIndices(gi, wi)
				wi++
			}
		}
	})
}

// Sync reconciles the collection against the current records from the
// button sources. Existing buttons keep identity and position, new ones
// join their group, vanished ones are removed.
func (c *Collection) Sync(records []Record) (added, removed int) {
	want := make(map[string]Record, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		key := r.Source.Key()
		if key == "" {
			continue
		}
		if _, dup := want[key]; dup {
			continue
		}
		want[key] = r
		order = append(order, key)
	}

	c.Batch(func() {
		kept := c.items[:0]
		for _, b := range c.items {
			r, ok := want[b.Key()]
			if !ok {
				b.owner = nil
				removed++
				continue
			}
			if b.Title != r.Title || b.Icon != r.Icon {
				b.Title = r.Title
				b.Icon = r.Icon
				c.dirty = true
			}
			b.Source = r.Source
			delete(want, b.Key())
			kept = append(kept, b)
		}
		c.items = kept

		for _, key := range order {
			r, ok := want[key]
			if !ok {
				continue
			}
			b := &Info{
				Title:       r.Title,
				Icon:        r.Icon,
				GroupKey:    r.GroupKey,
				Source:      r.Source,
				owner:       c,
				groupIndex:  -1,
				windowIndex: len(c.items),
			}
			c.items = append(c.items, b)
			added++
		}
		if added > 0 || removed > 0 {
			c.dirty = true
		}
		c.Normalize()
	})
	return added, removed
}

// Validate checks that window indices are exactly 0..n-1 and that every
// group occupies a contiguous run of window indices.
func (c *Collection) Validate() error {
	sorted := c.Sorted()
	for i, b := range sorted {
		if b.windowIndex != i {
			return fmt.Errorf("window index %d at position %d (want %d)", b.windowIndex, i, i)
		}
	}
	seen := make(map[int]bool)
	for i, b := range sorted {
		if i > 0 && sorted[i-1].groupIndex == b.groupIndex {
			continue
		}
		if seen[b.groupIndex] {
			return fmt.Errorf("group %d is not contiguous (window index %d)", b.groupIndex, b.windowIndex)
		}
		seen[b.groupIndex] = true
	}
	return nil
}
