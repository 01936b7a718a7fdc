package reorder

import (
	"sort"

	"github.com/1broseidon/dockbar/internal/buttons"
)

// Move describes a committed reorder.
type Move struct {
	Source     *buttons.Info
	Target     *buttons.Info
	CrossGroup bool
	// FromIndex and ToIndex are the source's window index before and after.
	FromIndex int
	ToIndex   int
}

// Commit moves source onto target's position. Buttons sharing a group are
// reordered inside that group; otherwise the whole source group moves to
// the target group's position. Shift ranges are processed in the direction
// of the shift (descending when shifting up, ascending when shifting down)
// so no two buttons ever pass through the same index. A single forced
// re-layout signal is emitted.
func Commit(c *buttons.Collection, source, target *buttons.Info) Move {
	mv := Move{
		Source:     source,
		Target:     target,
		CrossGroup: source.GroupIndex() != target.GroupIndex(),
		FromIndex:  source.WindowIndex(),
	}

	c.Batch(func() {
		if mv.CrossGroup {
			moveGroup(c, source, target)
		} else {
			moveWithinGroup(c, source, target)
		}
		c.Invalidate()
	})

	mv.ToIndex = source.WindowIndex()
	return mv
}

func moveWithinGroup(c *buttons.Collection, source, target *buttons.Info) {
	group := source.GroupIndex()
	from := source.WindowIndex()
	to := target.WindowIndex()
	if from == to {
		return
	}

	members := c.Group(group)
	if to < from {
		// [to, from) shifts right, highest first.
		shift := filter(members, func(b *buttons.Info) bool {
			return b.WindowIndex() >= to && b.WindowIndex() < from
		})
		sortByWindow(shift, true)
		for _, b := range shift {
			b.SetIndices(group, b.WindowIndex()+1)
		}
	} else {
		// (from, to] shifts left, lowest first.
		shift := filter(members, func(b *buttons.Info) bool {
			return b.WindowIndex() > from && b.WindowIndex() <= to
		})
		sortByWindow(shift, false)
		for _, b := range shift {
			b.SetIndices(group, b.WindowIndex()-1)
		}
	}
	source.SetIndices(group, to)
}

// moveGroup shifts every button of the bridging groups by one group and by
// the number of buttons in the source group, then drops the source group
// into the freed range.
func moveGroup(c *buttons.Collection, source, target *buttons.Info) {
	from := source.GroupIndex()
	to := target.GroupIndex()

	moving := c.Group(from)
	targetGroup := c.Group(to)
	n := len(moving)
	if n == 0 || len(targetGroup) == 0 {
		return
	}

	all := c.Sorted()
	var base int
	if to < from {
		base = targetGroup[0].WindowIndex()
		shift := filter(all, func(b *buttons.Info) bool {
			return b.GroupIndex() >= to && b.GroupIndex() < from
		})
		sortByWindow(shift, true)
		for _, b := range shift {
			b.SetIndices(b.GroupIndex()+1, b.WindowIndex()+n)
		}
	} else {
		base = targetGroup[len(targetGroup)-1].WindowIndex() - n + 1
		shift := filter(all, func(b *buttons.Info) bool {
			return b.GroupIndex() > from && b.GroupIndex() <= to
		})
		sortByWindow(shift, false)
		for _, b := range shift {
			b.SetIndices(b.GroupIndex()-1, b.WindowIndex()-n)
		}
	}

	for i, b := range moving {
		b.SetIndices(to, base+i)
	}
}

func filter(in []*buttons.Info, keep func(*buttons.Info) bool) []*buttons.Info {
	var out []*buttons.Info
	for _, b := range in {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func sortByWindow(in []*buttons.Info, descending bool) {
	sort.SliceStable(in, func(i, j int) bool {
		if descending {
			return in[i].WindowIndex() > in[j].WindowIndex()
		}
		return in[i].WindowIndex() < in[j].WindowIndex()
	})
}
