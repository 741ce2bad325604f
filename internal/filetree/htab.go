package filetree

import "github.com/cespare/xxhash/v2"

// htab is an open-addressing string-keyed hash table using xxhash as its
// hash function, grounded on elliotnunn-BeHierarchic/internal/internpath/htab.go's
// open-addressing design but keyed by a stable, exported-algorithm hash
// instead of hash/maphash, so a directory's child lookup doesn't depend on
// a per-process random seed.
type htab struct {
	slots []slot
	count int
}

type slot struct {
	hash uint64
	name string
	node *Node
}

func newHtab() *htab {
	return &htab{slots: make([]slot, 8)}
}

func (h *htab) get(name string) (*Node, bool) {
	mask := uint64(len(h.slots) - 1)
	hv := xxhash.Sum64String(name)
	for i := hv & mask; ; i = (i + 1) & mask {
		s := &h.slots[i]
		if s.node == nil {
			return nil, false
		}
		if s.hash == hv && s.name == name {
			return s.node, true
		}
	}
}

func (h *htab) put(name string, node *Node) {
	if (h.count+1)*2 > len(h.slots) {
		h.grow()
	}
	h.putOne(name, node)
}

func (h *htab) putOne(name string, node *Node) {
	mask := uint64(len(h.slots) - 1)
	hv := xxhash.Sum64String(name)
	for i := hv & mask; ; i = (i + 1) & mask {
		s := &h.slots[i]
		if s.node == nil {
			*s = slot{hash: hv, name: name, node: node}
			h.count++
			return
		}
		if s.hash == hv && s.name == name {
			s.node = node
			return
		}
	}
}

func (h *htab) grow() {
	old := h.slots
	h.slots = make([]slot, len(old)*2)
	h.count = 0
	for _, s := range old {
		if s.node != nil {
			h.putOne(s.name, s.node)
		}
	}
}
