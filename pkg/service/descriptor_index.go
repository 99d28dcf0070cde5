package service

import (
	"sync"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// descriptorIndex is the arena+index structure backing prefetch: each root
// owns an ordered slice of descriptors plus a
// relative-path -> position map. Prefetch works in positional indices, not
// pointers, so a concurrent warmRoot replacing a root's whole entry is
// safe: readers either see the old slice+map pair or the new one, never a
// mix, because the replace happens atomically under mu.
type descriptorIndex struct {
	mu    sync.RWMutex
	roots map[int64]*rootEntry
}

type rootEntry struct {
	order    []v1.PreviewDescriptor
	byRelPath map[string]int
}

func newDescriptorIndex() *descriptorIndex {
	return &descriptorIndex{roots: map[int64]*rootEntry{}}
}

// Replace swaps in a fresh ordered descriptor list for rootID.
func (d *descriptorIndex) Replace(rootID int64, descriptors []v1.PreviewDescriptor) {
	entry := &rootEntry{
		order:     descriptors,
		byRelPath: make(map[string]int, len(descriptors)),
	}
	for i, desc := range descriptors {
		entry.byRelPath[desc.RelativePath] = i
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.roots[rootID] = entry
}

// Lookup returns the descriptor for (rootID, relativePath) and its
// positional index, if known.
func (d *descriptorIndex) Lookup(rootID int64, relativePath string) (v1.PreviewDescriptor, int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.roots[rootID]
	if !ok {
		return v1.PreviewDescriptor{}, 0, false
	}
	idx, ok := entry.byRelPath[relativePath]
	if !ok {
		return v1.PreviewDescriptor{}, 0, false
	}
	return entry.order[idx], idx, true
}

// All returns every descriptor currently held for rootID, in scan order.
func (d *descriptorIndex) All(rootID int64) []v1.PreviewDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.roots[rootID]
	if !ok {
		return nil
	}
	out := make([]v1.PreviewDescriptor, len(entry.order))
	copy(out, entry.order)
	return out
}

// Neighbors returns the descriptors in the symmetric window
// [max(0, a-n), min(len, a+n+1)) around index a, excluding a itself.
func (d *descriptorIndex) Neighbors(rootID int64, anchorIdx, n int) []v1.PreviewDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.roots[rootID]
	if !ok || n <= 0 {
		return nil
	}

	lo := anchorIdx - n
	if lo < 0 {
		lo = 0
	}
	hi := anchorIdx + n + 1
	if hi > len(entry.order) {
		hi = len(entry.order)
	}

	out := make([]v1.PreviewDescriptor, 0, hi-lo)
	for i := lo; i < hi; i++ {
		if i == anchorIdx {
			continue
		}
		out = append(out, entry.order[i])
	}
	return out
}
