// Package algorithms provides the shortest-path engine the RSUET driver
// uses for column generation: an indexed binary heap and an
// early-terminating Dijkstra built on top of it.
package algorithms

// indexedHeapItem is one entry of the indexed binary heap, keyed by a
// node id and its current tentative distance.
type indexedHeapItem struct {
	node int64
	dist float64
}

// IndexedHeap is an array-based binary min-heap over node distances that
// additionally maintains positionOf[node] -> heap slot, so DecreaseKey runs
// in O(log n) instead of the O(n) a remove-then-reinsert would cost. On
// large networks that O(n) per relaxation would dominate the runtime.
type IndexedHeap struct {
	items      []indexedHeapItem
	positionOf []int // positionOf[nodeID-1] -> index in items, -1 if absent
}

// NewIndexedHeap builds an empty heap sized for n nodes (ids 1..n).
func NewIndexedHeap(n int) *IndexedHeap {
	h := &IndexedHeap{
		items:      make([]indexedHeapItem, 0, n),
		positionOf: make([]int, n),
	}
	for i := range h.positionOf {
		h.positionOf[i] = -1
	}
	return h
}

// Reset clears the heap for reuse without reallocating positionOf.
func (h *IndexedHeap) Reset() {
	for _, it := range h.items {
		h.positionOf[it.node-1] = -1
	}
	h.items = h.items[:0]
}

// Len reports the number of items currently in the heap.
func (h *IndexedHeap) Len() int { return len(h.items) }

// Contains reports whether node is currently in the heap.
func (h *IndexedHeap) Contains(node int64) bool {
	return h.positionOf[node-1] != -1
}

// Insert adds node with the given distance. node must not already be present.
func (h *IndexedHeap) Insert(node int64, dist float64) {
	h.items = append(h.items, indexedHeapItem{node: node, dist: dist})
	idx := len(h.items) - 1
	h.positionOf[node-1] = idx
	h.siftUp(idx)
}

// DecreaseKey lowers node's distance and restores the heap property.
// node must already be present and newDist must be <= its current distance.
func (h *IndexedHeap) DecreaseKey(node int64, newDist float64) {
	idx := h.positionOf[node-1]
	h.items[idx].dist = newDist
	h.siftUp(idx)
}

// ExtractMin removes and returns the node with the smallest distance.
func (h *IndexedHeap) ExtractMin() (int64, float64) {
	top := h.items[0]
	last := len(h.items) - 1
	h.swap(0, last)
	h.items = h.items[:last]
	h.positionOf[top.node-1] = -1
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return top.node, top.dist
}

func (h *IndexedHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.positionOf[h.items[i].node-1] = i
	h.positionOf[h.items[j].node-1] = j
}

func (h *IndexedHeap) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if h.items[parent].dist <= h.items[idx].dist {
			break
		}
		h.swap(parent, idx)
		idx = parent
	}
}

func (h *IndexedHeap) siftDown(idx int) {
	n := len(h.items)
	for {
		left, right := 2*idx+1, 2*idx+2
		smallest := idx
		if left < n && h.items[left].dist < h.items[smallest].dist {
			smallest = left
		}
		if right < n && h.items[right].dist < h.items[smallest].dist {
			smallest = right
		}
		if smallest == idx {
			return
		}
		h.swap(idx, smallest)
		idx = smallest
	}
}
