package store

// bufferEntry is one (timestamp, serialized event) pair held in the
// writer's in-memory min-heap before flush (spec.md §4.7).
type bufferEntry struct {
	timestamp int64
	dataType  string
	parser    string
	payload   []byte
}

// entryHeap is a container/heap.Interface ordering bufferEntry by
// timestamp, ties broken by insertion order (stable via seq).
type entryHeap struct {
	entries []bufferEntry
	seq     []int64
	next    int64
}

func (h *entryHeap) Len() int { return len(h.entries) }

func (h *entryHeap) Less(i, j int) bool {
	if h.entries[i].timestamp != h.entries[j].timestamp {
		return h.entries[i].timestamp < h.entries[j].timestamp
	}
	return h.seq[i] < h.seq[j]
}

func (h *entryHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.seq[i], h.seq[j] = h.seq[j], h.seq[i]
}

func (h *entryHeap) Push(x any) {
	e := x.(bufferEntry)
	h.entries = append(h.entries, e)
	h.seq = append(h.seq, h.next)
	h.next++
}

func (h *entryHeap) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	h.seq = h.seq[:n-1]
	return e
}
