package store

import (
	"fmt"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"
)

// mmapSeekThreshold is the timestamps-member byte size above which
// SeekTime spills to a memory-mapped temp file for the binary search
// instead of probing the already in-memory decoded slice (spec.md
// §4.8's time-seek fast path). At 8 bytes per timestamp, segments of
// 512 or more events take the mmap path.
const mmapSeekThreshold = 4096

// mmapSeekTime writes ts to a temp file, memory-maps it with
// github.com/edsrzf/mmap-go, and binary-walks the mapping directly
// (grounded in kortschak-ins's use of the same library for its
// on-disk ordered store) to find the first index whose timestamp is
// >= lowerBound. The temp file is removed before returning.
func mmapSeekTime(ts []int64, lowerBound int64) (int, error) {
	if len(ts) == 0 {
		return 0, nil
	}

	f, err := os.CreateTemp("", "plaso-timestamps-*")
	if err != nil {
		return 0, fmt.Errorf("store: mmap seek: temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	defer f.Close()

	if _, err := f.Write(encodeTimestamps(ts)); err != nil {
		return 0, fmt.Errorf("store: mmap seek: write: %w", err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("store: mmap seek: map: %w", err)
	}
	defer m.Unmap()

	n := len(ts)
	idx := sort.Search(n, func(i int) bool {
		return int64(order.Uint64(m[8*i:8*i+8])) >= lowerBound
	})
	return idx, nil
}
