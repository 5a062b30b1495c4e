// Package status renders a read-only, fixed-width snapshot of the
// registry for the external status device, grounded on the original
// driver's tag_info/device_read character-device export (lib/driver.c).
package status

import (
	"fmt"
	"io"

	"github.com/ehrlich-b/tagbus/internal/registry"
)

// RecordWidth is the fixed byte width of the header line and of every
// per-(tag, level) record, per spec.md §6.
const RecordWidth = 100

// Header is the column header line before padding to RecordWidth.
const Header = " TAG-key   TAG-creator   TAG-level   Waiting-threads "

// Entry is one (tag, level) row of the snapshot.
type Entry struct {
	Desc    int32
	Key     int32
	Creator int32 // owner uid; registry.AnyUID for an unrestricted tag
	Level   int32
	Waiters int64
}

// Snapshot is every live (tag, level) row at the moment it was built.
type Snapshot struct {
	Entries []Entry
}

// BuildSnapshot flattens a registry snapshot (one entry per tag) into one
// status row per (tag, level) pair, matching spec.md §6's "one 100-byte
// record per (tag, level) pair for every live tag and every live level".
func BuildSnapshot(tags []*registry.Tag) Snapshot {
	var entries []Entry
	for _, t := range tags {
		for _, lv := range t.Levels.Snapshot() {
			entries = append(entries, Entry{
				Desc:    t.Desc,
				Key:     t.Key,
				Creator: t.OwnerUID,
				Level:   lv.Number,
				Waiters: lv.Waiters,
			})
		}
	}
	return Snapshot{Entries: entries}
}

func padLine(buf []byte, width int) []byte {
	if len(buf) >= width {
		return buf[:width]
	}
	for len(buf) < width {
		buf = append(buf, ' ')
	}
	return buf
}

// WriteTo writes the fixed-width header followed by one record per entry,
// each newline-terminated, reusing a pooled scratch buffer for formatting.
func WriteTo(w io.Writer, snap Snapshot) (int64, error) {
	var total int64

	header := padLine([]byte(Header), RecordWidth)
	header = append(header, '\n')
	n, err := w.Write(header)
	total += int64(n)
	if err != nil {
		return total, err
	}

	line := getLineBuffer()
	defer putLineBuffer(line)

	for _, e := range snap.Entries {
		*line = (*line)[:0]
		*line = fmt.Appendf(*line, " %-10d %-13d %-11d %-18d", e.Key, e.Creator, e.Level, e.Waiters)
		*line = padLine(*line, RecordWidth)
		*line = append(*line, '\n')

		n, err := w.Write(*line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
