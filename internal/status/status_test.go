package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/tagbus/internal/registry"
)

func TestWriteToHeaderWidth(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteTo(&buf, Snapshot{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	require.Len(t, lines[0], RecordWidth)
	require.True(t, strings.HasPrefix(lines[0], " TAG-key"))
}

func TestWriteToRecordWidth(t *testing.T) {
	var buf bytes.Buffer
	snap := Snapshot{Entries: []Entry{
		{Desc: 0, Key: 7, Creator: 1000, Level: 1, Waiters: 3},
		{Desc: 0, Key: 7, Creator: 1000, Level: 2, Waiters: 0},
	}}
	_, err := WriteTo(&buf, snap)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3) // header + 2 records
	for _, l := range lines {
		require.Len(t, l, RecordWidth)
	}
	require.Contains(t, lines[1], "7")
	require.Contains(t, lines[1], "1000")
}

func TestBuildSnapshotFlattensLevels(t *testing.T) {
	reg := registry.NewWithCapacity(4, 4)
	desc, err := reg.Insert(7, false, 1000)
	require.NoError(t, err)

	tag, err := reg.Acquire(desc, registry.AnyUID)
	require.NoError(t, err)
	_, err = tag.Levels.FindOrInsert(1)
	require.NoError(t, err)
	_, err = tag.Levels.FindOrInsert(2)
	require.NoError(t, err)
	reg.Release(tag)

	snap := BuildSnapshot(reg.Snapshot())
	require.Len(t, snap.Entries, 2)
	for _, e := range snap.Entries {
		require.EqualValues(t, 7, e.Key)
		require.EqualValues(t, 1000, e.Creator)
	}
}

func TestBuildSnapshotEmptyTag(t *testing.T) {
	reg := registry.NewWithCapacity(1, 1)
	_, err := reg.Insert(1, false, registry.AnyUID)
	require.NoError(t, err)
	snap := BuildSnapshot(reg.Snapshot())
	require.Empty(t, snap.Entries)
}
