package status

import "sync"

// linePool reuses the scratch buffer WriteTo formats each record into,
// adapted from the teacher's size-bucketed sync.Pool in
// internal/queue/pool.go. A status snapshot can run to MaxTags*MaxLevels
// records, so avoiding one allocation per record matters on a busy
// export loop.
var linePool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, RecordWidth)
		return &buf
	},
}

func getLineBuffer() *[]byte {
	return linePool.Get().(*[]byte)
}

func putLineBuffer(buf *[]byte) {
	if cap(*buf) > 4*RecordWidth {
		return
	}
	linePool.Put(buf)
}
