package tagbus

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateOpenRemove(t *testing.T) {
	c := New(DefaultConfig())

	desc, err := c.Get(7, CmdCreate, 1000)
	require.NoError(t, err)
	require.Equal(t, int32(0), desc)

	opened, err := c.Get(7, CmdOpen, -1)
	require.NoError(t, err)
	require.Equal(t, desc, opened)

	require.NoError(t, c.Ctl(desc, CmdRemove))

	_, err = c.Get(7, CmdOpen, -1)
	require.Error(t, err)
	require.True(t, IsCode(err, CodeNotFound))
}

func TestPrivateTagIsInvisible(t *testing.T) {
	c := New(DefaultConfig())

	desc, err := c.Get(PrivateSentinel, CmdCreate, 1000)
	require.NoError(t, err)
	require.Equal(t, int32(0), desc)

	_, err = c.Get(PrivateSentinel, CmdOpen, -1)
	require.Error(t, err)
}

func TestMultiReceiverBroadcast(t *testing.T) {
	c := New(DefaultConfig())
	desc, err := c.Get(1, CmdCreate, -1)
	require.NoError(t, err)

	const n = 5
	results := make(chan string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			buf := make([]byte, 16)
			sz, err := c.Receive(context.Background(), desc, 1, buf)
			if err != nil {
				results <- "err:" + err.Error()
				return
			}
			results <- string(buf[:sz])
		}()
	}

	waitForWaiters(t, c, desc, 1, n)
	require.NoError(t, c.Send(desc, 1, []byte("hello")))
	wg.Wait()
	close(results)

	for r := range results {
		require.Equal(t, "hello", r)
	}

	// A subsequent receive blocks again: it must time out via ctx.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Receive(ctx, desc, 1, make([]byte, 16))
	require.Error(t, err)
}

func TestLostPublication(t *testing.T) {
	c := New(DefaultConfig())
	desc, err := c.Get(1, CmdCreate, -1)
	require.NoError(t, err)

	require.NoError(t, c.Send(desc, 2, []byte("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Receive(ctx, desc, 2, make([]byte, 16))
	require.Error(t, err)
}

func TestStrictRemove(t *testing.T) {
	c := New(DefaultConfig())
	desc, err := c.Get(1, CmdCreate, -1)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Receive(context.Background(), desc, 1, make([]byte, 16))
		done <- err
	}()
	waitForWaiters(t, c, desc, 1, 1)

	err = c.Ctl(desc, CmdRemove)
	require.Error(t, err)
	require.True(t, IsCode(err, CodeBusy))

	require.NoError(t, c.Ctl(desc, CmdAwakeAll))

	select {
	case err := <-done:
		require.Error(t, err)
		require.True(t, IsCode(err, CodeInterrupted))
	case <-time.After(time.Second):
		t.Fatal("receiver never woke up")
	}

	require.NoError(t, c.Ctl(desc, CmdRemove))
}

func TestPermission(t *testing.T) {
	c := New(DefaultConfig())
	desc, err := c.Get(7, CmdCreate, 1000)
	require.NoError(t, err)

	_, err = c.Get(7, CmdOpen, 1001)
	require.Error(t, err)
	require.True(t, IsCode(err, CodePermission))

	opened, err := c.Get(7, CmdOpen, 1000)
	require.NoError(t, err)
	require.Equal(t, desc, opened)
}

func TestSendReceiveRoundTrip(t *testing.T) {
	c := New(DefaultConfig())
	desc, err := c.Get(2, CmdCreate, -1)
	require.NoError(t, err)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 5)
		n, err := c.Receive(context.Background(), desc, 0, buf)
		require.NoError(t, err)
		done <- buf[:n]
	}()
	waitForWaiters(t, c, desc, 0, 1)
	require.NoError(t, c.Send(desc, 0, []byte("abcde")))

	select {
	case got := <-done:
		require.Equal(t, "abcde", string(got))
	case <-time.After(time.Second):
		t.Fatal("receive never completed")
	}
}

func TestCreateDuplicateKeyFails(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Get(42, CmdCreate, -1)
	require.NoError(t, err)

	_, err = c.Get(42, CmdCreate, -1)
	require.Error(t, err)
	require.True(t, IsCode(err, CodeKeyExists))
}

func TestRemoveThenCreateReusesDescriptor(t *testing.T) {
	c := New(DefaultConfig())
	desc, err := c.Get(42, CmdCreate, -1)
	require.NoError(t, err)
	require.NoError(t, c.Ctl(desc, CmdRemove))

	desc2, err := c.Get(42, CmdCreate, -1)
	require.NoError(t, err)
	require.Equal(t, desc, desc2)
}

func TestWriteStatusIncludesLiveLevel(t *testing.T) {
	c := New(DefaultConfig())
	desc, err := c.Get(9, CmdCreate, 55)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	go c.Receive(ctx, desc, 3, make([]byte, 1))
	waitForWaiters(t, c, desc, 3, 1)

	var buf bytes.Buffer
	_, err = WriteStatus(&buf, c)
	require.NoError(t, err)
	out := buf.String()
	require.True(t, strings.Contains(out, "9"))
	require.True(t, strings.Contains(out, "55"))
}

// waitForWaiters polls the status snapshot until the given level shows the
// expected waiter count, avoiding a fixed sleep in concurrency tests.
func waitForWaiters(t *testing.T, c *Controller, desc, lvl int32, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, e := range Snapshot(c).Entries {
			if e.Desc == desc && e.Level == lvl && int(e.Waiters) >= want {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d waiters on (%d,%d)", want, desc, lvl)
}
