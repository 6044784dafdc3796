package channel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/pipelined/textpipe/channel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	c, err := channel.New[byte](0)
	assert.Nil(t, c)
	assert.Equal(t, channel.ErrCapacity, err)

	c, err = channel.New[byte](3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Cap())
	assert.Equal(t, 0, c.Len())
}

func TestFIFO(t *testing.T) {
	tests := []struct {
		capacity int
		length   int
	}{
		{capacity: 1, length: 0},
		{capacity: 1, length: 1},
		{capacity: 1, length: 1000},
		{capacity: 3, length: 10},
		{capacity: 7, length: 1000},
		{capacity: 256, length: 100},
		{capacity: 256, length: 5000},
	}
	for _, test := range tests {
		c, err := channel.New[int](test.capacity)
		require.NoError(t, err)

		var received []int
		var g errgroup.Group
		g.Go(func() error {
			for i := 0; i < test.length; i++ {
				c.Put(i)
			}
			c.Close()
			return nil
		})
		g.Go(func() error {
			for {
				v, ok := c.Get()
				if !ok {
					return nil
				}
				received = append(received, v)
			}
		})
		require.NoError(t, g.Wait())

		assert.Equal(t, test.length, len(received), "capacity %d", test.capacity)
		for i, v := range received {
			if !assert.Equal(t, i, v, "capacity %d", test.capacity) {
				break
			}
		}
	}
}

func TestDrainAfterClose(t *testing.T) {
	c, err := channel.New[byte](4)
	require.NoError(t, err)
	c.Put('a')
	c.Put('b')
	c.Close()
	assert.Equal(t, 2, c.Len())

	v, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, byte('a'), v)
	v, ok = c.Get()
	assert.True(t, ok)
	assert.Equal(t, byte('b'), v)

	// end of stream is reported repeatedly.
	for i := 0; i < 2; i++ {
		v, ok = c.Get()
		assert.False(t, ok)
		assert.Equal(t, byte(0), v)
	}
}

func TestGetBlocksUntilClose(t *testing.T) {
	c, err := channel.New[byte](1)
	require.NoError(t, err)

	done := make(chan bool)
	go func() {
		_, ok := c.Get()
		done <- ok
	}()

	select {
	case <-done:
		t.Fatal("get returned on empty open channel")
	case <-time.After(50 * time.Millisecond):
	}
	c.Close()
	assert.False(t, <-done)
}

func TestBackpressure(t *testing.T) {
	c, err := channel.New[byte](2)
	require.NoError(t, err)
	c.Put('a')
	c.Put('b')

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Put('c')
	}()

	select {
	case <-done:
		t.Fatal("put returned on full channel")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, c.Len())

	v, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, byte('a'), v)
	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	c.Close()
	var rest []byte
	for {
		v, ok := c.Get()
		if !ok {
			break
		}
		rest = append(rest, v)
	}
	assert.Equal(t, []byte("bc"), rest)
}

func TestProtocolViolation(t *testing.T) {
	c, err := channel.New[byte](1)
	require.NoError(t, err)
	c.Close()
	assert.PanicsWithValue(t, channel.ErrClosed, func() { c.Put('a') })
	assert.PanicsWithValue(t, channel.ErrDoubleClose, func() { c.Close() })
}
