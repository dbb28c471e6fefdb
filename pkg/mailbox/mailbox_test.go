package mailbox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_FIFO(t *testing.T) {
	m := New[int]()
	for i := 0; i < 5; i++ {
		require.True(t, m.Put(i))
	}
	<-m.C()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, m.Drain())
	assert.Empty(t, m.Drain())
}

func TestMailbox_PutNeverBlocks(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				m.Put(i)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 4000, m.Len())
}

func TestMailbox_ClosedRejectsPut(t *testing.T) {
	m := New[string]()
	m.Put("a")
	m.Close()
	assert.False(t, m.Put("b"))
	assert.Equal(t, []string{"a"}, m.Drain())
}
