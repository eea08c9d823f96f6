package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGetDelete(t *testing.T) {
	c := New(time.Minute, 0, 10)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	c.Delete("a")
}

func TestEntryExpires(t *testing.T) {
	c := New(time.Minute, 0, 10)

	c.SetWithExpiration("a", 1, 10*time.Millisecond)
	_, ok := c.Get("a")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestFlushAndCount(t *testing.T) {
	c := New(time.Minute, 0, 10)

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 2, c.Count())

	c.Flush()
	assert.Equal(t, 0, c.Count())
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	c := New(time.Minute, 0, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Count())
	_, ok := c.Get("c")
	assert.True(t, ok)
}
