package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetMissOnEmptyCache(t *testing.T) {
	c := New(2)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_PutThenGetRoundTrips(t *testing.T) {
	c := New(2)
	require.True(t, c.Put("k", Value{Data: []byte("hello"), TotalBytes: 5}))
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "hello", string(v.Data))
	assert.Equal(t, 5, v.TotalBytes)
}

func TestCache_EmptyKeyNeverStored(t *testing.T) {
	c := New(2)
	assert.False(t, c.Put("", Value{Data: []byte("x")}))
	_, ok := c.Get("")
	assert.False(t, ok)
}

func TestCache_DeepCopyOnPut_MutatingCallerSliceDoesNotAffectCache(t *testing.T) {
	c := New(2)
	data := []byte("original")
	c.Put("k", Value{Data: data})
	data[0] = 'X'
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "original", string(v.Data))
}

func TestCache_DeepCopyOnGet_MutatingReturnedSliceDoesNotAffectCache(t *testing.T) {
	c := New(2)
	c.Put("k", Value{Data: []byte("original")})
	v, _ := c.Get("k")
	v.Data[0] = 'X'
	v2, _ := c.Get("k")
	assert.Equal(t, "original", string(v2.Data))
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("a", Value{Data: []byte("1")})
	c.Put("b", Value{Data: []byte("2")})
	c.Put("c", Value{Data: []byte("3")}) // evicts "a" (LRU)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c := New(2)
	c.Put("a", Value{Data: []byte("1")})
	c.Put("b", Value{Data: []byte("2")})
	c.Get("a")                          // "a" is now MRU, "b" is LRU
	c.Put("c", Value{Data: []byte("3")}) // evicts "b"

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCache_UpdatingExistingKeyDoesNotEvict(t *testing.T) {
	c := New(2)
	c.Put("a", Value{Data: []byte("1")})
	c.Put("b", Value{Data: []byte("2")})
	c.Put("a", Value{Data: []byte("1-updated")})

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1-updated", string(v.Data))
	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_DefaultMaxEntriesWhenNonPositive(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultMaxEntries, c.maxEntries)
}
