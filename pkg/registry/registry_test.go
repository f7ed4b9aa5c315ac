package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID   string
	Name string
}

func TestBaseRegistry_RegisterAndGet(t *testing.T) {
	r := NewBaseRegistry[testItem]()

	require.NoError(t, r.Register("a", testItem{ID: "a", Name: "Alpha"}))
	err := r.Register("a", testItem{ID: "a", Name: "Dup"})
	assert.Error(t, err)

	err = r.Register("", testItem{})
	assert.Error(t, err)

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Alpha", got.Name)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestBaseRegistry_ListCountClear(t *testing.T) {
	r := NewBaseRegistry[testItem]()
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("item-%d", i)
		require.NoError(t, r.Register(name, testItem{ID: name}))
	}

	assert.Equal(t, 3, r.Count())
	assert.Len(t, r.List(), 3)

	require.NoError(t, r.Remove("item-0"))
	assert.Equal(t, 2, r.Count())
	assert.Error(t, r.Remove("item-0"))

	r.Clear()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.List())
}

func TestBaseRegistry_ConcurrentAccess(t *testing.T) {
	r := NewBaseRegistry[testItem]()
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		for i := 0; i < 100; i++ {
			name := fmt.Sprintf("c-%d", i)
			_ = r.Register(name, testItem{ID: name})
		}
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		for i := 0; i < 100; i++ {
			r.Get(fmt.Sprintf("c-%d", i))
			r.Count()
			r.List()
		}
	}()

	<-done
	<-done
	assert.Equal(t, 100, r.Count())
}
