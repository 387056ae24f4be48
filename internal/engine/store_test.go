package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-slate/internal/domain"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	assert.Equal(t, 0, store.Len())

	_, ok := store.Get("missing")
	assert.False(t, ok)

	inst := &domain.Instance{ID: "i1", FamilyID: "F1", Params: map[string]float64{"n": 3}}
	store.Put(inst)

	got, ok := store.Get("i1")
	require.True(t, ok)
	assert.Same(t, inst, got)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("i%d", i)
			store.Put(&domain.Instance{ID: id, FamilyID: "F1"})
			_, _ = store.Get(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
