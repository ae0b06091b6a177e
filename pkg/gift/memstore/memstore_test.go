package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreConcurrentResolve(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ResolveOrCreateUser(ctx, "Alice")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestStoreListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, _ := s.ResolveOrCreateUser(ctx, "a")
	b, _ := s.ResolveOrCreateUser(ctx, "b")
	g, err := s.RecordGift(ctx, a.ID, b.ID, "tea")
	require.NoError(t, err)
	_, err = s.AddComment(ctx, g.ID, "a", "hi")
	require.NoError(t, err)

	gifts, _ := s.ListGifts(ctx)
	gifts[0].Comments[0].Text = "changed"
	gifts[0].Item = "changed"

	again, _ := s.ListGifts(ctx)
	assert.Equal(t, "tea", again[0].Item)
	assert.Equal(t, "hi", again[0].Comments[0].Text)
}
