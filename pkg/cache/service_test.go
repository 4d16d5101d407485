package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_NilClientDegradesToPassThrough(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, svc.Get(ctx, "listings", &dest), ErrCacheMiss)
	assert.NoError(t, svc.Set(ctx, "listings", []string{"a"}, time.Minute))
	assert.NoError(t, svc.Delete(ctx, "listings"))
}

func TestService_GetOrSet_NilClientFetches(t *testing.T) {
	svc := NewService(nil)

	fetched := 0
	var dest []string
	err := svc.GetOrSet(context.Background(), "listings", time.Minute, func() (interface{}, error) {
		fetched++
		return []string{"show-1", "show-2"}, nil
	}, &dest)

	require.NoError(t, err)
	assert.Equal(t, 1, fetched)
	assert.Equal(t, []string{"show-1", "show-2"}, dest)

	// Without a backing store every read goes to the fetcher.
	err = svc.GetOrSet(context.Background(), "listings", time.Minute, func() (interface{}, error) {
		fetched++
		return []string{"show-1", "show-2"}, nil
	}, &dest)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched)
}

func TestService_GetOrSet_FetcherErrorPropagates(t *testing.T) {
	svc := NewService(nil)

	var dest []string
	fetchErr := errors.New("database down")
	err := svc.GetOrSet(context.Background(), "listings", time.Minute, func() (interface{}, error) {
		return nil, fetchErr
	}, &dest)

	assert.ErrorIs(t, err, fetchErr)
	assert.Empty(t, dest)
}
