package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := &Entry{
		Destination: "https://ws.example.com/orders",
		Outcome:     "extracted",
		Request:     []byte("<req/>"),
		Response:    []byte("<resp/>"),
	}
	require.NoError(t, store.Record(ctx, entry))
	require.NotEmpty(t, entry.ID)
	_, err := uuid.Parse(entry.ID)
	assert.NoError(t, err)
	assert.False(t, entry.StartedAt.IsZero())

	entry.Request[0] = 'X'

	got, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://ws.example.com/orders", got.Destination)
	assert.Equal(t, []byte("<req/>"), got.Request)
	assert.Equal(t, []byte("<resp/>"), got.Response)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{ID: "1", Destination: "https://a.example.com", Outcome: "extracted", StartedAt: base},
		{ID: "2", Destination: "https://b.example.com", Outcome: "fault-raised", StartedAt: base.Add(time.Minute)},
		{ID: "3", Destination: "https://a.example.com", Outcome: "no-response", StartedAt: base.Add(2 * time.Minute)},
		{ID: "4", Destination: "https://a.example.com", Outcome: "extracted", StartedAt: base.Add(3 * time.Minute), MessageID: "urn:uuid:x", Request: []byte("<r/>")},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(ctx, e))
	}

	since := base.Add(90 * time.Second)

	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{name: "all newest first", filter: nil, want: []string{"4", "3", "2", "1"}},
		{name: "by destination", filter: &Filter{Destination: "https://a.example.com"}, want: []string{"4", "3", "1"}},
		{name: "by outcome", filter: &Filter{Outcome: "extracted"}, want: []string{"4", "1"}},
		{name: "by message id", filter: &Filter{MessageID: "urn:uuid:x"}, want: []string{"4"}},
		{name: "since", filter: &Filter{Since: &since}, want: []string{"4", "3"}},
		{name: "limit", filter: &Filter{Limit: 2}, want: []string{"4", "3"}},
		{name: "offset", filter: &Filter{Offset: 3}, want: []string{"1"}},
		{name: "offset past end", filter: &Filter{Offset: 10}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			require.NoError(t, err)

			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
				assert.Nil(t, e.Request)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	n, err := store.Count(ctx, &Filter{Destination: "https://a.example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestMemoryStore_RecordReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Record(ctx, &Entry{ID: "1", Outcome: "unknown"}))
	require.NoError(t, store.Record(ctx, &Entry{ID: "1", Outcome: "extracted"}))

	list, err := store.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "extracted", list[0].Outcome)
}
