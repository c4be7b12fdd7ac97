package visit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsIdentity(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(nil, WithClock(func() time.Time { return fixed }))

	v := s.Add(models.Visit{SessionID: "V-1", SalesStatus: models.StatusLead})
	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, fixed, v.CreatedAt)

	got, ok := s.Get(v.ID)
	require.True(t, ok)
	assert.Equal(t, v, got)

	_, ok = s.Get(uuid.New())
	assert.False(t, ok)
}

func TestAddKeepsProvidedIdentity(t *testing.T) {
	s := NewStore(nil)
	id := uuid.New()
	created := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	v := s.Add(models.Visit{ID: id, CreatedAt: created})
	assert.Equal(t, id, v.ID)
	assert.Equal(t, created, v.CreatedAt)
}

func TestForSession(t *testing.T) {
	s := NewStore(nil)
	a := s.Add(models.Visit{SessionID: "V-1", Street: "1 Main"})
	s.Add(models.Visit{SessionID: "C-2", Street: "2 Main"})
	c := s.Add(models.Visit{SessionID: "V-1", Street: "3 Main"})

	visits := s.ForSession("V-1")
	require.Len(t, visits, 2)
	assert.Equal(t, a.ID, visits[0].ID)
	assert.Equal(t, c.ID, visits[1].ID)

	assert.Empty(t, s.ForSession("nope"))
	assert.Len(t, s.All(), 3)
}

func TestStorePersists(t *testing.T) {
	kv := store.NewMemory()
	s := NewStore(kv)
	v := s.Add(models.Visit{
		SessionID:      "V-1",
		SalesStatus:    models.StatusOpportunity,
		PriceBreakdown: models.PriceBreakdown{TotalQuoted: 640},
	})

	reloaded := NewStore(kv)
	got, ok := reloaded.Get(v.ID)
	require.True(t, ok)
	assert.Equal(t, 640.0, got.TotalQuoted)
	assert.Equal(t, models.StatusOpportunity, got.SalesStatus)
}

func TestStoreIgnoresCorruptBlob(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set([]byte(store.KeyVisits), []byte("[{")))

	s := NewStore(kv)
	assert.Empty(t, s.All())

	s.Add(models.Visit{SessionID: "V-1"})
	assert.Len(t, NewStore(kv).All(), 1)
}
