package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/pkg/models"
)

var roster = []models.Doctor{
	{ID: "D1", Name: "Dr. Mehta", FirstVisitCharge: decimal.NewFromInt(500), FollowUpCharge: decimal.NewFromInt(300)},
}

// countingCatalog records how often the source is consulted.
type countingCatalog struct {
	Catalog
	chargeCalls int
	doctorCalls int
}

func (c *countingCatalog) LookupCharge(ctx context.Context, catalog models.ServiceType, key string) (decimal.Decimal, bool, error) {
	c.chargeCalls++
	return c.Catalog.LookupCharge(ctx, catalog, key)
}

func (c *countingCatalog) Doctor(ctx context.Context, id string) (models.Doctor, bool, error) {
	c.doctorCalls++
	return c.Catalog.Doctor(ctx, id)
}

func setupCache(t *testing.T) (*miniredis.Miniredis, *countingCatalog, *Cached) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	source := &countingCatalog{Catalog: Default(roster)}
	return mr, source, NewCached(source, client, time.Hour)
}

func TestStatic_LookupCharge(t *testing.T) {
	cat := Default(roster)
	ctx := context.Background()

	amount, ok, err := cat.LookupCharge(ctx, models.ServiceXRay, "  Chest PA   View ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "400", amount.String())

	_, ok, err = cat.LookupCharge(ctx, models.ServicePathology, "unlisted test")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = cat.LookupCharge(ctx, models.ServiceConsultation, "anything")
	assert.ErrorIs(t, err, ErrUnknownCatalog)
}

func TestNewStatic_RejectsBadEntries(t *testing.T) {
	_, err := NewStatic([]models.CatalogEntry{{Catalog: models.ServiceCustom, ServiceKey: "x", Amount: decimal.NewFromInt(1)}}, nil)
	assert.ErrorIs(t, err, ErrUnknownCatalog)

	_, err = NewStatic([]models.CatalogEntry{{Catalog: models.ServiceXRay, ServiceKey: "x", Amount: decimal.NewFromInt(-1)}}, nil)
	assert.Error(t, err)
}

func TestStatic_Doctor(t *testing.T) {
	doc, ok, err := Default(roster).Doctor(context.Background(), "D1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Dr. Mehta", doc.Name)
	assert.Equal(t, "300", doc.ChargeFor(models.VisitFollowUp).String())
}

func TestStatic_ListDoctorsSortedByName(t *testing.T) {
	s := Default([]models.Doctor{
		{ID: "D2", Name: "Dr. Shah"},
		{ID: "D1", Name: "Dr. Mehta"},
		{ID: "D3", Name: "Dr. Iyer"},
	})

	doctors, err := s.ListDoctors(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(doctors))
	for i, doc := range doctors {
		ids[i] = doc.ID
	}
	assert.Equal(t, []string{"D3", "D1", "D2"}, ids)
}

func TestCached_ReadThrough(t *testing.T) {
	mr, source, cached := setupCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		amount, ok, err := cached.LookupCharge(ctx, models.ServiceCardiology, "ECG")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "250", amount.String())
	}
	assert.Equal(t, 1, source.chargeCalls)

	val, err := mr.Get("frontdesk:catalog:charge:cardiology:ecg")
	require.NoError(t, err)
	assert.Equal(t, "250", val)
	assert.True(t, mr.TTL("frontdesk:catalog:charge:cardiology:ecg") > 0)
}

func TestCached_MissesAreNotCached(t *testing.T) {
	mr, source, cached := setupCache(t)
	ctx := context.Background()

	_, ok, err := cached.LookupCharge(ctx, models.ServiceXRay, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, _ = cached.LookupCharge(ctx, models.ServiceXRay, "unknown")

	assert.Equal(t, 2, source.chargeCalls)
	assert.Empty(t, mr.Keys())
}

func TestCached_Doctor(t *testing.T) {
	_, source, cached := setupCache(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		doc, ok, err := cached.Doctor(ctx, "D1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, doc.FirstVisitCharge.Equal(decimal.NewFromInt(500)))
	}
	assert.Equal(t, 1, source.doctorCalls)
}

func TestCached_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, source, cached := setupCache(t)
	mr.Close()

	amount, ok, err := cached.LookupCharge(context.Background(), models.ServiceRadiology, "usg abdomen")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1200", amount.String())
	assert.Equal(t, 1, source.chargeCalls)
}

func TestCached_Invalidate(t *testing.T) {
	mr, _, cached := setupCache(t)
	ctx := context.Background()

	_, _, err := cached.LookupCharge(ctx, models.ServiceCardiology, "ecg")
	require.NoError(t, err)
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, cached.Invalidate(ctx))
	assert.Equal(t, []string{"unrelated"}, mr.Keys())
}
