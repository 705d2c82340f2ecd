package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esprinter/freight-audit/internal/domain"
)

func newOrderRepo(t *testing.T) *OrderRepo {
	t.Helper()
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOrderRepo(db)
}

func order(number, carrier, channel string, createdAt time.Time) domain.Order {
	cost := 47.9
	weight := 10.5
	return domain.Order{
		OrderNumber:        number,
		RecordedCost:       &cost,
		DeclaredWeightSum:  &weight,
		VolumeCount:        2,
		Carrier:            carrier,
		SalesChannel:       channel,
		ChannelOrderNumber: "WEB-1",
		InvoiceNumber:      "NF-1",
		OriginZip:          "01310-100",
		DestinationZip:     "30140-071",
		DestinationCity:    "Belo Horizonte",
		CreatedAt:          createdAt,
	}
}

func TestOrderRepo_UpsertReplacesExisting(t *testing.T) {
	repo := newOrderRepo(t)
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	_, err := repo.BulkUpsert([]domain.Order{order("SO-1", "Rapidao Log", "site", created)})
	require.NoError(t, err)

	updated := order("SO-1", "Veloz Cargas", "site", created)
	_, err = repo.BulkUpsert([]domain.Order{updated})
	require.NoError(t, err)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetByOrderNumber("SO-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Veloz Cargas", got.Carrier)
}

func TestOrderRepo_NullableFieldsRoundTrip(t *testing.T) {
	repo := newOrderRepo(t)

	o := order("SO-1", "Rapidao Log", "site", time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	o.RecordedCost = nil
	o.DeclaredWeightSum = nil

	_, err := repo.BulkUpsert([]domain.Order{o})
	require.NoError(t, err)

	got, err := repo.GetByOrderNumber("SO-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.RecordedCost)
	assert.Nil(t, got.DeclaredWeightSum)
	assert.Nil(t, got.AuditedAt)
}

func TestOrderRepo_ListFiltersAndPaginates(t *testing.T) {
	repo := newOrderRepo(t)

	day := func(d int) time.Time { return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC) }
	_, err := repo.BulkUpsert([]domain.Order{
		order("SO-1", "Rapidao Log", "site", day(4)),
		order("SO-2", "Rapidao Log", "marketplace", day(5)),
		order("SO-3", "Veloz Cargas", "site", day(6)),
	})
	require.NoError(t, err)

	orders, total, err := repo.List(OrderFilter{Carrier: "Rapidao Log"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, orders, 2)

	orders, total, err = repo.List(OrderFilter{SalesChannel: "site"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	from := day(5)
	to := day(6)
	orders, total, err = repo.List(OrderFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	orders, total, err = repo.List(OrderFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "SO-3", orders[0].OrderNumber)
}

func TestOrderRepo_MarkAudited(t *testing.T) {
	repo := newOrderRepo(t)
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	_, err := repo.BulkUpsert([]domain.Order{
		order("SO-1", "Rapidao Log", "site", created),
		order("SO-2", "Rapidao Log", "site", created),
	})
	require.NoError(t, err)

	stamp := time.Date(2024, 3, 18, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkAudited([]string{"SO-1"}, stamp))

	got, err := repo.GetByOrderNumber("SO-1")
	require.NoError(t, err)
	require.NotNil(t, got.AuditedAt)
	assert.True(t, got.AuditedAt.Equal(stamp))

	got, err = repo.GetByOrderNumber("SO-2")
	require.NoError(t, err)
	assert.Nil(t, got.AuditedAt)
}

func TestPreInvoiceRepo_MapLatestIngestedWins(t *testing.T) {
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewPreInvoiceRepo(db)

	old := 40.0
	fresh := 44.5
	_, err = repo.BulkUpsert([]domain.PreInvoice{
		{
			ID: "PI-1", ReportID: "RPT-1", OrderNumber: "SO-1",
			CTEValue:   &old,
			IngestedAt: time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "PI-2", ReportID: "RPT-2", OrderNumber: "SO-1",
			CTEValue:   &fresh,
			IngestedAt: time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	m, err := repo.MapByOrderNumber()
	require.NoError(t, err)
	require.Contains(t, m, "SO-1")
	require.NotNil(t, m["SO-1"].CTEValue)
	assert.Equal(t, 44.5, *m["SO-1"].CTEValue)
	assert.Equal(t, "PI-2", m["SO-1"].ID)
}

func TestMarginConfigRepo_GetBeforeUpsertIsNil(t *testing.T) {
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewMarginConfigRepo(db)

	cfg, err := repo.Get()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	want := domain.MarginConfig{
		Type:            domain.MarginDynamicChoice,
		AbsoluteValue:   2.0,
		PercentageValue: 1.5,
		UpdatedAt:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(&want))

	cfg, err = repo.Get()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, want.Type, cfg.Type)
	assert.Equal(t, 2.0, cfg.AbsoluteValue)
	assert.Equal(t, 1.5, cfg.PercentageValue)

	// A second upsert replaces the single row.
	want.Type = domain.MarginAbsolute
	want.Value = 3.0
	require.NoError(t, repo.Upsert(&want))
	cfg, err = repo.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.MarginAbsolute, cfg.Type)
	assert.Equal(t, 3.0, cfg.Value)
}
