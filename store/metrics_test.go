package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madetoorder/storefront/models"
	"github.com/madetoorder/storefront/store"
	"github.com/madetoorder/storefront/store/storetest"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	metrics := store.NewMetrics(reg)

	db := storetest.New()
	seedCategories(db, "Mugs", "Posters")
	s := store.NewCategoryStore(db.Categories(), store.Options{Metrics: metrics})

	require.NoError(t, s.Load(context.Background()))
	db.Fail(storetest.CategoriesCreate, errors.New("boom"))
	_, err := s.Create(context.Background(), models.CategoryInput{Name: "Pins"})
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "storefront_store_entities":
				values["entities"] = m.GetGauge().GetValue()
			case "storefront_store_loading":
				values["loading"] = m.GetGauge().GetValue()
			case "storefront_store_operations_total":
				labels := map[string]string{}
				for _, l := range m.GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				values[labels["op"]+"/"+labels["result"]] = m.GetCounter().GetValue()
			}
		}
	}

	assert.Len(t, values, 4)
	assert.Equal(t, 2.0, values["entities"])
	assert.Equal(t, 0.0, values["loading"])
	assert.Equal(t, 1.0, values["load/ok"])
	assert.Equal(t, 1.0, values["create/error"])
}

func TestNilMetricsRecordNothing(t *testing.T) {
	db := storetest.New()
	s := store.NewCategoryStore(db.Categories(), store.Options{})

	assert.NotPanics(t, func() {
		_ = s.Load(context.Background())
	})
}

func gauge(t *testing.T, reg prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestLoadingGaugeFollowsInFlightOperations(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	db := storetest.New()
	seedCategories(db, "Mugs")
	s := store.NewCategoryStore(db.Categories(), store.Options{Metrics: store.NewMetrics(reg)})

	g := newGate()
	db.After(storetest.CategoriesFetchAll, g.hold)
	slow := make(chan error)
	go func() { slow <- s.Load(context.Background()) }()
	<-g.reached

	_, err := s.Create(context.Background(), models.CategoryInput{Name: "Pins"})
	require.NoError(t, err)
	assert.True(t, s.Loading())
	assert.Equal(t, 1.0, gauge(t, reg, "storefront_store_loading"))

	close(g.release)
	require.NoError(t, <-slow)
	assert.Equal(t, 0.0, gauge(t, reg, "storefront_store_loading"))
	assert.Equal(t, 2.0, gauge(t, reg, "storefront_store_entities"))
}
