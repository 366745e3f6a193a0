package legit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/dealradar/internal/store"
	"github.com/elonfeng/dealradar/pkg/deal"
)

type fakeHistory struct {
	obs    []store.PriceObservation
	err    error
	called bool
}

func (f *fakeHistory) History(ctx context.Context, productID, retailer string, since time.Time) ([]store.PriceObservation, error) {
	f.called = true
	return f.obs, f.err
}

func observations(prices ...float64) []store.PriceObservation {
	obs := make([]store.PriceObservation, len(prices))
	now := time.Now().UTC()
	for i, p := range prices {
		obs[i] = store.PriceObservation{
			ProductID: "B000TEST01",
			Retailer:  "Amazon AU",
			Price:     p,
			Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	return obs
}

func TestProductID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.com.au/dp/B000TEST01?ref=sr_1", "B000TEST01"},
		{"https://shop.example/product/ABCDEFGH12", "ABCDEFGH12"},
		{`<div data-asin="B07XYZ1234">`, "B07XYZ1234"},
		{"https://shop.example/ABCDEFGH12/details", "ABCDEFGH12"},
		{"https://shop.example/deals/latest", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ProductID(tc.url), "url %q", tc.url)
	}
}

func TestInferNoProductID(t *testing.T) {
	h := &fakeHistory{err: errors.New("must not be called")}
	inf := NewInferencer(h)

	v, err := inf.Infer(context.Background(), deal.Deal{URL: "https://shop.example/deals"})
	require.NoError(t, err)

	assert.True(t, v.Legitimate)
	assert.Equal(t, ConfidenceUnknown, v.Confidence)
	assert.Equal(t, "No price history available", v.Reason)
	assert.False(t, h.called)
}

func TestInferInsufficientHistory(t *testing.T) {
	inf := NewInferencer(&fakeHistory{obs: observations(95)})

	v, err := inf.Infer(context.Background(), amazonDeal(95, 200))
	require.NoError(t, err)

	assert.True(t, v.Legitimate)
	assert.Equal(t, ConfidenceUnknown, v.Confidence)
	assert.Equal(t, "Insufficient price history", v.Reason)
}

func TestInferFirstRepeatSighting(t *testing.T) {
	inf := NewInferencer(&fakeHistory{obs: observations(95, 100)})

	v, err := inf.Infer(context.Background(), amazonDeal(95, 100))
	require.NoError(t, err)

	assert.True(t, v.Legitimate)
	assert.Equal(t, ConfidenceLow, v.Confidence)
}

func TestInferGenuineDrop(t *testing.T) {
	inf := NewInferencer(&fakeHistory{obs: observations(50, 100, 102, 98)})

	v, err := inf.Infer(context.Background(), amazonDeal(50, 100))
	require.NoError(t, err)

	assert.True(t, v.Legitimate)
	assert.Equal(t, ConfidenceHigh, v.Confidence)
	assert.Equal(t, "Price dropped from $100.00 avg to $50.00", v.Reason)
	assert.Equal(t, 100.0, v.AvgPrice)
	assert.Equal(t, 98.0, v.MinPrice)
	assert.Equal(t, 102.0, v.MaxPrice)
}

func TestInferLowestPriceDespiteInflatedOriginal(t *testing.T) {
	inf := NewInferencer(&fakeHistory{obs: observations(95, 100, 110, 120)})

	v, err := inf.Infer(context.Background(), amazonDeal(95, 200))
	require.NoError(t, err)

	assert.True(t, v.Legitimate)
	assert.Equal(t, ConfidenceMedium, v.Confidence)
	assert.Equal(t, "Lowest price seen in 30 days", v.Reason)
	assert.Equal(t, 100.0, v.MinPrice)
}

func TestInferFakeDiscount(t *testing.T) {
	inf := NewInferencer(&fakeHistory{obs: observations(95, 80, 100, 110)})

	v, err := inf.Infer(context.Background(), amazonDeal(95, 200))
	require.NoError(t, err)

	assert.False(t, v.Legitimate)
	assert.Equal(t, ConfidenceHigh, v.Confidence)
	assert.Equal(t, "Fake discount - never sold at $200.00", v.Reason)
	assert.Equal(t, 1.7, v.RealDiscount)
}

func TestInferNormalRange(t *testing.T) {
	inf := NewInferencer(&fakeHistory{obs: observations(95, 100, 96, 98)})

	v, err := inf.Infer(context.Background(), amazonDeal(95, 100))
	require.NoError(t, err)

	assert.True(t, v.Legitimate)
	assert.Equal(t, ConfidenceMedium, v.Confidence)
	assert.Equal(t, "Price within normal range", v.Reason)
}

func TestInferHistoryError(t *testing.T) {
	inf := NewInferencer(&fakeHistory{err: errors.New("db locked")})

	_, err := inf.Infer(context.Background(), amazonDeal(95, 100))
	assert.Error(t, err)
}

func amazonDeal(price, original float64) deal.Deal {
	return deal.Deal{
		URL:           "https://www.amazon.com.au/dp/B000TEST01",
		Retailer:      "Amazon AU",
		Price:         price,
		OriginalPrice: original,
	}
}
