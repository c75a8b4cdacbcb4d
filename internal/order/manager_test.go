package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func lookupFrom(products map[string]stockLine, calls *[]string) func(string) (stockLine, error) {
	return func(id string) (stockLine, error) {
		if calls != nil {
			*calls = append(*calls, id)
		}
		sl, ok := products[id]
		if !ok {
			return stockLine{}, ErrProductNotFound
		}
		return sl, nil
	}
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func Test_buildPlan_TotalsAndSnapshots(t *testing.T) {
	products := map[string]stockLine{
		"widget": {ProductID: "widget", Price: price("9.99"), Stock: 5},
		"gadget": {ProductID: "gadget", Price: price("15.00"), Stock: 2},
	}

	p, err := buildPlan([]Line{
		{ProductID: "widget", Quantity: 3},
		{ProductID: "gadget", Quantity: 1},
	}, lookupFrom(products, nil))
	assert.NoError(t, err)

	assert.True(t, p.Total.Equal(price("44.97")), "total=%s", p.Total)
	assert.Len(t, p.Items, 2)
	// items keep request order and snapshot the price read at planning time
	assert.Equal(t, "widget", p.Items[0].ProductID)
	assert.True(t, p.Items[0].PricePerItem.Equal(price("9.99")))
	assert.Equal(t, 3, p.Items[0].Quantity)
	assert.Equal(t, "gadget", p.Items[1].ProductID)
	assert.Equal(t, map[string]int{"widget": 3, "gadget": 1}, p.Decrements)
}

func Test_buildPlan_ProductNotFound(t *testing.T) {
	products := map[string]stockLine{
		"widget": {ProductID: "widget", Price: price("9.99"), Stock: 5},
	}
	var calls []string

	p, err := buildPlan([]Line{
		{ProductID: "widget", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
		{ProductID: "widget", Quantity: 1},
	}, lookupFrom(products, &calls))

	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrProductNotFound)
	// first failure aborts the plan; the trailing line is never reached
	assert.Equal(t, []string{"widget", "ghost"}, calls)
}

func Test_buildPlan_InsufficientStock(t *testing.T) {
	products := map[string]stockLine{
		"widget": {ProductID: "widget", Price: price("9.99"), Stock: 2},
	}

	p, err := buildPlan([]Line{{ProductID: "widget", Quantity: 3}}, lookupFrom(products, nil))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "widget")
}

func Test_buildPlan_DuplicateLinesShareOneStockReading(t *testing.T) {
	products := map[string]stockLine{
		"widget": {ProductID: "widget", Price: price("10.00"), Stock: 5},
	}
	var calls []string

	// 3 + 3 = 6 > 5: each line is valid alone, together they oversell
	p, err := buildPlan([]Line{
		{ProductID: "widget", Quantity: 3},
		{ProductID: "widget", Quantity: 3},
	}, lookupFrom(products, &calls))

	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, []string{"widget"}, calls, "product must be read once")
}

func Test_buildPlan_DuplicateLinesWithinStock(t *testing.T) {
	products := map[string]stockLine{
		"widget": {ProductID: "widget", Price: price("10.00"), Stock: 5},
	}

	p, err := buildPlan([]Line{
		{ProductID: "widget", Quantity: 2},
		{ProductID: "widget", Quantity: 3},
	}, lookupFrom(products, nil))

	assert.NoError(t, err)
	// duplicates stay independent items but decrement once, aggregated
	assert.Len(t, p.Items, 2)
	assert.Equal(t, []string{"widget"}, p.ProductIDs)
	assert.Equal(t, 5, p.Decrements["widget"])
	assert.True(t, p.Total.Equal(price("50.00")))
}

func Test_buildPlan_InvalidLines(t *testing.T) {
	products := map[string]stockLine{
		"widget": {ProductID: "widget", Price: price("10.00"), Stock: 5},
	}

	_, err := buildPlan(nil, lookupFrom(products, nil))
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = buildPlan([]Line{{ProductID: "widget", Quantity: 0}}, lookupFrom(products, nil))
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = buildPlan([]Line{{ProductID: "widget", Quantity: -1}}, lookupFrom(products, nil))
	assert.ErrorIs(t, err, ErrInvalidLine)
}
