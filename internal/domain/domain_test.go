package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotInStock(t *testing.T) {
	tests := map[string]struct {
		snap     *StockSnapshot
		expected bool
	}{
		"nil snapshot":  {nil, false},
		"out of stock":  {&StockSnapshot{Status: StockStatusOutOfStock}, false},
		"missing core":  {&StockSnapshot{Status: StockStatusInStock, Extra: &ExtraParam{}}, false},
		"missing extra": {&StockSnapshot{Status: StockStatusInStock, Core: &StockCore{}}, false},
		"fully populated": {
			&StockSnapshot{Status: StockStatusInStock, Core: &StockCore{}, Extra: &ExtraParam{}},
			true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.snap.InStock())
		})
	}
}

func TestUserTokenParamName(t *testing.T) {
	app := AppParams{EbayUserTokenParamPrefix: "ebay-user-token-"}
	assert.Equal(t, "ebay-user-token-alice", app.UserTokenParamName("alice"))
}

func TestExtractionErrorListsFieldsInOrder(t *testing.T) {
	err := &ExtractionError{
		URL:    "https://jp.mercari.com/item/m123",
		Reason: "required fields missing or invalid",
		Fields: map[string]string{"title": "", "price": "1200", "sellerId": "/user/1"},
	}

	assert.Equal(t,
		`extraction failed for https://jp.mercari.com/item/m123: required fields missing or invalid [price="1200" sellerId="/user/1" title=""]`,
		err.Error())
}
