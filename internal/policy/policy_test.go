package policy

import (
	"testing"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.PolicyConfig {
	return config.PolicyConfig{
		PriceCeiling:          100000,
		MinRatingScore:        4.8,
		MinRatingCount:        10,
		BannedRegions:         []string{"沖縄県", "海外"},
		SlowShippingBuckets:   []string{"4~7日で発送"},
		SlowShippingMethods:   []string{"普通郵便", "未定"},
		BannedConditionLabels: []string{"新品、未使用"},
		BannedKeywords:        []string{"即購入禁止", "海外から発送"},
	}
}

func eligibleSnapshot() *domain.StockSnapshot {
	return &domain.StockSnapshot{
		Status: domain.StockStatusInStock,
		Core: &domain.StockCore{
			URL:         "https://jp.mercari.com/item/m123",
			ImageURLs:   []string{"https://img/1.jpg", "https://img/2.jpg"},
			Price:       3000,
			Title:       "Vintage camera",
			Description: "Working condition",
		},
		Extra: &domain.ExtraParam{
			IsPayOnDelivery: false,
			RateScore:       4.9,
			RateCount:       120,
			ShippedFrom:     "東京都",
			ShippedWithin:   "1~2日で発送",
			ShippingMethod:  "らくらくメルカリ便",
			SellerID:        "/user/profile/111",
			ItemCondition:   "目立った傷や汚れなし",
		},
	}
}

func eligibleItem() domain.Item {
	return domain.Item{
		ID:           "item-1",
		OrgImageURLs: []string{"https://img/1.jpg", "https://img/2.jpg"},
	}
}

func TestAllowEligibleItem(t *testing.T) {
	e := NewEvaluator(testConfig())
	assert.True(t, e.Allow(eligibleItem(), domain.User{}, eligibleSnapshot()))
}

func TestDenyOutOfStock(t *testing.T) {
	e := NewEvaluator(testConfig())

	tests := map[string]*domain.StockSnapshot{
		"out of stock": {Status: domain.StockStatusOutOfStock},
		"nil snapshot": nil,
		"in stock without core": {Status: domain.StockStatusInStock},
	}

	for name, snap := range tests {
		t.Run(name, func(t *testing.T) {
			assert.False(t, e.Allow(eligibleItem(), domain.User{}, snap))
		})
	}
}

func TestDenyRules(t *testing.T) {
	tests := map[string]struct {
		mutate func(item *domain.Item, user *domain.User, snap *domain.StockSnapshot)
		reason string
	}{
		"image drift": {
			mutate: func(item *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Core.ImageURLs = []string{"https://img/other.jpg"}
			},
			reason: "image sequence changed",
		},
		"image order changed": {
			mutate: func(item *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Core.ImageURLs = []string{"https://img/2.jpg", "https://img/1.jpg"}
			},
			reason: "image sequence changed",
		},
		"sticky image flag": {
			mutate: func(item *domain.Item, _ *domain.User, _ *domain.StockSnapshot) {
				item.IsImageChanged = true
			},
			reason: "image sequence changed",
		},
		"price at ceiling": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Core.Price = 100000
			},
			reason: "price at or above ceiling",
		},
		"pay on delivery": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.IsPayOnDelivery = true
			},
			reason: "pay on delivery",
		},
		"low rating score": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.RateScore = 4.7
			},
			reason: "seller rating score below minimum",
		},
		"low rating count": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.RateCount = 9
			},
			reason: "seller rating count below minimum",
		},
		"banned region": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.ShippedFrom = "沖縄県"
			},
			reason: "ships from banned region",
		},
		"slow bucket with slow method": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.ShippedWithin = "4~7日で発送"
				snap.Extra.ShippingMethod = "普通郵便(定形、定形外)"
			},
			reason: "slow shipping",
		},
		"slow bucket with undecided method": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.ShippedWithin = "4~7日で発送"
				snap.Extra.ShippingMethod = "未定"
			},
			reason: "slow shipping",
		},
		"slow bucket with empty method": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.ShippedWithin = "4~7日で発送"
				snap.Extra.ShippingMethod = ""
			},
			reason: "slow shipping",
		},
		"banned condition": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Extra.ItemCondition = "新品、未使用"
			},
			reason: "banned condition label",
		},
		"banned keyword": {
			mutate: func(_ *domain.Item, _ *domain.User, snap *domain.StockSnapshot) {
				snap.Core.Description = "美品です。海外から発送します。"
			},
			reason: "banned keyword in description",
		},
		"blacklisted seller": {
			mutate: func(_ *domain.Item, user *domain.User, _ *domain.StockSnapshot) {
				user.SellerBlacklist = []string{"/user/profile/111"}
			},
			reason: "blacklisted seller",
		},
	}

	e := NewEvaluator(testConfig())
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			item := eligibleItem()
			user := domain.User{}
			snap := eligibleSnapshot()
			tc.mutate(&item, &user, snap)

			reasons := e.DenyReasons(item, user, snap)
			require.Len(t, reasons, 1)
			assert.Equal(t, tc.reason, reasons[0])
		})
	}
}

func TestSlowBucketWithFastMethodAllowed(t *testing.T) {
	e := NewEvaluator(testConfig())
	snap := eligibleSnapshot()
	snap.Extra.ShippedWithin = "4~7日で発送"
	snap.Extra.ShippingMethod = "らくらくメルカリ便"
	assert.True(t, e.Allow(eligibleItem(), domain.User{}, snap))
}

func TestEvaluatorIsPure(t *testing.T) {
	e := NewEvaluator(testConfig())
	item := eligibleItem()
	user := domain.User{SellerBlacklist: []string{"/user/profile/999"}}
	snap := eligibleSnapshot()

	itemBefore := item
	first := e.Allow(item, user, snap)
	second := e.Allow(item, user, snap)

	assert.Equal(t, first, second)
	assert.Equal(t, itemBefore, item)
	assert.Equal(t, eligibleSnapshot(), snap)
}
