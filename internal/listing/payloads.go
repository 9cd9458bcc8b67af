package listing

import (
	"math"
	"strconv"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"
)

type ShipToLocationAvailability struct {
	Quantity int `json:"quantity"`
}

type Availability struct {
	ShipToLocationAvailability ShipToLocationAvailability `json:"shipToLocationAvailability"`
}

type Product struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ImageURLs   []string       `json:"imageUrls"`
	Aspects     map[string]any `json:"aspects"`
}

// InventoryItem is the create-or-replace inventory payload. Quantity is
// always 1: each sourcing item backs exactly one unit.
type InventoryItem struct {
	Availability         Availability `json:"availability"`
	Condition            string       `json:"condition"`
	ConditionDescription string       `json:"conditionDescription,omitempty"`
	Product              Product      `json:"product"`
}

func BuildInventoryItem(item domain.Item) InventoryItem {
	return InventoryItem{
		Availability: Availability{
			ShipToLocationAvailability: ShipToLocationAvailability{Quantity: 1},
		},
		Condition:            item.EbayCondition,
		ConditionDescription: item.EbayConditionDescription,
		Product: Product{
			Title:       item.EbayTitle,
			Description: item.EbayDescription,
			ImageURLs:   item.EbayImageURLs,
			Aspects:     item.EbayAspectParam,
		},
	}
}

type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type PricingSummary struct {
	Price Amount `json:"price"`
}

type ListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId"`
	PaymentPolicyID     string `json:"paymentPolicyId"`
	ReturnPolicyID      string `json:"returnPolicyId"`
}

type OfferPayload struct {
	SKU                 string          `json:"sku"`
	MarketplaceID       string          `json:"marketplaceId"`
	Format              string          `json:"format"`
	AvailableQuantity   int             `json:"availableQuantity"`
	CategoryID          string          `json:"categoryId"`
	ListingPolicies     ListingPolicies `json:"listingPolicies"`
	PricingSummary      PricingSummary  `json:"pricingSummary"`
	MerchantLocationKey string          `json:"merchantLocationKey"`
	StoreCategoryNames  []string        `json:"storeCategoryNames"`
}

func BuildOffer(item domain.Item, user domain.User, app domain.AppParams, cfg config.ListingConfig) OfferPayload {
	price := DestinationPrice(item.OrgPrice, item.ShippingYen, app.UsdJpy, user.ProfitRatio, cfg.FixedFeeRatio)

	return OfferPayload{
		SKU:               item.EbaySKU,
		MarketplaceID:     cfg.MarketplaceID,
		Format:            "FIXED_PRICE",
		AvailableQuantity: 1,
		CategoryID:        item.EbayCategory,
		ListingPolicies: ListingPolicies{
			FulfillmentPolicyID: item.EbayFulfillmentPolicy,
			PaymentPolicyID:     user.PaymentPolicy,
			ReturnPolicyID:      user.ReturnPolicy,
		},
		PricingSummary: PricingSummary{
			Price: Amount{Currency: cfg.Currency, Value: price},
		},
		MerchantLocationKey: user.MerchantLocationKey,
		StoreCategoryNames:  []string{item.EbayStoreCategory},
	}
}

// DestinationPrice converts the sourcing price plus domestic shipping into
// the destination currency, covering the profit target and the fixed fee
// ratio, rounded half away from zero to two decimal places.
func DestinationPrice(orgPrice, shipping, exchangeRate, profitRatio, feeRatio float64) string {
	value := (orgPrice + shipping) / (exchangeRate * (1 - profitRatio - feeRatio))
	return strconv.FormatFloat(math.Round(value*100)/100, 'f', 2, 64)
}
