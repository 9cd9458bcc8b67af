package domain

// User is the destination-side account on whose behalf items are listed.
// Read-only within a single task.
type User struct {
	Username            string   `json:"username"`
	SellerBlacklist     []string `json:"sellerBlacklist"`
	ReturnPolicy        string   `json:"returnPolicy"`
	PaymentPolicy       string   `json:"paymentPolicy"`
	ProfitRatio         float64  `json:"profitRatio"`
	MerchantLocationKey string   `json:"merchantLocationKey"`
}

// ExtraParam holds the marketplace-specific attributes observed on the
// sourcing page. All labels are free text as rendered by the site.
type ExtraParam struct {
	IsPayOnDelivery bool    `json:"isPayOnDelivery"`
	RateScore       float64 `json:"rateScore"`
	RateCount       float64 `json:"rateCount"`
	ShippedFrom     string  `json:"shippedFrom"`
	ShippedWithin   string  `json:"shippedWithin"`
	ShippingMethod  string  `json:"shippingMethod"`
	SellerID        string  `json:"sellerId"`
	ItemCondition   string  `json:"itemCondition"`
	LastUpdated     string  `json:"lastUpdated,omitempty"`
}

// Item is the unit of work and the persisted record. ID is immutable and
// never part of an update payload.
type Item struct {
	ID          string `json:"id"`
	OrgPlatform string `json:"orgPlatform"`
	OrgURL      string `json:"orgUrl"`
	EbaySKU     string `json:"ebaySku"`

	IsOrgLive      bool `json:"isOrgLive"`
	IsImageChanged bool `json:"isImageChanged"`
	IsListed       bool `json:"isListed"`

	OrgImageURLs []string   `json:"orgImageUrls"`
	OrgPrice     float64    `json:"orgPrice"`
	OrgTitle     string     `json:"orgTitle"`
	ShippingYen  float64    `json:"shippingYen"`
	OrgExtra     ExtraParam `json:"orgExtraParam"`

	EbayTitle                string         `json:"ebayTitle"`
	EbayDescription          string         `json:"ebayDescription"`
	EbayCategory             string         `json:"ebayCategory"`
	EbayStoreCategory        string         `json:"ebayStoreCategory"`
	EbayCondition            string         `json:"ebayCondition"`
	EbayConditionDescription string         `json:"ebayConditionDescription,omitempty"`
	EbayImageURLs            []string       `json:"ebayImageUrls"`
	EbayAspectParam          map[string]any `json:"ebayAspectParam"`
	EbayFulfillmentPolicy    string         `json:"ebayFulfillmentPolicy"`

	ListingID string `json:"listingId,omitempty"`
}

// AppParams carries deployment-level settings delivered with each task.
type AppParams struct {
	EbayIsSandbox            bool    `json:"ebayIsSandbox"`
	EbayAppKeyParamName      string  `json:"ebayAppKeyParamName"`
	EbayUserTokenParamPrefix string  `json:"ebayUserTokenParamPrefix"`
	UsdJpy                   float64 `json:"usdJpy"`
}

// UserTokenParamName returns the secret-store parameter name holding the
// token bundle for the given user.
func (p AppParams) UserTokenParamName(username string) string {
	return p.EbayUserTokenParamPrefix + username
}
