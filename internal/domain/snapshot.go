package domain

// StockStatus is the terminal state of a sourcing page.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// StockCore holds the canonical listing data of an in-stock item.
type StockCore struct {
	URL         string   `json:"url"`
	ImageURLs   []string `json:"imageUrls"`
	Price       float64  `json:"price"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// StockSnapshot is the extractor's point-in-time read of a sourcing item.
// When Status is instock, Core and Extra are always populated; a partially
// extracted page surfaces as an ExtractionError instead of a snapshot.
type StockSnapshot struct {
	Status StockStatus `json:"stockStatus"`
	Core   *StockCore  `json:"core,omitempty"`
	Extra  *ExtraParam `json:"extra,omitempty"`
}

// InStock reports whether the snapshot observed a live, purchasable item.
func (s *StockSnapshot) InStock() bool {
	return s != nil && s.Status == StockStatusInStock && s.Core != nil && s.Extra != nil
}
