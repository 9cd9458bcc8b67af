package extract

import "github.com/PuerkitoBio/goquery"

// Selectors shared by both sourcing front-ends.
const (
	emptyStateSelector = "div.merEmptyState"
	imageSelector      = `article div[data-testid^="image-"] img`
	firstImageSelector = `article div[data-testid="image-0"] img`
	soldOutSelector    = `article div[data-testid="image-0"][aria-label="売り切れ"]`
	userSelector       = "div.merUserObject"
	ratingSelector     = "div.merUserObject div.merRating"
	rateCountSelector  = `div.merUserObject div.merRating span[class^="count__"]`
)

// selectorProfile captures where one sourcing front-end keeps its item data.
// The two supported platforms render the same widgets under different roots.
type selectorProfile struct {
	infoRoot    string
	priceRegion string
	sellerLink  string
}

var profiles = map[string]selectorProfile{
	"merc": {
		infoRoot:    "#item-info",
		priceRegion: `#item-info div[data-testid="price"]`,
		sellerLink:  `a[data-location="item_details:seller_info"]`,
	},
	"mshop": {
		infoRoot:    "#product-info",
		priceRegion: `#product-info div[data-testid="product-price"]`,
		sellerLink:  `a[data-location="item_details:shop_info"]`,
	},
}

// terminal reports whether the page reached a recognizable final state:
// either the empty state, or all three required data regions present.
func (p selectorProfile) terminal(doc *goquery.Document) bool {
	if doc.Find(emptyStateSelector).Length() > 0 {
		return true
	}
	return doc.Find(p.priceRegion).Length() > 0 &&
		doc.Find(firstImageSelector).Length() > 0 &&
		doc.Find(userSelector).Length() > 0
}

// regionState describes which required regions were present, for diagnostics.
func (p selectorProfile) regionState(doc *goquery.Document) map[string]string {
	present := func(sel string) string {
		if doc != nil && doc.Find(sel).Length() > 0 {
			return "present"
		}
		return "absent"
	}
	return map[string]string{
		"emptyState":  present(emptyStateSelector),
		"priceRegion": present(p.priceRegion),
		"imageRegion": present(firstImageSelector),
		"userRegion":  present(userSelector),
	}
}
