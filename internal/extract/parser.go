package extract

import (
	"net/url"
	"strconv"
	"strings"

	"resale/monitor/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// parseSnapshot reads a terminal page into a snapshot. It never returns a
// partially populated in-stock snapshot: any missing or implausible required
// field fails the extraction with the observed raw values attached.
func parseSnapshot(doc *goquery.Document, pageURL string, p selectorProfile, minPrice float64) (*domain.StockSnapshot, error) {
	if doc.Find(emptyStateSelector).Length() > 0 {
		return &domain.StockSnapshot{Status: domain.StockStatusOutOfStock}, nil
	}
	if doc.Find(soldOutSelector).Length() > 0 {
		return &domain.StockSnapshot{Status: domain.StockStatusOutOfStock}, nil
	}

	find := func(sel string) string {
		return strings.TrimSpace(doc.Find(sel).First().Text())
	}

	imageURLs := make([]string, 0)
	doc.Find(imageSelector).Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			imageURLs = append(imageURLs, src)
		}
	})

	title := find(p.infoRoot + " h1")
	// Keyword policy matches over the raw description text, so no trimming.
	description := doc.Find(p.infoRoot + ` pre[data-testid="description"]`).First().Text()

	// Second span inside the price region holds the bare number.
	priceStr := strings.ReplaceAll(doc.Find(p.priceRegion+" span").Eq(1).Text(), ",", "")
	price, priceErr := strconv.ParseFloat(priceStr, 64)

	lastUpdated := strings.TrimSpace(doc.Find(p.infoRoot + " > section").Eq(1).Find("p.merText").First().Text())
	itemCondition := find(p.infoRoot + ` span[data-testid="商品の状態"]`)
	shippingMethod := find(p.infoRoot + ` span[data-testid="配送の方法"]`)
	shippedFrom := find(p.infoRoot + ` span[data-testid="発送元の地域"]`)
	shippedWithin := find(p.infoRoot + ` span[data-testid="発送までの日数"]`)

	payOnDeliverySel := doc.Find(p.infoRoot + ` span[data-testid="配送料の負担"]`)
	isPayOnDelivery := strings.Contains(payOnDeliverySel.First().Text(), "着払い")

	sellerID := ""
	if href, ok := doc.Find(p.sellerLink).First().Attr("href"); ok {
		if u, err := url.Parse(href); err == nil {
			sellerID = u.Path
		}
	}

	rateScoreStr := doc.Find(ratingSelector).First().AttrOr("aria-label", "")
	rateScore, rateScoreErr := strconv.ParseFloat(strings.TrimSpace(rateScoreStr), 64)
	rateCountStr := find(rateCountSelector)
	rateCount, rateCountErr := strconv.ParseFloat(rateCountStr, 64)

	fields := map[string]string{
		"title":          title,
		"description":    description,
		"price":          priceStr,
		"images":         strconv.Itoa(len(imageURLs)),
		"lastUpdated":    lastUpdated,
		"itemCondition":  itemCondition,
		"shippingMethod": shippingMethod,
		"shippedFrom":    shippedFrom,
		"shippedWithin":  shippedWithin,
		"sellerId":       sellerID,
		"rateScore":      rateScoreStr,
		"rateCount":      rateCountStr,
	}

	invalid := pageURL == "" ||
		title == "" ||
		description == "" ||
		len(imageURLs) == 0 ||
		priceErr != nil ||
		price < minPrice ||
		lastUpdated == "" ||
		itemCondition == "" ||
		shippingMethod == "" ||
		shippedFrom == "" ||
		shippedWithin == "" ||
		sellerID == "" ||
		payOnDeliverySel.Length() == 0 ||
		rateScoreErr != nil ||
		rateCountErr != nil

	if invalid {
		return nil, &domain.ExtractionError{
			URL:    pageURL,
			Reason: "required fields missing or invalid",
			Fields: fields,
		}
	}

	return &domain.StockSnapshot{
		Status: domain.StockStatusInStock,
		Core: &domain.StockCore{
			URL:         pageURL,
			ImageURLs:   imageURLs,
			Price:       price,
			Title:       title,
			Description: description,
		},
		Extra: &domain.ExtraParam{
			IsPayOnDelivery: isPayOnDelivery,
			RateScore:       rateScore,
			RateCount:       rateCount,
			ShippedFrom:     shippedFrom,
			ShippedWithin:   shippedWithin,
			ShippingMethod:  shippingMethod,
			SellerID:        sellerID,
			ItemCondition:   itemCondition,
			LastUpdated:     lastUpdated,
		},
	}, nil
}
