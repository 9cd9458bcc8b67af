package policy

import (
	"slices"
	"strings"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"
)

// Evaluator decides whether an item may remain listed on the destination
// marketplace. It is a pure function of its inputs: no I/O, no mutation.
type Evaluator struct {
	cfg config.PolicyConfig
}

func NewEvaluator(cfg config.PolicyConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Allow returns true when no deny rule matches.
func (e *Evaluator) Allow(item domain.Item, user domain.User, snap *domain.StockSnapshot) bool {
	return len(e.DenyReasons(item, user, snap)) == 0
}

// DenyReasons evaluates every deny rule and returns the ones that matched.
// An empty result means the item is eligible.
func (e *Evaluator) DenyReasons(item domain.Item, user domain.User, snap *domain.StockSnapshot) []string {
	if !snap.InStock() {
		return []string{"item is out of stock"}
	}

	core, extra := snap.Core, snap.Extra

	var reasons []string
	add := func(matched bool, reason string) {
		if matched {
			reasons = append(reasons, reason)
		}
	}

	// A changed image may mean a different physical item; the sticky flag on
	// the item keeps relisting suspended after the images were refreshed.
	add(item.IsImageChanged || !slices.Equal(item.OrgImageURLs, core.ImageURLs), "image sequence changed")
	add(core.Price >= e.cfg.PriceCeiling, "price at or above ceiling")
	add(extra.IsPayOnDelivery, "pay on delivery")
	add(extra.RateScore < e.cfg.MinRatingScore, "seller rating score below minimum")
	add(extra.RateCount < e.cfg.MinRatingCount, "seller rating count below minimum")
	add(slices.Contains(e.cfg.BannedRegions, extra.ShippedFrom), "ships from banned region")
	add(e.slowShipping(extra), "slow shipping")
	add(slices.Contains(e.cfg.BannedConditionLabels, extra.ItemCondition), "banned condition label")
	add(e.hasBannedKeyword(core.Description), "banned keyword in description")
	add(slices.Contains(user.SellerBlacklist, extra.SellerID), "blacklisted seller")

	return reasons
}

// slowShipping matches the slowest shipping bucket combined with a slow or
// unspecified shipping method.
func (e *Evaluator) slowShipping(extra *domain.ExtraParam) bool {
	if !slices.Contains(e.cfg.SlowShippingBuckets, extra.ShippedWithin) {
		return false
	}
	if extra.ShippingMethod == "" {
		return true
	}
	for _, method := range e.cfg.SlowShippingMethods {
		if strings.Contains(extra.ShippingMethod, method) {
			return true
		}
	}
	return false
}

func (e *Evaluator) hasBannedKeyword(description string) bool {
	for _, keyword := range e.cfg.BannedKeywords {
		if strings.Contains(description, keyword) {
			return true
		}
	}
	return false
}
