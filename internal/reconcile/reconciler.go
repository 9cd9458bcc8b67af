package reconcile

import (
	"context"
	"slices"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"
	"resale/monitor/internal/listing"
	"resale/monitor/internal/policy"

	log "github.com/sirupsen/logrus"
)

// Reconciler drives the destination listing of one item to match a fresh
// stock snapshot and the eligibility decision. Listing failures propagate
// unretried; the task loop reruns the whole task from a fresh extraction.
type Reconciler struct {
	client    listing.Client
	tokens    listing.TokenProvider
	evaluator *policy.Evaluator
	cfg       config.ListingConfig
}

func New(client listing.Client, tokens listing.TokenProvider, evaluator *policy.Evaluator, cfg config.ListingConfig) *Reconciler {
	return &Reconciler{
		client:    client,
		tokens:    tokens,
		evaluator: evaluator,
		cfg:       cfg,
	}
}

// Reconcile returns the updated item record for persistence. The caller
// persists it keyed by the immutable internal id.
func (r *Reconciler) Reconcile(ctx context.Context, item domain.Item, user domain.User, app domain.AppParams, snap *domain.StockSnapshot) (domain.Item, error) {
	item.IsOrgLive = snap.InStock()
	if item.IsOrgLive {
		// Sticky: once a drift is observed the flag stays set, keeping
		// relisting suspended even after the recorded images are refreshed.
		item.IsImageChanged = item.IsImageChanged || !slices.Equal(item.OrgImageURLs, snap.Core.ImageURLs)
		item.OrgImageURLs = snap.Core.ImageURLs
		item.OrgPrice = snap.Core.Price
		item.OrgTitle = snap.Core.Title
		item.OrgExtra = *snap.Extra
	}

	if reasons := r.evaluator.DenyReasons(item, user, snap); len(reasons) > 0 {
		log.Infof("Removing listing for item %s: %v", item.ID, reasons)
		item.IsListed = false
		if err := r.retrieve(ctx, item, user, app); err != nil {
			return item, err
		}
		return item, nil
	}

	log.Infof("Publishing listing for item %s", item.ID)
	listingID, err := r.list(ctx, item, user, app)
	if err != nil {
		return item, err
	}
	item.ListingID = listingID
	item.IsListed = true

	return item, nil
}

// retrieve takes the item off the destination marketplace. A SKU without an
// active listing deletes cleanly, so repeated removal is a no-op.
func (r *Reconciler) retrieve(ctx context.Context, item domain.Item, user domain.User, app domain.AppParams) error {
	token, err := r.tokens.AccessToken(ctx, app.EbayAppKeyParamName, app.UserTokenParamName(user.Username), app.EbayIsSandbox)
	if err != nil {
		return err
	}
	return r.client.DeleteInventoryItem(ctx, token, item.EbaySKU, app.EbayIsSandbox)
}

// list creates or replaces the inventory record, upserts the offer and
// publishes it, returning the listing identifier.
func (r *Reconciler) list(ctx context.Context, item domain.Item, user domain.User, app domain.AppParams) (string, error) {
	inventory := listing.BuildInventoryItem(item)
	offer := listing.BuildOffer(item, user, app, r.cfg)

	token, err := r.tokens.AccessToken(ctx, app.EbayAppKeyParamName, app.UserTokenParamName(user.Username), app.EbayIsSandbox)
	if err != nil {
		return "", err
	}

	if err := r.client.CreateOrReplaceInventoryItem(ctx, token, item.EbaySKU, inventory, app.EbayIsSandbox); err != nil {
		return "", err
	}

	existing, err := r.client.GetOffer(ctx, token, item.EbaySKU, app.EbayIsSandbox)
	if err != nil {
		return "", err
	}

	var offerID string
	if existing != nil {
		offerID = existing.OfferID
		if err := r.client.UpdateOffer(ctx, token, offerID, offer, app.EbayIsSandbox); err != nil {
			return "", err
		}
	} else {
		offerID, err = r.client.CreateOffer(ctx, token, offer, app.EbayIsSandbox)
		if err != nil {
			return "", err
		}
	}

	return r.client.PublishOffer(ctx, token, offerID, app.EbayIsSandbox)
}
