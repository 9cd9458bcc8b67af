package reconcile

import (
	"context"
	"errors"
	"testing"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"
	"resale/monitor/internal/listing"
	"resale/monitor/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	err error
}

func (f *fakeTokens) AccessToken(_ context.Context, _, _ string, _ bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "test-token", nil
}

type fakeListingClient struct {
	calls         []string
	existingOffer *listing.Offer
	deletedSKUs   []string
	lastOffer     listing.OfferPayload
	deleteErr     error
	publishErr    error
}

func (f *fakeListingClient) CreateOrReplaceInventoryItem(_ context.Context, _, sku string, _ listing.InventoryItem, _ bool) error {
	f.calls = append(f.calls, "createInventory:"+sku)
	return nil
}

func (f *fakeListingClient) GetOffer(_ context.Context, _, sku string, _ bool) (*listing.Offer, error) {
	f.calls = append(f.calls, "getOffer:"+sku)
	return f.existingOffer, nil
}

func (f *fakeListingClient) CreateOffer(_ context.Context, _ string, offer listing.OfferPayload, _ bool) (string, error) {
	f.calls = append(f.calls, "createOffer:"+offer.SKU)
	f.lastOffer = offer
	return "offer-new", nil
}

func (f *fakeListingClient) UpdateOffer(_ context.Context, _, offerID string, offer listing.OfferPayload, _ bool) error {
	f.calls = append(f.calls, "updateOffer:"+offerID)
	f.lastOffer = offer
	return nil
}

func (f *fakeListingClient) PublishOffer(_ context.Context, _, offerID string, _ bool) (string, error) {
	f.calls = append(f.calls, "publishOffer:"+offerID)
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return "listing-123", nil
}

func (f *fakeListingClient) DeleteInventoryItem(_ context.Context, _, sku string, _ bool) error {
	f.calls = append(f.calls, "deleteInventory:"+sku)
	f.deletedSKUs = append(f.deletedSKUs, sku)
	return f.deleteErr
}

func testListingConfig() config.ListingConfig {
	return config.ListingConfig{
		MarketplaceID: "EBAY_US",
		Currency:      "USD",
		FixedFeeRatio: 0.17,
	}
}

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		PriceCeiling:   100000,
		MinRatingScore: 4.8,
		MinRatingCount: 10,
	}
}

func liveSnapshot() *domain.StockSnapshot {
	return &domain.StockSnapshot{
		Status: domain.StockStatusInStock,
		Core: &domain.StockCore{
			URL:         "https://jp.mercari.com/item/m123",
			ImageURLs:   []string{"https://img/1.jpg"},
			Price:       3000,
			Title:       "Vintage camera",
			Description: "Working condition",
		},
		Extra: &domain.ExtraParam{
			RateScore:     4.9,
			RateCount:     120,
			ShippedFrom:   "東京都",
			ShippedWithin: "1~2日で発送",
			SellerID:      "/user/profile/111",
			ItemCondition: "目立った傷や汚れなし",
		},
	}
}

func liveItem() domain.Item {
	return domain.Item{
		ID:           "item-1",
		EbaySKU:      "sku-1",
		OrgImageURLs: []string{"https://img/1.jpg"},
		OrgPrice:     2800,
		OrgTitle:     "Old title",
	}
}

func newTestReconciler(client listing.Client, tokens listing.TokenProvider) *Reconciler {
	return New(client, tokens, policy.NewEvaluator(testPolicyConfig()), testListingConfig())
}

func TestReconcilePublishesEligibleItem(t *testing.T) {
	client := &fakeListingClient{}
	r := newTestReconciler(client, &fakeTokens{})

	updated, err := r.Reconcile(context.Background(), liveItem(), domain.User{}, domain.AppParams{UsdJpy: 150}, liveSnapshot())
	require.NoError(t, err)

	assert.True(t, updated.IsOrgLive)
	assert.True(t, updated.IsListed)
	assert.Equal(t, "listing-123", updated.ListingID)
	assert.Equal(t, []string{
		"createInventory:sku-1",
		"getOffer:sku-1",
		"createOffer:sku-1",
		"publishOffer:offer-new",
	}, client.calls)

	// Snapshot values replace the recorded sourcing fields.
	assert.Equal(t, float64(3000), updated.OrgPrice)
	assert.Equal(t, "Vintage camera", updated.OrgTitle)
	assert.Equal(t, "/user/profile/111", updated.OrgExtra.SellerID)
	assert.False(t, updated.IsImageChanged)
}

func TestReconcileUpdatesExistingOffer(t *testing.T) {
	client := &fakeListingClient{existingOffer: &listing.Offer{OfferID: "offer-old"}}
	r := newTestReconciler(client, &fakeTokens{})

	updated, err := r.Reconcile(context.Background(), liveItem(), domain.User{}, domain.AppParams{UsdJpy: 150}, liveSnapshot())
	require.NoError(t, err)

	assert.True(t, updated.IsListed)
	assert.Equal(t, []string{
		"createInventory:sku-1",
		"getOffer:sku-1",
		"updateOffer:offer-old",
		"publishOffer:offer-old",
	}, client.calls)
}

func TestReconcileUnlistsOutOfStockItem(t *testing.T) {
	client := &fakeListingClient{}
	r := newTestReconciler(client, &fakeTokens{})

	item := liveItem()
	item.IsListed = true
	item.ListingID = "listing-old"

	updated, err := r.Reconcile(context.Background(), item, domain.User{}, domain.AppParams{}, &domain.StockSnapshot{Status: domain.StockStatusOutOfStock})
	require.NoError(t, err)

	assert.False(t, updated.IsOrgLive)
	assert.False(t, updated.IsListed)
	assert.Equal(t, []string{"deleteInventory:sku-1"}, client.calls)
	// The recorded identifier survives removal.
	assert.Equal(t, "listing-old", updated.ListingID)
	// Sourcing fields stay as recorded when the item is gone.
	assert.Equal(t, float64(2800), updated.OrgPrice)
}

func TestReconcileUnlistsOnImageDrift(t *testing.T) {
	client := &fakeListingClient{}
	r := newTestReconciler(client, &fakeTokens{})

	snap := liveSnapshot()
	snap.Core.ImageURLs = []string{"https://img/replaced.jpg"}

	updated, err := r.Reconcile(context.Background(), liveItem(), domain.User{}, domain.AppParams{}, snap)
	require.NoError(t, err)

	assert.False(t, updated.IsListed)
	assert.True(t, updated.IsImageChanged)
	assert.Equal(t, []string{"deleteInventory:sku-1"}, client.calls)
	// The drifted images are still recorded for the next comparison.
	assert.Equal(t, []string{"https://img/replaced.jpg"}, updated.OrgImageURLs)
}

func TestReconcileImageDriftStaysSticky(t *testing.T) {
	client := &fakeListingClient{}
	r := newTestReconciler(client, &fakeTokens{})

	item := liveItem()
	item.IsImageChanged = true

	// Snapshot images match the recorded ones, but the earlier drift holds.
	updated, err := r.Reconcile(context.Background(), item, domain.User{}, domain.AppParams{}, liveSnapshot())
	require.NoError(t, err)

	assert.False(t, updated.IsListed)
	assert.True(t, updated.IsImageChanged)
}

func TestReconcileListingFailurePropagates(t *testing.T) {
	publishErr := &domain.ListingError{Op: "publish offer", StatusCode: 500}
	client := &fakeListingClient{publishErr: publishErr}
	r := newTestReconciler(client, &fakeTokens{})

	_, err := r.Reconcile(context.Background(), liveItem(), domain.User{}, domain.AppParams{UsdJpy: 150}, liveSnapshot())
	require.Error(t, err)

	var listingErr *domain.ListingError
	assert.ErrorAs(t, err, &listingErr)
}

func TestReconcileRemovalFailurePropagates(t *testing.T) {
	client := &fakeListingClient{deleteErr: errors.New("api unavailable")}
	r := newTestReconciler(client, &fakeTokens{})

	_, err := r.Reconcile(context.Background(), liveItem(), domain.User{}, domain.AppParams{}, &domain.StockSnapshot{Status: domain.StockStatusOutOfStock})
	require.Error(t, err)
}

func TestReconcileAuthFailurePropagates(t *testing.T) {
	client := &fakeListingClient{}
	r := newTestReconciler(client, &fakeTokens{err: domain.ErrAuthFailed})

	_, err := r.Reconcile(context.Background(), liveItem(), domain.User{}, domain.AppParams{UsdJpy: 150}, liveSnapshot())
	require.ErrorIs(t, err, domain.ErrAuthFailed)
	// Nothing was sent to the marketplace without a token.
	assert.Empty(t, client.calls)
}
