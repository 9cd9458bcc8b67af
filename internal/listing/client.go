package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// Offer is an existing destination-marketplace offer bound to a SKU.
type Offer struct {
	OfferID string `json:"offerId"`
}

// Client exposes the destination marketplace's inventory and offer API for
// a single SKU. All calls require a bearer access token and select the
// sandbox or production environment per call.
type Client interface {
	CreateOrReplaceInventoryItem(ctx context.Context, token, sku string, item InventoryItem, sandbox bool) error
	GetOffer(ctx context.Context, token, sku string, sandbox bool) (*Offer, error)
	CreateOffer(ctx context.Context, token string, offer OfferPayload, sandbox bool) (string, error)
	UpdateOffer(ctx context.Context, token, offerID string, offer OfferPayload, sandbox bool) error
	PublishOffer(ctx context.Context, token, offerID string, sandbox bool) (string, error)
	DeleteInventoryItem(ctx context.Context, token, sku string, sandbox bool) error
}

type restClient struct {
	httpClient *resty.Client
	baseURL    string
	sandboxURL string
}

func NewClient(cfg config.ListingConfig) Client {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Content-Language", "en-US")

	return &restClient{
		httpClient: client,
		baseURL:    cfg.BaseURL,
		sandboxURL: cfg.SandboxBaseURL,
	}
}

func (c *restClient) endpoint(sandbox bool, path string) string {
	if sandbox {
		return c.sandboxURL + path
	}
	return c.baseURL + path
}

func (c *restClient) req(ctx context.Context, token string) *resty.Request {
	return c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token)
}

func (c *restClient) CreateOrReplaceInventoryItem(ctx context.Context, token, sku string, item InventoryItem, sandbox bool) error {
	resp, err := c.req(ctx, token).
		SetBody(item).
		Put(c.endpoint(sandbox, "/sell/inventory/v1/inventory_item/"+url.PathEscape(sku)))
	return checkResp("create inventory item", resp, err)
}

// GetOffer returns the existing offer for a SKU, or nil when none exists.
func (c *restClient) GetOffer(ctx context.Context, token, sku string, sandbox bool) (*Offer, error) {
	var result struct {
		Offers []Offer `json:"offers"`
	}

	resp, err := c.req(ctx, token).
		SetQueryParam("sku", sku).
		SetResult(&result).
		Get(c.endpoint(sandbox, "/sell/inventory/v1/offer"))
	if err != nil {
		return nil, fmt.Errorf("listing client get offer failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, &domain.ListingError{Op: "get offer", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if len(result.Offers) == 0 {
		return nil, nil
	}
	return &result.Offers[0], nil
}

func (c *restClient) CreateOffer(ctx context.Context, token string, offer OfferPayload, sandbox bool) (string, error) {
	var result Offer

	resp, err := c.req(ctx, token).
		SetBody(offer).
		SetResult(&result).
		Post(c.endpoint(sandbox, "/sell/inventory/v1/offer"))
	if err := checkResp("create offer", resp, err); err != nil {
		return "", err
	}
	if result.OfferID == "" {
		return "", &domain.ListingError{Op: "create offer", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return result.OfferID, nil
}

func (c *restClient) UpdateOffer(ctx context.Context, token, offerID string, offer OfferPayload, sandbox bool) error {
	resp, err := c.req(ctx, token).
		SetBody(offer).
		Put(c.endpoint(sandbox, "/sell/inventory/v1/offer/"+url.PathEscape(offerID)))
	return checkResp("update offer", resp, err)
}

func (c *restClient) PublishOffer(ctx context.Context, token, offerID string, sandbox bool) (string, error) {
	var result struct {
		ListingID string `json:"listingId"`
	}

	resp, err := c.req(ctx, token).
		SetResult(&result).
		Post(c.endpoint(sandbox, "/sell/inventory/v1/offer/"+url.PathEscape(offerID)+"/publish/"))
	if err := checkResp("publish offer", resp, err); err != nil {
		return "", err
	}
	if result.ListingID == "" {
		return "", &domain.ListingError{Op: "publish offer", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return result.ListingID, nil
}

// DeleteInventoryItem removes the inventory record and, transitively, any
// offer or listing for the SKU. Deleting a SKU with no active listing is a
// success, so removal stays idempotent.
func (c *restClient) DeleteInventoryItem(ctx context.Context, token, sku string, sandbox bool) error {
	resp, err := c.req(ctx, token).
		Delete(c.endpoint(sandbox, "/sell/inventory/v1/inventory_item/"+url.PathEscape(sku)))
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		log.Debugf("Inventory item %s already absent", sku)
		return nil
	}
	return checkResp("delete inventory item", resp, err)
}

func checkResp(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("listing client %s failed: %w", op, err)
	}
	if resp.IsError() {
		return &domain.ListingError{Op: op, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
