package port

import (
	"context"

	"github.com/shopspring/decimal"
)

type ListedItem struct {
	ID string `json:"id"`
}

type ListItemsResponse struct {
	Success bool         `json:"success"`
	Items   []ListedItem `json:"items"`
	Error   string       `json:"error,omitempty"`
}

type ItemDetails struct {
	SellerCustomField string          `json:"seller_custom_field,omitempty"`
	AvailableQuantity int             `json:"available_quantity"`
	Price             decimal.Decimal `json:"price"`
	LastUpdated       string          `json:"last_updated"`
}

type ItemDetailsResponse struct {
	Success bool        `json:"success"`
	Item    ItemDetails `json:"item"`
	Error   string      `json:"error,omitempty"`
}

type ItemUpdate struct {
	AvailableQuantity int             `json:"available_quantity"`
	Price             decimal.Decimal `json:"price"`
}

type UpdateItemResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type MarketplaceClient interface {
	// ListMyItems returns the IDs of every listing owned by the seller
	ListMyItems(ctx context.Context) (ListItemsResponse, error)

	// GetItemDetails fetches one listing
	GetItemDetails(ctx context.Context, id string) (ItemDetailsResponse, error)

	// UpdateItem sets quantity and price of one listing
	UpdateItem(ctx context.Context, remoteID string, update ItemUpdate) (UpdateItemResponse, error)
}
