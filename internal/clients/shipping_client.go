// internal/clients/shipping_client.go
package clients

import (
	"context"

	"bookstore/internal/book"
)

// ShippingClient books shipments with an external shipping service.
type ShippingClient struct {
	client *deliveryClient
}

func NewShippingClient(baseURL string, cfg Config) *ShippingClient {
	return &ShippingClient{client: newDeliveryClient("shipping", baseURL, cfg)}
}

func (c *ShippingClient) Ship(ctx context.Context, b *book.PaperBook, address string) error {
	shipReq := struct {
		ISBN    string `json:"isbn"`
		Title   string `json:"title"`
		Address string `json:"address"`
	}{
		ISBN:    b.ISBN(),
		Title:   b.Title(),
		Address: address,
	}

	return c.client.post(ctx, "/shipments", shipReq)
}
