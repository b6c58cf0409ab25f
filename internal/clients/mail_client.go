// internal/clients/mail_client.go
package clients

import (
	"context"

	"bookstore/internal/book"
)

// MailClient sends electronic books through an external mail service.
type MailClient struct {
	client *deliveryClient
}

func NewMailClient(baseURL string, cfg Config) *MailClient {
	return &MailClient{client: newDeliveryClient("mail", baseURL, cfg)}
}

func (c *MailClient) Send(ctx context.Context, b *book.ElectronicBook, email string) error {
	sendReq := struct {
		ISBN     string        `json:"isbn"`
		Title    string        `json:"title"`
		FileType book.FileType `json:"file_type"`
		Email    string        `json:"email"`
	}{
		ISBN:     b.ISBN(),
		Title:    b.Title(),
		FileType: b.FileType(),
		Email:    email,
	}

	return c.client.post(ctx, "/messages", sendReq)
}
