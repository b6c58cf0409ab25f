package clients

import (
	"context"
	"errors"
	"strings"

	"bookstore/internal/book"

	"go.uber.org/zap"
)

var (
	ErrInvalidEmail   = errors.New("email address must contain @")
	ErrInvalidAddress = errors.New("shipping address must not be blank")
)

// LogMailer stands in for a mail service when none is configured. It accepts
// any address containing "@" and logs the delivery.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, b *book.ElectronicBook, email string) error {
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	m.logger.Info("electronic book sent",
		zap.String("isbn", b.ISBN()),
		zap.String("title", b.Title()),
		zap.String("email", email))
	return nil
}

// LogShipper stands in for a shipping service when none is configured.
type LogShipper struct {
	logger *zap.Logger
}

func NewLogShipper(logger *zap.Logger) *LogShipper {
	return &LogShipper{logger: logger}
}

func (s *LogShipper) Ship(_ context.Context, b *book.PaperBook, address string) error {
	if strings.TrimSpace(address) == "" {
		return ErrInvalidAddress
	}
	s.logger.Info("paper book shipped",
		zap.String("isbn", b.ISBN()),
		zap.String("title", b.Title()),
		zap.String("address", address))
	return nil
}
