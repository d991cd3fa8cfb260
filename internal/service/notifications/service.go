// Package notifications delivers operator alerts and reports over WhatsApp.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/domain/models"
	client "github.com/mamadbah2/alquemist/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// maxBody is the Cloud API limit for a text message body.
const maxBody = 4096

// ErrNoRecipient is returned when no alert recipient is configured.
var ErrNoRecipient = errors.New("notifications: no recipient configured")

// Service sends formatted messages to a single operator recipient.
type Service struct {
	sender    client.Sender
	recipient string
	logger    *zap.Logger
}

// NewService wires a notification service.
func NewService(sender client.Sender, recipient string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sender: sender, recipient: recipient, logger: logger}
}

// NotifyLowStock tells the operator a product fell to or below its reorder point.
func (s *Service) NotifyLowStock(ctx context.Context, alert models.LowStockAlert) error {
	body := fmt.Sprintf("Low stock: %s (%s)\nFacility: %s\nAvailable: %s %s\nReorder point: %s %s",
		alert.ProductName, alert.SKU,
		alert.FacilityID,
		alert.Available.String(), alert.Unit,
		alert.ReorderPoint.String(), alert.Unit)
	return s.send(ctx, "low_stock", body)
}

// SendReport delivers a rendered report.
func (s *Service) SendReport(ctx context.Context, title, report string) error {
	body := strings.TrimSpace(title + "\n\n" + report)
	return s.send(ctx, "report", body)
}

func (s *Service) send(ctx context.Context, kind, body string) error {
	if s.recipient == "" {
		return ErrNoRecipient
	}
	if len(body) > maxBody {
		body = body[:maxBody-3] + "..."
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	id, err := s.sender.SendText(ctx, s.recipient, body)
	if err != nil {
		return fmt.Errorf("send %s notification: %w", kind, err)
	}
	s.logger.Info("notification sent", zap.String("kind", kind), zap.String("message_id", id))
	return nil
}
