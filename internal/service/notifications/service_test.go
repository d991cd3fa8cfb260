package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/alquemist/internal/domain/models"
)

type sent struct {
	to, body string
}

type fakeSender struct {
	messages []sent
	err      error
}

func (f *fakeSender) SendText(_ context.Context, to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, sent{to: to, body: body})
	return "wamid.test", nil
}

func TestNotifyLowStock(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "+221700000000", nil)

	err := svc.NotifyLowStock(context.Background(), models.LowStockAlert{
		FacilityID:   "f1",
		ProductID:    "p1",
		SKU:          "NUT-A",
		ProductName:  "Nutrient A",
		Unit:         "l",
		Available:    decimal.RequireFromString("2.5"),
		ReorderPoint: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, "+221700000000", msg.to)
	assert.Contains(t, msg.body, "Nutrient A (NUT-A)")
	assert.Contains(t, msg.body, "Available: 2.5 l")
	assert.Contains(t, msg.body, "Reorder point: 5 l")
}

func TestSendReportTruncatesLongBodies(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "+1", nil)

	require.NoError(t, svc.SendReport(context.Background(), "Weekly", strings.Repeat("x", 5000)))
	require.Len(t, sender.messages, 1)
	assert.Len(t, sender.messages[0].body, maxBody)
	assert.True(t, strings.HasPrefix(sender.messages[0].body, "Weekly\n\n"))
}

func TestSendErrors(t *testing.T) {
	err := NewService(&fakeSender{}, "", nil).SendReport(context.Background(), "t", "r")
	assert.ErrorIs(t, err, ErrNoRecipient)

	boom := errors.New("boom")
	err = NewService(&fakeSender{err: boom}, "+1", nil).SendReport(context.Background(), "t", "r")
	assert.ErrorIs(t, err, boom)
}
