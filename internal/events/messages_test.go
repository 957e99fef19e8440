package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/core"
)

func TestNewTransferCreatedMessage(t *testing.T) {
	created := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	tx := core.Transaction{
		ID:          "t-1",
		AccountID:   "1",
		Type:        core.TypeTransfer,
		Amount:      decimal.NewFromInt(-500),
		Currency:    core.RUB,
		Description: "аренда",
		Recipient:   "4081781000005678",
		Status:      core.StatusPending,
		CreatedAt:   created,
		Category:    core.CategoryTransfer,
	}

	msg := NewTransferCreatedMessage(tx)
	if msg.ID != "t-1" || !msg.Amount.Equal(decimal.NewFromInt(-500)) || !msg.CreatedAt.Equal(created) {
		t.Fatalf("message fields: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Fatalf("timestamp should be stamped")
	}

	// The message alone must reconstruct the transaction for consumers.
	back := msg.Transaction()
	if back.ID != tx.ID || back.Type != core.TypeTransfer || back.Category != core.CategoryTransfer {
		t.Fatalf("reconstructed transaction: %+v", back)
	}
	if !back.Amount.Equal(tx.Amount) || back.Recipient != tx.Recipient {
		t.Fatalf("reconstructed transaction lost payload: %+v", back)
	}
}

func TestTransferCreatedMessageInvalidJSON(t *testing.T) {
	if _, err := TransferCreatedMessageFromJSON([]byte(`{"amount": []}`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
