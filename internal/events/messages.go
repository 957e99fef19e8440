package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/core"
)

// TransferCreatedMessage announces a transfer accepted by the bank. It
// carries the full transaction payload so consumers need no follow-up
// lookup.
type TransferCreatedMessage struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    core.Currency   `json:"currency"`
	Description string          `json:"description"`
	Recipient   string          `json:"recipient"`
	CreatedAt   time.Time       `json:"createdAt"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewTransferCreatedMessage builds a message from the created transaction.
func NewTransferCreatedMessage(tx core.Transaction) *TransferCreatedMessage {
	return &TransferCreatedMessage{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Description: tx.Description,
		Recipient:   tx.Recipient,
		CreatedAt:   tx.CreatedAt,
		Timestamp:   time.Now(),
	}
}

// Transaction reconstructs the domain transaction the message describes.
func (m *TransferCreatedMessage) Transaction() core.Transaction {
	return core.Transaction{
		ID:          m.ID,
		AccountID:   m.AccountID,
		Type:        core.TypeTransfer,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Description: m.Description,
		Recipient:   m.Recipient,
		Status:      core.StatusPending,
		CreatedAt:   m.CreatedAt,
		Category:    core.CategoryTransfer,
	}
}

func (m *TransferCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransferCreatedMessageFromJSON(data []byte) (*TransferCreatedMessage, error) {
	var msg TransferCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
