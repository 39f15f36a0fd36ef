package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Alert kinds carried on the wire. They mirror the two threshold
// crossings the aggregation core can detect.
const (
	KindNearLimit = "near_limit"
	KindExceeded  = "exceeded"
)

// BudgetAlertMessage is published when inserting an expense pushes a
// budget across the 90% or 100% threshold. It carries everything the
// notification worker needs to render the alert without a database
// round trip.
type BudgetAlertMessage struct {
	EventID           string    `json:"event_id"`
	Kind              string    `json:"kind"`
	UserID            int64     `json:"user_id"`
	CategoryName      string    `json:"category_name"`
	BudgetAmountCents int64     `json:"budget_amount_cents"`
	AmountCents       int64     `json:"amount_cents"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage stamps a fresh event ID and timestamp.
// amountCents is the remaining amount for a near-limit alert and the
// excess over the budget for an exceeded alert.
func NewBudgetAlertMessage(kind string, userID int64, categoryName string, budgetAmountCents, amountCents int64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		EventID:           uuid.NewString(),
		Kind:              kind,
		UserID:            userID,
		CategoryName:      categoryName,
		BudgetAmountCents: budgetAmountCents,
		AmountCents:       amountCents,
		Timestamp:         time.Now().UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
