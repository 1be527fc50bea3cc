package domain

import (
	"strings"
	"time"
)

// CategoryUnassigned is the sentinel category for transactions that have not
// been classified automatically or by hand.
const CategoryUnassigned = "UNASSIGNED"

// Transaction is one extracted statement line item. Records are keyed by
// (PK, SK); the sort key embeds the transaction date and the statement-scoped
// ordinal, so a user's transactions sort chronologically.
type Transaction struct {
	PK string `bson:"pk" json:"pk"`
	SK string `bson:"sk" json:"sk"`

	StatementID string `bson:"statement_id" json:"statementId"`
	Issuer      string `bson:"issuer" json:"issuer"`
	CardLast4   string `bson:"card_last4" json:"cardLast4"`

	MerchantRaw  string  `bson:"merchant_raw" json:"merchantRaw"`
	MerchantNorm string  `bson:"merchant_norm" json:"merchantNorm"`
	Amount       float64 `bson:"amount" json:"amount"`
	Memo         string  `bson:"memo" json:"memo"`

	Category        string  `bson:"category" json:"category"`
	Confidence      float64 `bson:"confidence" json:"confidence"`
	ManuallyUpdated bool    `bson:"manually_updated" json:"manuallyUpdated"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserID recovers the owning user from the partition key.
func (t *Transaction) UserID() string {
	return strings.TrimPrefix(t.PK, userKeyPrefix)
}

// NewTransaction builds an UNASSIGNED transaction for one extracted line item.
// index is the item's ordinal within the extraction batch.
func NewTransaction(userID, statementID, issuer, cardLast4 string, index int, date, merchant string, amount float64, memo string, now time.Time) *Transaction {
	return &Transaction{
		PK:           UserPK(userID),
		SK:           TransactionSK(date, statementID, index),
		StatementID:  statementID,
		Issuer:       issuer,
		CardLast4:    cardLast4,
		MerchantRaw:  merchant,
		MerchantNorm: strings.ToUpper(strings.TrimSpace(merchant)),
		Amount:       amount,
		Memo:         memo,
		Category:     CategoryUnassigned,
		Confidence:   0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
