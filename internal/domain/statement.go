package domain

import "time"

// Statement lifecycle statuses.
const (
	StatementPending = "PENDING"
	StatementParsed  = "PARSED"
	StatementFailed  = "FAILED"
)

// Statement is one uploaded financial document and its processing lifecycle.
// Created PENDING when ingestion starts; the finalize stage writes the
// terminal status exactly once.
type Statement struct {
	PK string `bson:"pk" json:"pk"`
	SK string `bson:"sk" json:"sk"`

	StatementID   string `bson:"statement_id" json:"statementId"`
	DocumentKey   string `bson:"document_key" json:"documentKey"`
	Issuer        string `bson:"issuer" json:"issuer"`
	CardLast4     string `bson:"card_last4" json:"cardLast4"`
	Status        string `bson:"status" json:"status"`
	FailureCause  string `bson:"failure_cause,omitempty" json:"failureCause,omitempty"`
	LineItemCount int    `bson:"line_item_count" json:"lineItemCount"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// NewStatement builds a PENDING statement record for a freshly submitted
// ingestion request.
func NewStatement(userID, statementID, documentKey, issuer, cardLast4 string, now time.Time) *Statement {
	return &Statement{
		PK:          UserPK(userID),
		SK:          StatementSK(statementID),
		StatementID: statementID,
		DocumentKey: documentKey,
		Issuer:      issuer,
		CardLast4:   cardLast4,
		Status:      StatementPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
