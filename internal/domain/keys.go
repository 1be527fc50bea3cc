package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const userKeyPrefix = "USER#"

var (
	txnDateRe      = regexp.MustCompile(`DATE#(\d{4}-\d{2}-\d{2})`)
	categoryNameRe = regexp.MustCompile(`^[A-Z_]+$`)
)

// UserPK builds the partition key owning all of a user's records.
func UserPK(userID string) string {
	return userKeyPrefix + userID
}

// TransactionSK builds the composite sort key for a transaction. The key
// sorts chronologically first, then by statement and ordinal, so two
// statements ingested for the same user can never collide.
func TransactionSK(date, statementID string, index int) string {
	return fmt.Sprintf("DATE#%s#TXN#%s-%d", date, statementID, index)
}

// StatementSK builds the sort key for a statement record.
func StatementSK(statementID string) string {
	return "STATEMENT#" + statementID
}

// CategorySK builds the sort key for a category record.
func CategorySK(name string) string {
	return "CATEGORY#" + name
}

// ValidTransactionSK reports whether sk has the DATE#...#TXN#... shape
// produced by TransactionSK.
func ValidTransactionSK(sk string) bool {
	return strings.HasPrefix(sk, "DATE#") && strings.Contains(sk, "#TXN#")
}

// TransactionDate extracts the YYYY-MM-DD date embedded in a transaction
// sort key, or "" when the key is malformed.
func TransactionDate(sk string) string {
	m := txnDateRe.FindStringSubmatch(sk)
	if m == nil {
		return ""
	}
	return m[1]
}

// ValidCategoryName reports whether name is an uppercase token usable as a
// classification target.
func ValidCategoryName(name string) bool {
	return categoryNameRe.MatchString(name)
}
