package pipeline

import (
	"regexp"
	"strings"
)

var (
	cardLast4Re = regexp.MustCompile(`^\d{4}$`)
	userIDRe    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Validity is the outcome of request validation.
type Validity struct {
	Valid  bool
	Reason string
}

func invalid(reason string) Validity {
	return Validity{Valid: false, Reason: reason}
}

// ValidateRequest checks an ingestion request before any external job is
// started. Pure; never fails with an error of its own.
func ValidateRequest(req Request) Validity {
	if req.UserID == "" {
		return invalid("userId is required")
	}
	if req.StatementID == "" {
		return invalid("statementId is required")
	}
	if req.DocumentKey == "" {
		return invalid("key is required")
	}
	if req.Issuer == "" {
		return invalid("issuer is required")
	}
	if req.CardLast4 == "" {
		return invalid("cardLast4 is required")
	}

	if !cardLast4Re.MatchString(req.CardLast4) {
		return invalid("cardLast4 must be exactly 4 digits")
	}
	if !strings.HasPrefix(req.DocumentKey, "uploads/") || !strings.HasSuffix(req.DocumentKey, ".pdf") {
		return invalid("key must be a PDF file under uploads/")
	}
	if !userIDRe.MatchString(req.UserID) {
		return invalid("userId can only contain alphanumeric characters, underscores, and hyphens")
	}

	return Validity{Valid: true}
}
