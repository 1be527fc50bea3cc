// Package extract maps the raw field collections returned by the expense
// analysis service to normalized line items.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field is one typed (role, text) pair detected on a statement row.
type Field struct {
	Type string
	Text string
}

// LineItem is a normalized statement row ready to be persisted.
type LineItem struct {
	Date     string
	Merchant string
	Amount   float64
	Memo     string
}

var nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)

// LineItemFromFields assigns the first non-empty value seen for each semantic
// role: merchant (ITEM/VENDOR/RECEIVER_NAME), amount (PRICE/AMOUNT/TOTAL),
// date (DATE, normalized), memo (DESCRIPTION). When no merchant role matched,
// the first field with non-empty text is used regardless of role.
//
// Rows with an empty merchant or a zero/absent amount are dropped (nil
// return): such rows are almost always detection noise on statement headers
// and footers, so this is a hard filter rather than a warning.
func LineItemFromFields(fields []Field) *LineItem {
	var merchant, date, memo string
	var amount float64

	for _, f := range fields {
		text := f.Text
		switch strings.ToUpper(f.Type) {
		case "ITEM", "VENDOR", "RECEIVER_NAME":
			if merchant == "" && text != "" {
				merchant = text
			}
		case "PRICE", "AMOUNT", "TOTAL":
			if text != "" {
				if n, err := strconv.ParseFloat(nonNumericRe.ReplaceAllString(text, ""), 64); err == nil {
					amount = n
				}
			}
		case "DATE":
			if date == "" && text != "" {
				date = NormalizeDate(text)
			}
		case "DESCRIPTION":
			if text != "" {
				memo = text
			}
		}
	}

	if merchant == "" {
		for _, f := range fields {
			if strings.TrimSpace(f.Text) != "" {
				merchant = f.Text
				break
			}
		}
	}

	if merchant == "" || amount == 0 {
		return nil
	}

	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return &LineItem{
		Date:     date,
		Merchant: strings.TrimSpace(merchant),
		Amount:   amount,
		Memo:     strings.TrimSpace(memo),
	}
}
