package extract

import (
	"testing"
	"time"
)

func TestLineItemFromFields(t *testing.T) {
	item := LineItemFromFields([]Field{
		{Type: "DATE", Text: "3/15/2024"},
		{Type: "ITEM", Text: "STARBUCKS #1234"},
		{Type: "PRICE", Text: "$5.75"},
		{Type: "DESCRIPTION", Text: "coffee"},
	})

	if item == nil {
		t.Fatal("expected line item, got nil")
	}
	if item.Date != "2024-03-15" {
		t.Errorf("Date = %q, want 2024-03-15", item.Date)
	}
	if item.Merchant != "STARBUCKS #1234" {
		t.Errorf("Merchant = %q", item.Merchant)
	}
	if item.Amount != 5.75 {
		t.Errorf("Amount = %v, want 5.75", item.Amount)
	}
	if item.Memo != "coffee" {
		t.Errorf("Memo = %q, want coffee", item.Memo)
	}
}

func TestLineItemFromFields_Filter(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{
			name:   "zero amount dropped",
			fields: []Field{{Type: "ITEM", Text: "HEADER ROW"}, {Type: "PRICE", Text: "0.00"}},
		},
		{
			name:   "missing merchant dropped",
			fields: []Field{{Type: "ITEM", Text: ""}, {Type: "PRICE", Text: "0.00"}},
		},
		{
			name:   "no amount field dropped",
			fields: []Field{{Type: "ITEM", Text: "SOMETHING"}},
		},
		{
			name:   "empty fields dropped",
			fields: []Field{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if item := LineItemFromFields(tt.fields); item != nil {
				t.Errorf("expected nil, got %+v", item)
			}
		})
	}
}

func TestLineItemFromFields_FirstNonEmptyWins(t *testing.T) {
	item := LineItemFromFields([]Field{
		{Type: "VENDOR", Text: ""},
		{Type: "ITEM", Text: "FIRST MERCHANT"},
		{Type: "VENDOR", Text: "SECOND MERCHANT"},
		{Type: "DATE", Text: "2024-01-01"},
		{Type: "DATE", Text: "2024-02-02"},
		{Type: "AMOUNT", Text: "12.30"},
	})

	if item == nil {
		t.Fatal("expected line item, got nil")
	}
	if item.Merchant != "FIRST MERCHANT" {
		t.Errorf("Merchant = %q, want FIRST MERCHANT", item.Merchant)
	}
	if item.Date != "2024-01-01" {
		t.Errorf("Date = %q, want 2024-01-01", item.Date)
	}
}

func TestLineItemFromFields_MerchantFallback(t *testing.T) {
	// No merchant-role field matched; the first non-empty text is used.
	item := LineItemFromFields([]Field{
		{Type: "OTHER", Text: "UNKNOWN VENDOR"},
		{Type: "TOTAL", Text: "-42.00"},
	})

	if item == nil {
		t.Fatal("expected line item, got nil")
	}
	if item.Merchant != "UNKNOWN VENDOR" {
		t.Errorf("Merchant = %q, want UNKNOWN VENDOR", item.Merchant)
	}
	if item.Amount != -42.00 {
		t.Errorf("Amount = %v, want -42.00", item.Amount)
	}
}

func TestLineItemFromFields_DateDefaultsToToday(t *testing.T) {
	item := LineItemFromFields([]Field{
		{Type: "ITEM", Text: "NO DATE MERCHANT"},
		{Type: "PRICE", Text: "9.99"},
	})

	if item == nil {
		t.Fatal("expected line item, got nil")
	}
	if item.Date != time.Now().Format("2006-01-02") {
		t.Errorf("Date = %q, want today", item.Date)
	}
}
