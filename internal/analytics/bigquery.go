package analytics

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"budgetpipe/internal/domain"
)

// ChangeRow is one transaction change event in the warehouse table. The
// table is partitioned on event_date.
type ChangeRow struct {
	EventID   string     `bigquery:"event_id"`
	Event     string     `bigquery:"event"`
	EventTS   time.Time  `bigquery:"event_ts"`
	EventDate civil.Date `bigquery:"event_date"`

	PK string `bigquery:"pk"`
	SK string `bigquery:"sk"`

	StatementID     string  `bigquery:"statement_id"`
	Issuer          string  `bigquery:"issuer"`
	CardLast4       string  `bigquery:"card_last4"`
	MerchantRaw     string  `bigquery:"merchant_raw"`
	MerchantNorm    string  `bigquery:"merchant_norm"`
	Amount          float64 `bigquery:"amount"`
	Memo            string  `bigquery:"memo"`
	Category        string  `bigquery:"category"`
	Confidence      float64 `bigquery:"confidence"`
	ManuallyUpdated bool    `bigquery:"manually_updated"`
}

// BigQueryMirror streams change rows into a BigQuery table.
type BigQueryMirror struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryMirror creates a mirror writing to project.dataset.table.
func NewBigQueryMirror(ctx context.Context, projectID, dataset, table string) (*BigQueryMirror, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryMirror: creating client: %w", err)
	}
	return &BigQueryMirror{client: client, dataset: dataset, table: table}, nil
}

// Close releases the underlying client.
func (m *BigQueryMirror) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// Record implements Mirror. The event date partition comes from the date
// embedded in the transaction's sort key, falling back to the event time for
// malformed keys.
func (m *BigQueryMirror) Record(ctx context.Context, event string, txn *domain.Transaction) error {
	now := time.Now()

	eventDate := civil.DateOf(now)
	if d := domain.TransactionDate(txn.SK); d != "" {
		if parsed, err := time.Parse("2006-01-02", d); err == nil {
			eventDate = civil.DateOf(parsed)
		}
	}

	row := &ChangeRow{
		EventID:         uuid.NewString(),
		Event:           event,
		EventTS:         now,
		EventDate:       eventDate,
		PK:              txn.PK,
		SK:              txn.SK,
		StatementID:     txn.StatementID,
		Issuer:          txn.Issuer,
		CardLast4:       txn.CardLast4,
		MerchantRaw:     txn.MerchantRaw,
		MerchantNorm:    txn.MerchantNorm,
		Amount:          txn.Amount,
		Memo:            txn.Memo,
		Category:        txn.Category,
		Confidence:      txn.Confidence,
		ManuallyUpdated: txn.ManuallyUpdated,
	}

	inserter := m.client.Dataset(m.dataset).Table(m.table).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("BigQueryMirror.Record: inserting row: %w", err)
	}
	return nil
}

// RecentChanges reads change rows recorded since the given instant, newest
// first. Used by reporting tools, not by the pipeline.
func (m *BigQueryMirror) RecentChanges(ctx context.Context, since time.Time, limit int) ([]*ChangeRow, error) {
	q := m.client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		WHERE event_ts >= @since
		ORDER BY event_ts DESC
		LIMIT @limit
	`, m.dataset, m.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "since", Value: since},
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("RecentChanges: running query: %w", err)
	}

	var rows []*ChangeRow
	for {
		var row ChangeRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("RecentChanges: reading row: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

var _ Mirror = (*BigQueryMirror)(nil)
