package expense

// JobStatus values reported by the expense analysis service.
type JobStatus string

const (
	StatusInProgress     JobStatus = "IN_PROGRESS"
	StatusSucceeded      JobStatus = "SUCCEEDED"
	StatusFailed         JobStatus = "FAILED"
	StatusPartialSuccess JobStatus = "PARTIAL_SUCCESS"
)

// ExpenseField is one typed value detected on a statement row.
type ExpenseField struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ExpenseLineItem is one detected statement row.
type ExpenseLineItem struct {
	Fields []ExpenseField `json:"lineItemExpenseFields"`
}

// LineItemGroup is a table of detected rows.
type LineItemGroup struct {
	LineItems []ExpenseLineItem `json:"lineItems"`
}

// ExpenseDocument is the analysis output for one detected document.
type ExpenseDocument struct {
	LineItemGroups []LineItemGroup `json:"lineItemGroups"`
}

// ResultPage is one page of an analysis result. NextToken is non-empty while
// more pages remain.
type ResultPage struct {
	JobStatus        JobStatus         `json:"jobStatus"`
	StatusMessage    string            `json:"statusMessage,omitempty"`
	ExpenseDocuments []ExpenseDocument `json:"expenseDocuments,omitempty"`
	NextToken        string            `json:"nextToken,omitempty"`
}
