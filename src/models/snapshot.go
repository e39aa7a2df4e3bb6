package models

// GroupCount is one bucket of a GROUP BY aggregate (per type or per category).
type GroupCount struct {
	Key         string  `json:"key"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// MonthlyTrend is one month bucket of the trend aggregate.
type MonthlyTrend struct {
	Month         string  `json:"month"` // "2006-01"
	Count         int     `json:"count"`
	TotalAmount   float64 `json:"total_amount"`
	AvgAmount     float64 `json:"avg_amount"`
	CashInCount   int     `json:"cash_in_count"`
	CashOutCount  int     `json:"cash_out_count"`
	CashInAmount  float64 `json:"cash_in_amount"`
	CashOutAmount float64 `json:"cash_out_amount"`
}

// AggregateSnapshot is the derived dashboard document. It is fully
// recomputable from the transaction set and regenerated wholesale after
// every successful batch; it is never updated incrementally.
type AggregateSnapshot struct {
	Transactions []Transaction     `json:"transactions"`
	Stats        map[string]string `json:"stats"`
	ByType       []GroupCount      `json:"by_type"`
	ByCategory   []GroupCount      `json:"by_category"`
	MonthlyTrend []MonthlyTrend    `json:"monthly_trend"`
	GeneratedAt  string            `json:"generated_at"`
}

// IngestReport summarizes one pipeline run. Processed always equals
// Loaded + Updated + DeadLettered: every input message is accounted for.
type IngestReport struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source"`
	Filename     string `json:"filename,omitempty"`
	Processed    int    `json:"processed"`
	Loaded       int    `json:"loaded"`
	Updated      int    `json:"updated"`
	DeadLettered int    `json:"dead_lettered"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at"`
}
