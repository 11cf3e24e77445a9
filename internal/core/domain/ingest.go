package domain

// Deputy identifies one member of parliament in the open-data API.
type Deputy struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Party string `json:"party"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Year     int `json:"year"`
	Deputies int `json:"deputies"`
	Expenses int `json:"expenses"`
	Skipped  int `json:"skipped"`
}
