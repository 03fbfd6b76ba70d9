package dto

// DimensionReport is the decoded view of one analysis dimension.
type DimensionReport struct {
	Score      *float64               `json:"score"`
	Feedback   string                 `json:"feedback,omitempty"`
	Data       map[string]interface{} `json:"data"`
	DataStatus string                 `json:"data_status"`
}

// CitationSummary exposes the citation counters dashboards chart directly.
type CitationSummary struct {
	TotalCitations   int `json:"total_citations"`
	CorrectCitations int `json:"correct_citations"`
}

// ConsolidatedReportResponse merges every analysis dimension for one chapter
// version. DataStatus reflects the worst recovery outcome across dimensions so
// callers can render a degraded-data warning.
type ConsolidatedReportResponse struct {
	GroupID       uint                       `json:"group_id"`
	ChapterNumber int                        `json:"chapter_number"`
	Version       int                        `json:"version"`
	Status        string                     `json:"status"`
	ReviewScore   *float64                   `json:"review_score"`
	Dimensions    map[string]DimensionReport `json:"dimensions"`
	Citations     CitationSummary            `json:"citations"`
	DataStatus    string                     `json:"data_status"`
}
