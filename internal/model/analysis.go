package model

import "time"

// AnalyzeTaskPayload is the queued work item for background analysis.
// It is intentionally minimal: the worker re-resolves the job record
// from the store and must not trust duplicated fields beyond the id
// and the path of the temporary upload it has to clean up.
type AnalyzeTaskPayload struct {
	JobID      string `json:"job_id"`
	Query      string `json:"query"`
	SourcePath string `json:"source_path"`
}

// AnalyzeResponse is returned by the synchronous analyze endpoint.
type AnalyzeResponse struct {
	Status        string `json:"status"`
	AnalysisID    string `json:"analysis_id"`
	Query         string `json:"query"`
	Analysis      string `json:"analysis"`
	FileProcessed string `json:"file_processed"`
	OutputFile    string `json:"output_file,omitempty"`
}

// AnalyzeAsyncResponse is returned when a job is accepted for
// background processing.
type AnalyzeAsyncResponse struct {
	Status     string `json:"status"`
	AnalysisID string `json:"analysis_id"`
	Message    string `json:"message"`
}

// AnalysisSummary is one row of the paginated listing. It omits the
// potentially large result/error bodies.
type AnalysisSummary struct {
	AnalysisID  string     `json:"analysis_id"`
	Status      JobStatus  `json:"status"`
	Filename    string     `json:"filename"`
	Query       string     `json:"query"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Summary projects a job into its listing row.
func (j *Job) Summary() AnalysisSummary {
	return AnalysisSummary{
		AnalysisID:  j.ID,
		Status:      j.Status,
		Filename:    j.Filename,
		Query:       j.Query,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
}

// ListParams bounds the listing endpoint's pagination inputs.
type ListParams struct {
	Skip  int `validate:"gte=0"`
	Limit int `validate:"gte=1,lte=100"`
}
