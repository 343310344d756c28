// internal/workers/paperless/sync-documents/models.go
package syncdocuments

// Input limits the sync to one Paperless document when set.
type Input struct {
	PaperlessDocumentID *int64 `json:"paperlessDocumentId"`
}

type Output struct {
	Added       int     `json:"added"`
	Failed      int     `json:"failed"`
	Skipped     int     `json:"skipped"`
	DocumentIDs []int64 `json:"documentIds"`
}
