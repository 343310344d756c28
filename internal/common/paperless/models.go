// internal/common/paperless/models.go
package paperless

// Document is the subset of /api/documents/{id}/ the workers read.
type Document struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Correspondent *int64 `json:"correspondent"`
	DocumentType  *int64 `json:"document_type"`
	Created       string `json:"created"`
}

type Correspondent struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type DocumentType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MatchNone disables automatic assignment for correspondents created here.
const MatchNone = 6

type createCorrespondentRequest struct {
	Name              string `json:"name"`
	Match             string `json:"match"`
	MatchingAlgorithm int    `json:"matching_algorithm"`
	Owner             int    `json:"owner"`
	IsInsensitive     bool   `json:"is_insensitive"`
}

type documentListResponse struct {
	Count int     `json:"count"`
	All   []int64 `json:"all"`
}
