package models

// Filing identifies one disclosure document in the clerk's yearly index.
type Filing struct {
	Year       int    `json:"year"`
	DocumentID string `json:"document_id"`
}
