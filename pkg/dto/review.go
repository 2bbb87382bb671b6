// Package dto holds the JSON request and response bodies of the HTTP API.
package dto

type UploadImage struct {
	Filename string `json:"filename"`
	Label    string `json:"label"`
	File     string `json:"file"`
}

type UploadRequest struct {
	Images []UploadImage `json:"images"`
}

// UploadedItem keeps the capitalised "Name" key existing clients read.
type UploadedItem struct {
	Name   string `json:"Name"`
	Status string `json:"status"`
	Label  string `json:"label"`
}

type UploadResponse struct {
	Uploaded []UploadedItem `json:"uploaded"`
}

type CatalogResponse struct {
	NameList []string `json:"name_list"`
}

type ReviewDecision struct {
	Filename      string `json:"filename"`
	Status        string `json:"status"`
	FailureReason string `json:"failureReason"`
	CustomReason  string `json:"customReason"`
}

type ReviewRequest struct {
	Reviews []ReviewDecision `json:"reviews"`
}

type ReviewResponse struct {
	Updated int `json:"updated"`
}

type PendingImage struct {
	Filename  string `json:"filename"`
	Label     string `json:"label"`
	ImageData string `json:"imageData"`
}

type PendingResponse struct {
	Images []PendingImage `json:"images"`
}

type HistoryEntry struct {
	Filename  string `json:"filename"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Label     string `json:"label"`
	ImageData string `json:"imageData"`
	Reason    string `json:"reason,omitempty"`
}

type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
