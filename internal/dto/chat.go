package dto

type ChatRequest struct {
	DocumentID string `json:"document_id" validate:"required,uuid"`
	Message    string `json:"message" validate:"required,max=4000"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ChatMessageResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
	Response   string `json:"response"`
	CreatedAt  string `json:"created_at"`
}
