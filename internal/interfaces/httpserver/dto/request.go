package dto

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	Title       string `json:"title" binding:"required"`
	Facts       string `json:"facts" binding:"required"`
	CountryCode string `json:"country_code"`
}

// CreateConversationRequest is the body of POST /conversations.
type CreateConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

// RenameConversationRequest is the body of PATCH /conversations/:id.
type RenameConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

// AppendMessageRequest is the body of POST /conversations/:id/messages.
type AppendMessageRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}
