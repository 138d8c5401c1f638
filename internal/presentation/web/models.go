package web

import "imageprompt/internal/domain"

// ErrorResponse は、エラー時のレスポンスです
type ErrorResponse struct {
	Error string `json:"error" example:"Lütfen önce bir resim yükleyin."`
}

// PromptsResponse は、生成された2つのプロンプトです
type PromptsResponse struct {
	Turkish string `json:"turkish" example:"Bir kedi..."`
	English string `json:"english" example:"A cat..."`
}

// CopyResponse は、クリップボードに書き込むテキストです
type CopyResponse struct {
	Language       domain.Language `json:"language" example:"turkish"`
	Text           string          `json:"text"`
	FeedbackMillis int64           `json:"feedback_ms" example:"2000"`
}

// HealthResponse は、ヘルスチェックのレスポンスです
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

func newPromptsResponse(prompts *domain.GeneratedPrompts) PromptsResponse {
	return PromptsResponse{Turkish: prompts.Turkish, English: prompts.English}
}
