package application

import (
	"context"

	"imageprompt/internal/domain"
)

// PromptGenerator は、外部の生成サービスと通信するクライアントのインターフェースです
type PromptGenerator interface {
	// GeneratePrompts は、リクエストを送信して2つのプロンプトを返します
	GeneratePrompts(ctx context.Context, request domain.GenerationRequest) (*domain.GeneratedPrompts, error)
}

// Clipboard は、コピー先のクリップボードです（書き込みのみ）
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}
