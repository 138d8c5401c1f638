package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"imageprompt/internal/domain"
	"imageprompt/internal/infrastructure/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// CredentialFunc は、呼び出し時点の認証情報を返す関数です
type CredentialFunc func() string

// ClientFactory は、APIキーからgenai.Clientを作成する関数です
type ClientFactory func(ctx context.Context, apiKey string) (*genai.Client, error)

// EnvCredential は、keysの順に環境変数を参照し、最初に見つかった値を返します
func EnvCredential(keys ...string) CredentialFunc {
	return func() string {
		for _, key := range keys {
			if value := strings.TrimSpace(os.Getenv(key)); value != "" {
				return value
			}
		}
		return ""
	}
}

// PromptClient は、Gemini APIに画像を送りプロンプトを生成するクライアントです
type PromptClient struct {
	config     *config.GeminiConfig
	credential CredentialFunc
	factory    ClientFactory
	logger     *zap.SugaredLogger
}

// NewPromptClient は新しいPromptClientインスタンスを作成します
// credentialがnilの場合は設定された環境変数から読み込みます
func NewPromptClient(geminiConfig *config.GeminiConfig, credential CredentialFunc, logger *zap.SugaredLogger) *PromptClient {
	if geminiConfig == nil {
		geminiConfig = config.DefaultGeminiConfig()
	}
	if credential == nil {
		credential = EnvCredential(geminiConfig.APIKeyEnv...)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	c := &PromptClient{
		config:     geminiConfig,
		credential: credential,
		logger:     logger,
	}
	c.factory = c.newGenaiClient
	return c
}

// newGenaiClient は、設定に従ってgenai.Clientを作成します
func (c *PromptClient) newGenaiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.config.BaseURL != "" || c.config.APIVersion != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{
			BaseURL:    c.config.BaseURL,
			APIVersion: c.config.APIVersion,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}
	return client, nil
}

// GeneratePrompts は、画像と指示文をGemini APIに送信し、2つのプロンプトを返します
// リトライは行いません
func (c *PromptClient) GeneratePrompts(ctx context.Context, request domain.GenerationRequest) (*domain.GeneratedPrompts, error) {
	apiKey := c.credential()
	if apiKey == "" {
		return nil, domain.NewConfigurationError(domain.ErrMissingCredential)
	}

	contents, err := buildContents(request)
	if err != nil {
		return nil, err
	}

	client, err := c.factory(ctx, apiKey)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}

	generateConfig := c.createGenerateConfig(request.Schema)

	c.logger.Debugw("Gemini APIにプロンプト生成をリクエスト中",
		"model", c.config.ModelName,
		"mime_type", request.MIMEType,
		"image_base64_length", len(request.ImageBase64),
		"instruction_length", len(request.Instruction))

	resp, err := client.Models.GenerateContent(ctx, c.config.ModelName, contents, generateConfig)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.NewTransportError(fmt.Errorf("Gemini APIへのリクエストがタイムアウトしました: %w", err))
		}
		return nil, domain.NewTransportError(fmt.Errorf("Gemini APIからの応答取得に失敗: %w", err))
	}

	text, err := c.processResponse(resp)
	if err != nil {
		return nil, err
	}

	return domain.ParseGeneratedPrompts(text)
}

// processResponse は、Gemini APIのレスポンスからテキストを取り出します
func (c *PromptClient) processResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", domain.NewTransportError(fmt.Errorf("Gemini APIがリクエストをブロックしました: %s", resp.PromptFeedback.BlockReason))
		}
		return "", domain.NewTransportError(fmt.Errorf("Gemini APIから有効な応答が得られませんでした"))
	}

	candidate := resp.Candidates[0]
	c.logger.Debugw("Gemini APIレスポンス", "candidates", len(resp.Candidates), "finish_reason", candidate.FinishReason)

	// FinishReasonをチェックして安全フィルターによるブロックを検出
	switch candidate.FinishReason {
	case genai.FinishReasonSafety:
		return "", domain.NewTransportError(fmt.Errorf("Gemini APIの安全フィルターによって応答がブロックされました。詳細: %s", formatSafetyRatings(candidate.SafetyRatings)))
	case genai.FinishReasonRecitation:
		return "", domain.NewTransportError(fmt.Errorf("Gemini APIが著作権保護された内容を検出しました"))
	case genai.FinishReasonMaxTokens:
		return "", domain.NewSchemaError(fmt.Errorf("Gemini APIの応答が最大トークン数に達しました"))
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", domain.NewTransportError(fmt.Errorf("Gemini APIの応答にコンテンツが含まれていません。FinishReason: %s", candidate.FinishReason))
	}

	// テキスト部分を抽出
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			builder.WriteString(part.Text)
		}
	}

	return builder.String(), nil
}
