// Package openai は、OpenAI互換のChat Completions APIでプロンプトを生成します
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"imageprompt/internal/domain"
	"imageprompt/internal/infrastructure/config"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const schemaName = "image_prompts"

// PromptClient は、OpenAI互換APIに画像を送りプロンプトを生成するクライアントです
type PromptClient struct {
	config     *config.OpenAIConfig
	credential func() string
	logger     *zap.SugaredLogger
}

// NewPromptClient は新しいPromptClientインスタンスを作成します
func NewPromptClient(openaiConfig *config.OpenAIConfig, credential func() string, logger *zap.SugaredLogger) *PromptClient {
	if openaiConfig == nil {
		openaiConfig = config.DefaultOpenAIConfig()
	}
	if credential == nil {
		key := openaiConfig.APIKeyEnv
		credential = func() string { return strings.TrimSpace(os.Getenv(key)) }
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &PromptClient{
		config:     openaiConfig,
		credential: credential,
		logger:     logger,
	}
}

// GeneratePrompts は、画像と指示文を送信し、2つのプロンプトを返します
func (c *PromptClient) GeneratePrompts(ctx context.Context, request domain.GenerationRequest) (*domain.GeneratedPrompts, error) {
	apiKey := c.credential()
	if apiKey == "" {
		return nil, domain.NewConfigurationError(domain.ErrMissingCredential)
	}
	if request.ImageBase64 == "" {
		return nil, domain.NewInputError(domain.ErrNoImage)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.config.BaseURL),
		option.WithMaxRetries(0),
	)

	params := c.buildParams(request)

	c.logger.Debugw("OpenAI互換APIにプロンプト生成をリクエスト中",
		"model", c.config.Model,
		"mime_type", request.MIMEType,
		"image_base64_length", len(request.ImageBase64))

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.NewTransportError(fmt.Errorf("OpenAI互換APIへのリクエストがタイムアウトしました: %w", err))
		}
		return nil, domain.NewTransportError(fmt.Errorf("OpenAI互換APIからの応答取得に失敗: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewTransportError(fmt.Errorf("OpenAI互換APIから有効な応答が得られませんでした"))
	}

	choice := resp.Choices[0]
	c.logger.Debugw("OpenAI互換APIレスポンス", "choices", len(resp.Choices), "finish_reason", choice.FinishReason)

	switch {
	case choice.Message.Refusal != "":
		return nil, domain.NewTransportError(fmt.Errorf("OpenAI互換APIが応答を拒否しました: %s", choice.Message.Refusal))
	case choice.FinishReason == "content_filter":
		return nil, domain.NewTransportError(fmt.Errorf("OpenAI互換APIのコンテンツフィルターによって応答がブロックされました"))
	case choice.FinishReason == "length":
		return nil, domain.NewSchemaError(fmt.Errorf("OpenAI互換APIの応答が最大トークン数に達しました"))
	}

	return domain.ParseGeneratedPrompts(choice.Message.Content)
}

func (c *PromptClient) buildParams(request domain.GenerationRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: request.DataURL(),
				}),
				openai.TextContentPart(request.Instruction),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: toJSONSchema(request.Schema),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	if c.config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.config.MaxTokens)
	}

	return params
}

// toJSONSchema は、ドメインの出力スキーマをJSON Schemaに変換します
func toJSONSchema(schema domain.ResponseSchema) map[string]any {
	properties := make(map[string]any, len(schema.Properties))
	for _, property := range schema.Properties {
		properties[property.Name] = map[string]any{"type": string(property.Type)}
	}

	return map[string]any{
		"type":                 string(schema.Type),
		"properties":           properties,
		"required":             append([]string(nil), schema.Required...),
		"additionalProperties": false,
	}
}
