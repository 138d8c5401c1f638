package gemini

import (
	"encoding/base64"
	"fmt"

	"imageprompt/internal/domain"

	"google.golang.org/genai"
)

// buildContents は、インライン画像と指示文からなる1つのユーザーコンテンツを作成します
func buildContents(request domain.GenerationRequest) ([]*genai.Content, error) {
	data, err := base64.StdEncoding.DecodeString(request.ImageBase64)
	if err != nil {
		return nil, domain.NewInputError(fmt.Errorf("画像のBase64デコードに失敗: %w", err))
	}
	if len(data) == 0 {
		return nil, domain.NewInputError(domain.ErrNoImage)
	}

	return []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{
					InlineData: &genai.Blob{
						MIMEType: request.MIMEType,
						Data:     data,
					},
				},
				{Text: request.Instruction},
			},
		},
	}, nil
}

// createGenerateConfig は、構造化出力を要求する生成設定を作成します
func (c *PromptClient) createGenerateConfig(schema domain.ResponseSchema) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(schema),
		SafetySettings:   createSafetySettings(),
	}

	if c.config.MaxTokens > 0 {
		config.MaxOutputTokens = c.config.MaxTokens
	}
	if c.config.Temperature > 0 {
		temperature := c.config.Temperature
		config.Temperature = &temperature
	}
	if c.config.TopP > 0 {
		topP := c.config.TopP
		config.TopP = &topP
	}

	return config
}

// createSafetySettings は、安全フィルター設定を作成します
func createSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
	}
}

// formatSafetyRatings は、SafetyRatingsの詳細情報をフォーマットします
func formatSafetyRatings(ratings []*genai.SafetyRating) string {
	var details []string
	for _, rating := range ratings {
		if rating != nil {
			details = append(details, fmt.Sprintf("%s: %s", rating.Category, rating.Probability))
		}
	}

	if len(details) == 0 {
		return "詳細情報なし"
	}

	return fmt.Sprintf("%v", details)
}
