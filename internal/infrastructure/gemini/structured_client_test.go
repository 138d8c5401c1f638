package gemini

import (
	"testing"

	"imageprompt/internal/domain"

	"google.golang.org/genai"
)

func TestToGenaiSchema(t *testing.T) {
	schema := toGenaiSchema(domain.PromptsSchema())

	if schema.Type != genai.TypeObject {
		t.Errorf("期待される型: OBJECT, 実際: %s", schema.Type)
	}
	for _, name := range []string{"turkish", "english"} {
		property, ok := schema.Properties[name]
		if !ok {
			t.Errorf("プロパティ %s がありません", name)
			continue
		}
		if property.Type != genai.TypeString {
			t.Errorf("%s の期待される型: STRING, 実際: %s", name, property.Type)
		}
	}
	if len(schema.Required) != 2 {
		t.Errorf("期待される必須フィールド数: 2, 実際: %d", len(schema.Required))
	}
	if len(schema.PropertyOrdering) != 2 || schema.PropertyOrdering[0] != "turkish" {
		t.Errorf("期待されるプロパティ順: [turkish english], 実際: %v", schema.PropertyOrdering)
	}
}

func TestFormatSafetyRatings(t *testing.T) {
	if got := formatSafetyRatings(nil); got != "詳細情報なし" {
		t.Errorf("期待される値: 詳細情報なし, 実際: %s", got)
	}

	got := formatSafetyRatings([]*genai.SafetyRating{
		{Category: genai.HarmCategoryHarassment, Probability: genai.HarmProbabilityHigh},
	})
	if got != "[HARM_CATEGORY_HARASSMENT: HIGH]" {
		t.Errorf("期待されない値: %s", got)
	}
}
