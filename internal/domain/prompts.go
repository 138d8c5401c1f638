package domain

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Language は、生成されるプロンプトの言語です
type Language string

const (
	LanguageTurkish Language = "turkish"
	LanguageEnglish Language = "english"
)

// ParseLanguage は、文字列をLanguageに変換します
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageTurkish, "tr":
		return LanguageTurkish, nil
	case LanguageEnglish, "en":
		return LanguageEnglish, nil
	default:
		return "", NewInputError(fmt.Errorf("%w: %s", ErrUnknownLanguage, s))
	}
}

// Label は、画面に表示する見出しを返します
func (l Language) Label() string {
	switch l {
	case LanguageTurkish:
		return "Türkçe Prompt"
	case LanguageEnglish:
		return "English Prompt"
	default:
		return string(l)
	}
}

// GeneratedPrompts は、生成サービスが返す2つのプロンプトです
// 両方がそろって初めて有効な結果となります
type GeneratedPrompts struct {
	Turkish string `json:"turkish"`
	English string `json:"english"`
}

// Validate は、両方のプロンプトが空でないことを検証します
func (p GeneratedPrompts) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Turkish) == "" {
		missing = append(missing, string(LanguageTurkish))
	}
	if strings.TrimSpace(p.English) == "" {
		missing = append(missing, string(LanguageEnglish))
	}
	if len(missing) > 0 {
		return NewSchemaError(fmt.Errorf("必須フィールドがありません: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// Text は、指定された言語のプロンプトを返します
func (p GeneratedPrompts) Text(lang Language) (string, error) {
	switch lang {
	case LanguageTurkish:
		return p.Turkish, nil
	case LanguageEnglish:
		return p.English, nil
	default:
		return "", NewInputError(fmt.Errorf("%w: %s", ErrUnknownLanguage, lang))
	}
}

// Languages は、表示順の言語一覧を返します
func Languages() []Language {
	return []Language{LanguageTurkish, LanguageEnglish}
}

// promptsPayload は、応答JSONの形です。欠けたフィールドを区別するためポインタで受けます
type promptsPayload struct {
	Turkish *string `json:"turkish"`
	English *string `json:"english"`
}

// ParseGeneratedPrompts は、生成サービスの応答テキストをJSONとして解析します
// ```json で囲まれた応答も受け付けます
func ParseGeneratedPrompts(text string) (*GeneratedPrompts, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, NewSchemaError(fmt.Errorf("応答が空です"))
	}

	var payload promptsPayload
	if err := sonic.UnmarshalString(text, &payload); err != nil {
		return nil, NewSchemaError(fmt.Errorf("応答JSONの解析に失敗: %w", err))
	}

	var missing []string
	if payload.Turkish == nil {
		missing = append(missing, string(LanguageTurkish))
	}
	if payload.English == nil {
		missing = append(missing, string(LanguageEnglish))
	}
	if len(missing) > 0 {
		return nil, NewSchemaError(fmt.Errorf("応答に必須フィールドがありません: %s", strings.Join(missing, ", ")))
	}

	prompts := &GeneratedPrompts{
		Turkish: strings.TrimSpace(*payload.Turkish),
		English: strings.TrimSpace(*payload.English),
	}
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	return prompts, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
