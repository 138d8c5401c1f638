package configs

import (
	"fmt"
	"os"
	"strings"

	"imageprompt/internal/infrastructure/config"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config は、アプリケーション全体の設定を定義します
type Config struct {
	DebugMode bool `env:"DEBUG_MODE"`
	Server    config.ServerConfig
	Prompt    config.PromptConfig
	Gemini    config.GeminiConfig
	OpenAI    config.OpenAIConfig
	Discord   config.DiscordConfig
}

// LoadConfig は、.envファイルと環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込み（ファイルが存在しない場合は無視）
	if err := godotenv.Load(); err != nil {
		fmt.Printf("警告: .envファイルの読み込みに失敗しました: %v\n", err)
	}

	return parseConfig()
}

// parseConfig は、環境変数から設定を組み立てて検証します
func parseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}

	if cfg.Prompt.InstructionFile != "" {
		data, err := os.ReadFile(cfg.Prompt.InstructionFile)
		if err != nil {
			return nil, fmt.Errorf("PROMPT_INSTRUCTION_FILE の読み込みに失敗: %w", err)
		}
		cfg.Prompt.Instruction = string(data)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は、設定の妥当性を検証します
// APIキーは呼び出し時に確認するため、ここでは検証しません
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("SERVER_PORT が設定されていません")
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT は正の値である必要があります")
	}

	if c.Server.ThrottleLimit <= 0 {
		return fmt.Errorf("SERVER_THROTTLE_LIMIT は正の整数である必要があります")
	}

	if c.Prompt.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT は正の値である必要があります")
	}

	if c.Prompt.CopyFeedback <= 0 {
		return fmt.Errorf("COPY_FEEDBACK_DURATION は正の値である必要があります")
	}

	if c.Prompt.MaxImageBytes < 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES は0以上である必要があります")
	}

	switch c.Prompt.Backend {
	case config.BackendGemini:
		if c.Gemini.ModelName == "" {
			return fmt.Errorf("GEMINI_MODEL_NAME が設定されていません")
		}
		if len(c.Gemini.APIKeyEnv) == 0 {
			return fmt.Errorf("GEMINI_API_KEY_ENV が設定されていません")
		}
	case config.BackendOpenAI:
		if c.OpenAI.Model == "" {
			return fmt.Errorf("OPENAI_MODEL が設定されていません")
		}
		if c.OpenAI.APIKeyEnv == "" {
			return fmt.Errorf("OPENAI_API_KEY_ENV が設定されていません")
		}
	default:
		return fmt.Errorf("GENERATION_BACKEND は %s または %s である必要があります: %s", config.BackendGemini, config.BackendOpenAI, c.Prompt.Backend)
	}

	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE は0から2の範囲である必要があります")
	}

	if c.Gemini.TopP < 0 || c.Gemini.TopP > 1 {
		return fmt.Errorf("GEMINI_TOP_P は0から1の範囲である必要があります")
	}

	return nil
}
