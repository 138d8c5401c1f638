package config

import "time"

// 生成バックエンド名
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// GeminiConfig は、Gemini API関連の設定を定義します
// APIキーは呼び出しのたびに環境変数から読むため、ここには持ちません
type GeminiConfig struct {
	APIKeyEnv   []string `env:"GEMINI_API_KEY_ENV" envSeparator:"," envDefault:"GEMINI_API_KEY,API_KEY"`
	BaseURL     string   `env:"GEMINI_BASE_URL"`
	APIVersion  string   `env:"GEMINI_API_VERSION"`
	ModelName   string   `env:"GEMINI_MODEL_NAME" envDefault:"gemini-2.5-flash"`
	MaxTokens   int32    `env:"GEMINI_MAX_TOKENS" envDefault:"2048"`
	Temperature float32  `env:"GEMINI_TEMPERATURE" envDefault:"0.7"`
	TopP        float32  `env:"GEMINI_TOP_P" envDefault:"0.9"`
}

// OpenAIConfig は、OpenAI互換API関連の設定を定義します
type OpenAIConfig struct {
	APIKeyEnv string `env:"OPENAI_API_KEY_ENV" envDefault:"OPENAI_API_KEY"`
	BaseURL   string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model     string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	MaxTokens int64  `env:"OPENAI_MAX_TOKENS" envDefault:"2048"`
}

// PromptConfig は、プロンプト生成処理の設定を定義します
type PromptConfig struct {
	Backend         string        `env:"GENERATION_BACKEND" envDefault:"gemini"`
	Instruction     string        `env:"PROMPT_INSTRUCTION"`
	InstructionFile string        `env:"PROMPT_INSTRUCTION_FILE"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`
	MaxImageBytes   int64         `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
	CopyFeedback    time.Duration `env:"COPY_FEEDBACK_DURATION" envDefault:"2s"`
}

// ServerConfig は、HTTPサーバー関連の設定を定義します
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Timeout         time.Duration `env:"SERVER_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"50"`
}

// DiscordConfig は、Discord関連の設定を定義します
// BotTokenが空の場合、Discord連携は起動しません
type DiscordConfig struct {
	BotToken string `env:"DISCORD_BOT_TOKEN"`
	GuildID  string `env:"DISCORD_GUILD_ID"`
}

// Enabled は、Discord連携が有効かどうかを返します
func (c DiscordConfig) Enabled() bool {
	return c.BotToken != ""
}

// DefaultGeminiConfig は、デフォルトのGemini設定を返します
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		APIKeyEnv:   []string{"GEMINI_API_KEY", "API_KEY"},
		ModelName:   "gemini-2.5-flash",
		MaxTokens:   2048,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

// DefaultOpenAIConfig は、デフォルトのOpenAI設定を返します
func DefaultOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		APIKeyEnv: "OPENAI_API_KEY",
		BaseURL:   "https://api.openai.com/v1",
		Model:     "gpt-4o-mini",
		MaxTokens: 2048,
	}
}
