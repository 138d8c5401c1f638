package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"imageprompt/internal/domain"
	"imageprompt/internal/infrastructure/config"

	"github.com/bytedance/sonic"
)

const successResponse = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "{\"turkish\": \"Bir kedi...\", \"english\": \"A cat...\"}"}]},
    "finishReason": "STOP"
  }]
}`

// newTestServer は、generateContentへのリクエストに固定の応答を返すテストサーバーを作成します
func newTestServer(t *testing.T, status int, body string, hits *atomic.Int32, captured *[]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("予期しないパス: %s", r.URL.Path)
		}
		if hits != nil {
			hits.Add(1)
		}
		if captured != nil {
			*captured, _ = io.ReadAll(r.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(serverURL string, apiKey string) *PromptClient {
	cfg := config.DefaultGeminiConfig()
	cfg.BaseURL = serverURL + "/"
	cfg.APIVersion = "v1beta"
	return NewPromptClient(cfg, func() string { return apiKey }, nil)
}

func newTestRequest(t *testing.T) domain.GenerationRequest {
	t.Helper()
	image := &domain.UploadedImage{Name: "cat.jpg", MIMEType: "image/jpeg", Data: []byte("jpeg-bytes")}
	request, err := domain.NewGenerationRequest(image, "")
	if err != nil {
		t.Fatalf("リクエストの作成に失敗: %v", err)
	}
	return request
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultGeminiConfig()

	if cfg.ModelName != "gemini-2.5-flash" {
		t.Errorf("期待されるModelName: gemini-2.5-flash, 実際: %s", cfg.ModelName)
	}
	if cfg.MaxTokens != 2048 {
		t.Errorf("期待されるMaxTokens: 2048, 実際: %d", cfg.MaxTokens)
	}
	if len(cfg.APIKeyEnv) != 2 || cfg.APIKeyEnv[0] != "GEMINI_API_KEY" || cfg.APIKeyEnv[1] != "API_KEY" {
		t.Errorf("期待されるAPIKeyEnv: [GEMINI_API_KEY API_KEY], 実際: %v", cfg.APIKeyEnv)
	}
}

func TestEnvCredential(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "")
	t.Setenv("TEST_FALLBACK_KEY", "fallback")

	credential := EnvCredential("TEST_PRIMARY_KEY", "TEST_FALLBACK_KEY")
	if got := credential(); got != "fallback" {
		t.Errorf("期待される値: fallback, 実際: %s", got)
	}

	// 呼び出し時点の値を参照すること
	t.Setenv("TEST_PRIMARY_KEY", "primary")
	if got := credential(); got != "primary" {
		t.Errorf("期待される値: primary, 実際: %s", got)
	}
}

func TestPromptClient_GeneratePrompts_Success(t *testing.T) {
	var hits atomic.Int32
	var body []byte
	server := newTestServer(t, http.StatusOK, successResponse, &hits, &body)
	client := newTestClient(server.URL, "test-api-key")

	prompts, err := client.GeneratePrompts(context.Background(), newTestRequest(t))
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if prompts.Turkish != "Bir kedi..." {
		t.Errorf("期待されるTurkish: Bir kedi..., 実際: %s", prompts.Turkish)
	}
	if prompts.English != "A cat..." {
		t.Errorf("期待されるEnglish: A cat..., 実際: %s", prompts.English)
	}
	if hits.Load() != 1 {
		t.Errorf("期待されるリクエスト回数: 1, 実際: %d", hits.Load())
	}

	// リクエストには画像と指示文、JSONスキーマが含まれること
	var sent map[string]any
	if err := sonic.Unmarshal(body, &sent); err != nil {
		t.Fatalf("リクエストボディの解析に失敗: %v", err)
	}
	raw := string(body)
	for _, want := range []string{"inlineData", "image/jpeg", "application/json", "turkish", "english"} {
		if !strings.Contains(raw, want) {
			t.Errorf("リクエストに %q が含まれていません", want)
		}
	}
}

func TestPromptClient_GeneratePrompts_MissingCredential(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, http.StatusOK, successResponse, &hits, nil)
	client := newTestClient(server.URL, "")

	_, err := client.GeneratePrompts(context.Background(), newTestRequest(t))
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("認証情報なしエラーが期待されました: %v", err)
	}
	if kind := domain.KindOf(err); kind != domain.KindConfiguration {
		t.Errorf("期待される分類: configuration, 実際: %s", kind)
	}
	if hits.Load() != 0 {
		t.Errorf("認証情報がない場合は通信してはいけません: %d回", hits.Load())
	}
}

func TestPromptClient_GeneratePrompts_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domain.ErrorKind
	}{
		{
			name:     "サーバーエラー",
			status:   http.StatusInternalServerError,
			body:     `{"error": {"code": 500, "message": "internal", "status": "INTERNAL"}}`,
			wantKind: domain.KindTransport,
		},
		{
			name:     "englishが欠けている",
			status:   http.StatusOK,
			body:     `{"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"turkish\": \"...\"}"}]}, "finishReason": "STOP"}]}`,
			wantKind: domain.KindSchema,
		},
		{
			name:     "JSONではない応答",
			status:   http.StatusOK,
			body:     `{"candidates": [{"content": {"role": "model", "parts": [{"text": "not json"}]}, "finishReason": "STOP"}]}`,
			wantKind: domain.KindSchema,
		},
		{
			name:     "安全フィルター",
			status:   http.StatusOK,
			body:     `{"candidates": [{"finishReason": "SAFETY", "safetyRatings": [{"category": "HARM_CATEGORY_HARASSMENT", "probability": "HIGH"}]}]}`,
			wantKind: domain.KindTransport,
		},
		{
			name:     "候補なし",
			status:   http.StatusOK,
			body:     `{"candidates": []}`,
			wantKind: domain.KindTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil, nil)
			client := newTestClient(server.URL, "test-api-key")

			prompts, err := client.GeneratePrompts(context.Background(), newTestRequest(t))
			if err == nil {
				t.Fatal("エラーが期待されましたが、発生しませんでした")
			}
			if prompts != nil {
				t.Errorf("失敗時に結果が返されました: %+v", prompts)
			}
			if kind := domain.KindOf(err); kind != tt.wantKind {
				t.Errorf("期待される分類: %s, 実際: %s (%v)", tt.wantKind, kind, err)
			}
		})
	}
}

func TestBuildContents(t *testing.T) {
	contents, err := buildContents(newTestRequest(t))
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if len(contents) != 1 {
		t.Fatalf("期待されるコンテンツ数: 1, 実際: %d", len(contents))
	}
	parts := contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("期待されるパート数: 2, 実際: %d", len(parts))
	}
	if parts[0].InlineData == nil || string(parts[0].InlineData.Data) != "jpeg-bytes" {
		t.Error("最初のパートは画像である必要があります")
	}
	if parts[1].Text != domain.DefaultInstruction {
		t.Error("2番目のパートは指示文である必要があります")
	}
}

func TestBuildContents_InvalidBase64(t *testing.T) {
	request := newTestRequest(t)
	request.ImageBase64 = "%%%"

	if _, err := buildContents(request); domain.KindOf(err) != domain.KindInput {
		t.Errorf("入力エラーが期待されました: %v", err)
	}
}

func TestCreateGenerateConfig(t *testing.T) {
	client := NewPromptClient(nil, func() string { return "" }, nil)

	generateConfig := client.createGenerateConfig(domain.PromptsSchema())
	if generateConfig.ResponseMIMEType != "application/json" {
		t.Errorf("期待されるResponseMIMEType: application/json, 実際: %s", generateConfig.ResponseMIMEType)
	}
	if generateConfig.Temperature == nil || *generateConfig.Temperature != 0.7 {
		t.Error("Temperatureが設定されていません")
	}
	if generateConfig.MaxOutputTokens != 2048 {
		t.Errorf("期待されるMaxOutputTokens: 2048, 実際: %d", generateConfig.MaxOutputTokens)
	}
	if len(generateConfig.SafetySettings) != 4 {
		t.Errorf("期待される安全設定数: 4, 実際: %d", len(generateConfig.SafetySettings))
	}
}
