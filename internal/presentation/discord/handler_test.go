package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"imageprompt/internal/domain"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type mockGenerator struct {
	prompts *domain.GeneratedPrompts
	err     error
	images  []*domain.UploadedImage
}

func (m *mockGenerator) Generate(ctx context.Context, image *domain.UploadedImage) (*domain.GeneratedPrompts, error) {
	m.images = append(m.images, image)
	return m.prompts, m.err
}

type mockFetcher struct {
	image *domain.UploadedImage
	err   error
}

func (m *mockFetcher) Fetch(ctx context.Context, attachment *discordgo.MessageAttachment) (*domain.UploadedImage, error) {
	return m.image, m.err
}

func newTestProcessor(generator *mockGenerator, fetcher *mockFetcher) *promptProcessor {
	return newPromptProcessor(generator, fetcher, time.Second, zap.NewNop().Sugar())
}

func TestPromptProcessor_Process(t *testing.T) {
	generator := &mockGenerator{prompts: &domain.GeneratedPrompts{Turkish: "Bir kedi...", English: "A cat..."}}
	fetcher := &mockFetcher{image: &domain.UploadedImage{Name: "cat.png", MIMEType: "image/png", Data: []byte("png")}}

	messages := newTestProcessor(generator, fetcher).process(&discordgo.MessageAttachment{Filename: "cat.png"})

	if len(messages) != 1 {
		t.Fatalf("期待されるメッセージ数: 1, 実際: %d", len(messages))
	}
	want := "**Türkçe Prompt**\n```\nBir kedi...\n```\n**English Prompt**\n```\nA cat...\n```"
	if messages[0] != want {
		t.Errorf("期待されるメッセージ:\n%s\n実際:\n%s", want, messages[0])
	}
	if len(generator.images) != 1 || generator.images[0].Name != "cat.png" {
		t.Error("取得した画像が生成サービスに渡されていません")
	}
}

func TestPromptProcessor_Process_Errors(t *testing.T) {
	tests := []struct {
		name      string
		generator *mockGenerator
		fetcher   *mockFetcher
		want      string
	}{
		{
			name:      "取得失敗",
			generator: &mockGenerator{},
			fetcher:   &mockFetcher{err: domain.NewInputError(domain.ErrImageTooLarge)},
			want:      "❌ Resim çok büyük (Maks. 10MB).",
		},
		{
			name:      "生成失敗",
			generator: &mockGenerator{err: domain.NewTransportError(errors.New("upstream 503"))},
			fetcher:   &mockFetcher{image: &domain.UploadedImage{Name: "cat.png", Data: []byte("png")}},
			want:      "❌ Prompt oluşturulurken bir hata oluştu: Yapay zeka servisinden geçerli bir yanıt alınamadı.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := newTestProcessor(tt.generator, tt.fetcher).process(&discordgo.MessageAttachment{})
			if len(messages) != 1 {
				t.Fatalf("期待されるメッセージ数: 1, 実際: %d", len(messages))
			}
			if messages[0] != tt.want {
				t.Errorf("期待されるメッセージ: %q, 実際: %q", tt.want, messages[0])
			}
		})
	}
}

func TestFormatPrompts_LongPrompts(t *testing.T) {
	long := strings.Repeat("uzun bir açıklama ", 300)
	messages := formatPrompts(&domain.GeneratedPrompts{Turkish: long, English: "short"})

	if len(messages) < 2 {
		t.Fatalf("長いプロンプトは分割されるべきです: %d件", len(messages))
	}
	for i, message := range messages {
		if n := utf8.RuneCountInString(message); n > DiscordMessageLimit {
			t.Errorf("メッセージ %d が制限を超えています: %d文字", i+1, n)
		}
		if strings.Count(message, "```")%2 != 0 {
			t.Errorf("メッセージ %d のコードブロックが閉じていません", i+1)
		}
	}
	if !strings.HasPrefix(messages[0], "**Türkçe Prompt**") {
		t.Error("最初のメッセージはTürkçe Promptで始まる必要があります")
	}
	if !strings.Contains(messages[len(messages)-1], "**English Prompt**") {
		t.Error("最後のメッセージにEnglish Promptが含まれていません")
	}
}

func TestCodeBlocks_EscapesFence(t *testing.T) {
	blocks := codeBlocks("English Prompt", "a ``` b")
	if len(blocks) != 1 {
		t.Fatalf("期待されるブロック数: 1, 実際: %d", len(blocks))
	}
	if strings.Count(blocks[0], "```") != 2 {
		t.Errorf("本文中の ``` が無害化されていません: %s", blocks[0])
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		limit   int
		want    []string
	}{
		{"制限以内", "hello", 10, []string{"hello"}},
		{"改行で分割", "line one\nline two", 10, []string{"line one", "line two"}},
		{"空白で分割", "alpha beta gamma", 11, []string{"alpha beta", "gamma"}},
		{"強制分割", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"マルチバイト", "çççççç", 4, []string{"çççç", "çç"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.message, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("期待される分割数: %d, 実際: %d (%q)", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("チャンク %d: 期待される値: %q, 実際: %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestResolveAttachment(t *testing.T) {
	attachment := &discordgo.MessageAttachment{ID: "123", Filename: "cat.png"}
	data := discordgo.ApplicationCommandInteractionData{
		Name: promptCommandName,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: imageOptionName, Type: discordgo.ApplicationCommandOptionAttachment, Value: "123"},
		},
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Attachments: map[string]*discordgo.MessageAttachment{"123": attachment},
		},
	}

	if got := resolveAttachment(data); got != attachment {
		t.Errorf("期待される添付ファイル: %v, 実際: %v", attachment, got)
	}

	data.Resolved = nil
	if got := resolveAttachment(data); got != nil {
		t.Errorf("Resolvedがない場合はnilが期待されました: %v", got)
	}
}

func TestPromptCommand(t *testing.T) {
	command := promptCommand()

	if command.Name != "prompt" {
		t.Errorf("期待されるコマンド名: prompt, 実際: %s", command.Name)
	}
	if len(command.Options) != 1 {
		t.Fatalf("期待されるオプション数: 1, 実際: %d", len(command.Options))
	}
	option := command.Options[0]
	if option.Type != discordgo.ApplicationCommandOptionAttachment || !option.Required {
		t.Error("imageオプションは必須の添付ファイルである必要があります")
	}
}

func TestMentionHandler_IsMentioned(t *testing.T) {
	handler := &MentionHandler{botID: "bot", botUsername: "PromptBot"}

	tests := []struct {
		name    string
		message *discordgo.MessageCreate
		want    bool
	}{
		{
			name:    "メンション配列に含まれる",
			message: &discordgo.MessageCreate{Message: &discordgo.Message{Mentions: []*discordgo.User{{ID: "bot"}}}},
			want:    true,
		},
		{
			name:    "他のユーザーへのメンション",
			message: &discordgo.MessageCreate{Message: &discordgo.Message{Mentions: []*discordgo.User{{ID: "other"}}}},
			want:    false,
		},
		{
			name:    "本文にユーザー名",
			message: &discordgo.MessageCreate{Message: &discordgo.Message{Content: "@promptbot bak"}},
			want:    true,
		},
		{
			name:    "メンションなし",
			message: &discordgo.MessageCreate{Message: &discordgo.Message{Content: "merhaba"}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.isMentioned(tt.message); got != tt.want {
				t.Errorf("期待される値: %v, 実際: %v", tt.want, got)
			}
		})
	}
}

func TestMentionHandler_ReadyWhileHandlingMessages(t *testing.T) {
	handler := NewMentionHandler(nil, nil, zap.NewNop().Sugar())
	message := &discordgo.MessageCreate{Message: &discordgo.Message{Mentions: []*discordgo.User{{ID: "bot"}}}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			handler.handleReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "bot", Username: "PromptBot"}})
		}()
		go func() {
			defer wg.Done()
			handler.isMentioned(message)
		}()
	}
	wg.Wait()

	if !handler.isMentioned(message) {
		t.Error("Ready後はBotへのメンションを検出できるべきです")
	}
	if id, username := handler.identity(); id != "bot" || username != "PromptBot" {
		t.Errorf("期待されるID/ユーザー名: bot/PromptBot, 実際: %s/%s", id, username)
	}
}

func TestFirstImageAttachment(t *testing.T) {
	image := &discordgo.MessageAttachment{Filename: "cat.webp", ContentType: "image/webp"}
	attachments := []*discordgo.MessageAttachment{
		{Filename: "notes.txt", ContentType: "text/plain"},
		image,
	}

	if got := firstImageAttachment(attachments); got != image {
		t.Errorf("期待される添付ファイル: %v, 実際: %v", image, got)
	}
	if got := firstImageAttachment(nil); got != nil {
		t.Errorf("添付がない場合はnilが期待されました: %v", got)
	}
}
