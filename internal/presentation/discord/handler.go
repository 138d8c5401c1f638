package discord

import (
	"context"
	"time"

	"imageprompt/internal/domain"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// PromptGenerator は、画像から2つのプロンプトを生成するサービスです
type PromptGenerator interface {
	Generate(ctx context.Context, image *domain.UploadedImage) (*domain.GeneratedPrompts, error)
}

// ImageFetcher は、Discordの添付ファイルを画像として取得します
type ImageFetcher interface {
	Fetch(ctx context.Context, attachment *discordgo.MessageAttachment) (*domain.UploadedImage, error)
}

// DiscordHandler は、Discordのイベントハンドラです
type DiscordHandler struct {
	session             *discordgo.Session
	mentionHandler      *MentionHandler
	slashCommandHandler *SlashCommandHandler
}

// NewDiscordHandler は新しいDiscordHandlerインスタンスを作成します
func NewDiscordHandler(
	session *discordgo.Session,
	generator PromptGenerator,
	fetcher ImageFetcher,
	requestTimeout time.Duration,
	logger *zap.SugaredLogger,
) *DiscordHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	processor := newPromptProcessor(generator, fetcher, requestTimeout, logger)

	return &DiscordHandler{
		session:             session,
		mentionHandler:      NewMentionHandler(session, processor, logger),
		slashCommandHandler: NewSlashCommandHandler(session, processor, logger),
	}
}

// SetupHandlers は、Discordのイベントハンドラを設定します
func (h *DiscordHandler) SetupHandlers() {
	h.mentionHandler.SetupHandlers()
	h.slashCommandHandler.SetupSlashCommandHandlers()
}

// SetupSlashCommands は、スラッシュコマンドを登録します
// guildIDが空の場合はグローバルコマンドとして登録します
func (h *DiscordHandler) SetupSlashCommands(guildID string) error {
	return h.slashCommandHandler.SetupSlashCommands(guildID)
}

// promptProcessor は、添付画像の取得からプロンプト生成、返信文の作成までを行います
type promptProcessor struct {
	generator      PromptGenerator
	fetcher        ImageFetcher
	requestTimeout time.Duration
	logger         *zap.SugaredLogger
}

func newPromptProcessor(generator PromptGenerator, fetcher ImageFetcher, requestTimeout time.Duration, logger *zap.SugaredLogger) *promptProcessor {
	return &promptProcessor{
		generator:      generator,
		fetcher:        fetcher,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// process は、添付画像からプロンプトを生成し、送信するメッセージ群を返します
// 失敗した場合もエラーメッセージを1件返します
func (p *promptProcessor) process(attachment *discordgo.MessageAttachment) []string {
	ctx := context.Background()
	if p.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
	}

	image, err := p.fetcher.Fetch(ctx, attachment)
	if err != nil {
		p.logger.Warnw("添付画像の取得に失敗", "error", err)
		return []string{formatError(err)}
	}

	prompts, err := p.generator.Generate(ctx, image)
	if err != nil {
		return []string{formatError(err)}
	}

	return formatPrompts(prompts)
}
