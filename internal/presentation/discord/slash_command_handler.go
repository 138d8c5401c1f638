package discord

import (
	"fmt"

	"imageprompt/internal/domain"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	promptCommandName  = "prompt"
	imageOptionName    = "image"
	promptCommandUsage = "画像を添付してください: /prompt image:<画像>"
)

// SlashCommandHandler は、Discordのスラッシュコマンドを処理するハンドラーです
type SlashCommandHandler struct {
	session   *discordgo.Session
	processor *promptProcessor
	logger    *zap.SugaredLogger
}

// NewSlashCommandHandler は新しいSlashCommandHandlerインスタンスを作成します
func NewSlashCommandHandler(session *discordgo.Session, processor *promptProcessor, logger *zap.SugaredLogger) *SlashCommandHandler {
	return &SlashCommandHandler{
		session:   session,
		processor: processor,
		logger:    logger,
	}
}

// promptCommand は、/prompt コマンドの定義を返します
func promptCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        promptCommandName,
		Description: "Resimden Türkçe ve İngilizce prompt oluşturur",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        imageOptionName,
				Description: "PNG, JPG veya WEBP (Maks. 10MB)",
				Required:    true,
			},
		},
	}
}

// SetupSlashCommands は、スラッシュコマンドを設定します
func (h *SlashCommandHandler) SetupSlashCommands(guildID string) error {
	user, err := h.session.User("@me")
	if err != nil {
		return fmt.Errorf("Botユーザー情報の取得に失敗: %w", err)
	}

	command := promptCommand()
	if _, err := h.session.ApplicationCommandCreate(user.ID, guildID, command); err != nil {
		return fmt.Errorf("スラッシュコマンド %s の登録に失敗: %w", command.Name, err)
	}
	h.logger.Infow("スラッシュコマンドを登録しました", "command", command.Name, "guild_id", guildID)

	return nil
}

// SetupSlashCommandHandlers は、スラッシュコマンドのハンドラーを設定します
func (h *SlashCommandHandler) SetupSlashCommandHandlers() {
	h.session.AddHandler(h.handleInteractionCreate)
}

// handleInteractionCreate は、インタラクション作成イベントを処理します
func (h *SlashCommandHandler) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	if data.Name != promptCommandName {
		h.logger.Debugw("未知のスラッシュコマンド", "command", data.Name)
		return
	}

	attachment := resolveAttachment(data)
	if attachment == nil {
		h.respondEphemeral(s, i, promptCommandUsage)
		return
	}
	if !isSupportedAttachment(attachment) {
		h.respondEphemeral(s, i, "❌ "+domain.UserMessage(domain.NewInputError(domain.ErrNoImage)))
		return
	}

	// 生成には時間がかかるため、先に遅延応答を返す
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		h.logger.Errorw("インタラクションへの遅延応答に失敗", "error", err)
		return
	}

	go h.processAsync(s, i, attachment)
}

// processAsync は、プロンプトを生成して遅延応答を編集します
func (h *SlashCommandHandler) processAsync(s *discordgo.Session, i *discordgo.InteractionCreate, attachment *discordgo.MessageAttachment) {
	messages := h.processor.process(attachment)

	first := messages[0]
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &first}); err != nil {
		h.logger.Errorw("インタラクション応答の編集に失敗", "error", err)
		return
	}

	for index, message := range messages[1:] {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: message}); err != nil {
			h.logger.Errorw("フォローアップメッセージの送信に失敗", "chunk", index+2, "error", err)
			return
		}
	}
}

// resolveAttachment は、image オプションで指定された添付ファイルを取り出します
func resolveAttachment(data discordgo.ApplicationCommandInteractionData) *discordgo.MessageAttachment {
	if data.Resolved == nil {
		return nil
	}

	for _, option := range data.Options {
		if option.Name != imageOptionName || option.Type != discordgo.ApplicationCommandOptionAttachment {
			continue
		}
		id, ok := option.Value.(string)
		if !ok {
			return nil
		}
		return data.Resolved.Attachments[id]
	}

	return nil
}

// respondEphemeral は、本人にだけ見えるメッセージで応答します
func (h *SlashCommandHandler) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Errorw("インタラクションへの応答に失敗", "error", err)
	}
}
