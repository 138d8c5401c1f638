package discord

import (
	"fmt"
	"strings"
	"sync"

	discordinfra "imageprompt/internal/infrastructure/discord"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const mentionUsage = "Bir resim ekleyip beni etiketleyin, Türkçe ve İngilizce prompt oluşturayım."

// MentionHandler は、Discordのメンション処理を担当するハンドラーです
type MentionHandler struct {
	session   *discordgo.Session
	processor *promptProcessor
	logger    *zap.SugaredLogger

	// Readyイベントで書き込まれ、MessageCreateイベントで読み込まれる
	mu          sync.RWMutex
	botID       string
	botUsername string
}

// NewMentionHandler は新しいMentionHandlerインスタンスを作成します
func NewMentionHandler(session *discordgo.Session, processor *promptProcessor, logger *zap.SugaredLogger) *MentionHandler {
	return &MentionHandler{
		session:   session,
		processor: processor,
		logger:    logger,
	}
}

// SetupHandlers は、メンション関連のイベントハンドラを設定します
func (h *MentionHandler) SetupHandlers() {
	h.session.AddHandler(h.handleMessageCreate)
	h.session.AddHandler(h.handleReady)
}

// handleReady は、Botが準備完了した際のイベントを処理します
func (h *MentionHandler) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	h.logger.Infow("Botが準備完了しました", "username", event.User.Username, "id", event.User.ID)
	h.setIdentity(event.User.ID, event.User.Username)
}

func (h *MentionHandler) setIdentity(id, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.botID = id
	h.botUsername = username
}

func (h *MentionHandler) identity() (id, username string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.botID, h.botUsername
}

// handleMessageCreate は、メッセージ作成イベントを処理します
func (h *MentionHandler) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	botID, _ := h.identity()
	if m.Author == nil || m.Author.ID == botID || m.Author.Bot {
		return
	}

	if !h.isMentioned(m) {
		return
	}

	reference := &discordgo.MessageReference{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
	}

	attachment := firstImageAttachment(m.Attachments)
	if attachment == nil {
		if _, err := s.ChannelMessageSendReply(m.ChannelID, mentionUsage, reference); err != nil {
			h.logger.Errorw("使い方メッセージの送信に失敗", "error", err)
		}
		return
	}

	h.logger.Infow("画像付きメンションを検出", "channel_id", m.ChannelID, "filename", attachment.Filename)

	go func() {
		if err := s.ChannelTyping(m.ChannelID); err != nil {
			h.logger.Debugw("入力中表示に失敗", "error", err)
		}

		for index, message := range h.processor.process(attachment) {
			if _, err := s.ChannelMessageSendReply(m.ChannelID, message, reference); err != nil {
				h.logger.Errorw("応答メッセージの送信に失敗", "chunk", index+1, "error", err)
				return
			}
		}
	}()
}

// isMentioned は、メッセージがBotへのメンションかどうかを判定します
func (h *MentionHandler) isMentioned(m *discordgo.MessageCreate) bool {
	botID, botUsername := h.identity()
	for _, mention := range m.Mentions {
		if mention.ID == botID {
			return true
		}
	}

	if len(m.Mentions) == 0 && botUsername != "" {
		content := strings.ToLower(m.Content)
		botMention := fmt.Sprintf("@%s", strings.ToLower(botUsername))
		return strings.Contains(content, botMention)
	}

	return false
}

// firstImageAttachment は、最初の画像添付ファイルを返します
func firstImageAttachment(attachments []*discordgo.MessageAttachment) *discordgo.MessageAttachment {
	for _, attachment := range attachments {
		if isSupportedAttachment(attachment) {
			return attachment
		}
	}
	return nil
}

func isSupportedAttachment(attachment *discordgo.MessageAttachment) bool {
	return discordinfra.IsImageAttachment(attachment)
}
