package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"imageprompt/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// AttachmentFetcher は、Discordの添付ファイルを取得して画像として読み込みます
type AttachmentFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewAttachmentFetcher は新しいAttachmentFetcherインスタンスを作成します
// clientには通常discordgo.SessionのClientを渡します
func NewAttachmentFetcher(client *http.Client, maxBytes int64) *AttachmentFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes == 0 {
		maxBytes = domain.DefaultMaxImageBytes
	}

	return &AttachmentFetcher{
		client:   client,
		maxBytes: maxBytes,
	}
}

// IsImageAttachment は、添付ファイルが画像かどうかを判定します
func IsImageAttachment(attachment *discordgo.MessageAttachment) bool {
	if attachment == nil {
		return false
	}
	if attachment.ContentType != "" {
		return strings.HasPrefix(attachment.ContentType, "image/")
	}
	// ContentTypeがない場合は画像サイズの有無で判定
	return attachment.Width > 0 && attachment.Height > 0
}

// Fetch は、添付ファイルをダウンロードしてUploadedImageを作成します
func (f *AttachmentFetcher) Fetch(ctx context.Context, attachment *discordgo.MessageAttachment) (*domain.UploadedImage, error) {
	if attachment == nil || attachment.URL == "" {
		return nil, domain.NewInputError(domain.ErrNoImage)
	}
	if f.maxBytes > 0 && int64(attachment.Size) > f.maxBytes {
		return nil, domain.NewInputError(domain.ErrImageTooLarge)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return nil, domain.NewInputError(fmt.Errorf("添付ファイルのURLが不正です: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("添付ファイルの取得に失敗: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewTransportError(fmt.Errorf("添付ファイルの取得に失敗: ステータス %d", resp.StatusCode))
	}

	mimeType := attachment.ContentType
	if mimeType == "" {
		mimeType = resp.Header.Get("Content-Type")
	}

	image, err := domain.ReadUploadedImage(ctx, resp.Body, attachment.Filename, mimeType, f.maxBytes)
	if err != nil {
		// 本文の読み込み失敗はダウンロードの失敗として扱う
		if domain.KindOf(err) == domain.KindInput && !errors.Is(err, domain.ErrImageUnreadable) {
			return nil, err
		}
		return nil, domain.NewTransportError(err)
	}

	return image, nil
}
