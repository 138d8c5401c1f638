package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultMaxImageBytes は、ピッカーが案内している上限（10MB）です
const DefaultMaxImageBytes int64 = 10 << 20

// SupportedMIMETypes は、ファイル選択時に案内する画像形式です
// 検証には使わず、未対応の形式は生成時に失敗します
var SupportedMIMETypes = []string{"image/png", "image/jpeg", "image/webp"}

// UploadedImage は、ユーザーが選択またはドロップした画像を表す値オブジェクトです
// メモリ上にのみ存在し、新しい画像が選ばれると丸ごと置き換えられます
type UploadedImage struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size は、画像のバイト数を返します
func (i UploadedImage) Size() int {
	return len(i.Data)
}

// Base64 は、画像をBase64文字列にエンコードします
func (i UploadedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL は、プレビュー表示用のData URLを返します
func (i UploadedImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, i.Base64())
}

// ReadUploadedImage は、readerから画像のバイト列を読み込みます
// maxBytesが0以下の場合は上限を設けません
func ReadUploadedImage(ctx context.Context, r io.Reader, name, mimeType string, maxBytes int64) (*UploadedImage, error) {
	if r == nil {
		return nil, NewInputError(ErrNoImage)
	}

	reader := r
	if maxBytes > 0 {
		reader = io.LimitReader(r, maxBytes+1)
	}

	data, err := readAllWithContext(ctx, reader)
	if err != nil {
		return nil, NewInputError(fmt.Errorf("%w: %w", ErrImageUnreadable, err))
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, NewInputError(ErrImageTooLarge)
	}

	if len(data) == 0 {
		return nil, NewInputError(ErrNoImage)
	}

	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	// "image/png; charset=..." のようなパラメータは落とす
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	return &UploadedImage{
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// readAllWithContext は、コンテキストのキャンセルを確認しながら全体を読み込みます
func readAllWithContext(ctx context.Context, r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, 64*1024)
	chunk := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// IsSupportedMIMEType は、案内している形式かどうかを返します
func IsSupportedMIMEType(mimeType string) bool {
	for _, supported := range SupportedMIMETypes {
		if strings.EqualFold(supported, mimeType) {
			return true
		}
	}
	return false
}
