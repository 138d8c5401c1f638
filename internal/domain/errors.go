package domain

import (
	"errors"
	"fmt"
)

// ドメイン固有のエラー型を定義
var (
	// ErrMissingCredential は、生成サービスの認証情報が設定されていない場合のエラーです
	ErrMissingCredential = errors.New("API_KEY environment variable is not set")

	// ErrNoImage は、画像が選択されていない場合のエラーです
	ErrNoImage = errors.New("画像が選択されていません")

	// ErrImageTooLarge は、画像が上限サイズを超えた場合のエラーです
	ErrImageTooLarge = errors.New("画像が大きすぎます")

	// ErrImageUnreadable は、アップロードされた画像を読み込めなかった場合のエラーです
	ErrImageUnreadable = errors.New("画像を読み込めませんでした")

	// ErrGenerationPending は、前の生成リクエストが完了していない場合のエラーです
	ErrGenerationPending = errors.New("前のプロンプト生成がまだ完了していません")

	// ErrUploadSuperseded は、より新しいアップロードによって結果が破棄された場合のエラーです
	ErrUploadSuperseded = errors.New("より新しい画像がアップロードされました")

	// ErrNothingToCopy は、コピーする結果がない場合のエラーです
	ErrNothingToCopy = errors.New("コピーできるプロンプトがありません")

	// ErrUnknownLanguage は、未知の言語が指定された場合のエラーです
	ErrUnknownLanguage = errors.New("未知の言語です")
)

// ErrorKind は、エラーの分類です
type ErrorKind int

const (
	KindConfiguration ErrorKind = iota + 1
	KindInput
	KindTransport
	KindSchema
	KindBusy
)

// String は、メトリクスやログに使うラベルを返します
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInput:
		return "input"
	case KindTransport:
		return "transport"
	case KindSchema:
		return "schema"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error は、分類付きのエラーです
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError は、設定エラーを作成します
func NewConfigurationError(err error) error {
	return &Error{Kind: KindConfiguration, Err: err}
}

// NewInputError は、入力エラーを作成します
func NewInputError(err error) error {
	return &Error{Kind: KindInput, Err: err}
}

// NewTransportError は、通信・サービスエラーを作成します
func NewTransportError(err error) error {
	return &Error{Kind: KindTransport, Err: err}
}

// NewSchemaError は、応答の形式エラーを作成します
func NewSchemaError(err error) error {
	return &Error{Kind: KindSchema, Err: err}
}

// NewBusyError は、処理中エラーを作成します
func NewBusyError() error {
	return &Error{Kind: KindBusy, Err: ErrGenerationPending}
}

// NewSupersededError は、新しいアップロードで置き換えられた場合のエラーを作成します
func NewSupersededError() error {
	return &Error{Kind: KindBusy, Err: ErrUploadSuperseded}
}

// KindOf は、errの分類を返します。分類がない場合は通信エラーとして扱います
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindTransport
}

// UserMessage は、画面に表示するメッセージを返します
// 通信エラーと形式エラーは利用者からは同じに見えます
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch KindOf(err) {
	case KindConfiguration:
		return fmt.Sprintf("Yapılandırma hatası: %s", err.Error())
	case KindInput:
		switch {
		case errors.Is(err, ErrNoImage):
			return "Lütfen önce bir resim yükleyin."
		case errors.Is(err, ErrImageTooLarge):
			return "Resim çok büyük (Maks. 10MB)."
		case errors.Is(err, ErrImageUnreadable):
			return "Resim okunamadı, lütfen tekrar yükleyin."
		case errors.Is(err, ErrNothingToCopy):
			return "Kopyalanacak bir prompt yok."
		case errors.Is(err, ErrUnknownLanguage):
			return "Bilinmeyen dil."
		default:
			return fmt.Sprintf("Geçersiz istek: %s", err.Error())
		}
	case KindBusy:
		if errors.Is(err, ErrUploadSuperseded) {
			return "Daha yeni bir resim yüklendi."
		}
		return "Prompt oluşturuluyor, lütfen bekleyin..."
	default:
		// 原因はログにのみ出力する
		return "Prompt oluşturulurken bir hata oluştu: Yapay zeka servisinden geçerli bir yanıt alınamadı."
	}
}
