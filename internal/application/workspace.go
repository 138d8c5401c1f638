package application

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"imageprompt/internal/domain"
	"imageprompt/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// DefaultCopyFeedback は、「コピーしました」表示を維持する時間です
const DefaultCopyFeedback = 2 * time.Second

// WorkspaceOptions は、Workspaceの動作設定です
type WorkspaceOptions struct {
	RequestTimeout time.Duration
	CopyFeedback   time.Duration
	MaxImageBytes  int64
}

// WorkspaceView は、画面描画用のスナップショットです
type WorkspaceView struct {
	ImageName  string                   `json:"image_name,omitempty"`
	MIMEType   string                   `json:"mime_type,omitempty"`
	PreviewURL string                   `json:"preview_url,omitempty"`
	HasImage   bool                     `json:"has_image"`
	Pending    bool                     `json:"pending"`
	Prompts    *domain.GeneratedPrompts `json:"prompts,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Copied     map[domain.Language]bool `json:"copied"`
}

// CanGenerate は、生成ボタンを押せる状態かどうかを返します
func (v WorkspaceView) CanGenerate() bool {
	return v.HasImage && !v.Pending
}

// Workspace は、「現在の画像」と「現在の結果」を保持するアプリケーションサービスです
// スロットは常に丸ごと置き換えられ、部分的に更新されることはありません
type Workspace struct {
	service *PromptService
	logger  *zap.SugaredLogger
	options WorkspaceOptions

	uploads domain.UploadTracker

	mu          sync.Mutex
	image       *domain.UploadedImage
	imageTicket domain.UploadTicket
	preview     string
	prompts     *domain.GeneratedPrompts
	lastErr     error
	pending     bool
	copied      map[domain.Language]uint64
	copySeq     uint64
}

// NewWorkspace は新しいWorkspaceインスタンスを作成します
func NewWorkspace(service *PromptService, options WorkspaceOptions, logger *zap.SugaredLogger) *Workspace {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if options.CopyFeedback <= 0 {
		options.CopyFeedback = DefaultCopyFeedback
	}
	if options.MaxImageBytes == 0 {
		options.MaxImageBytes = domain.DefaultMaxImageBytes
	}

	return &Workspace{
		service: service,
		logger:  logger,
		options: options,
		copied:  make(map[domain.Language]uint64),
	}
}

// Upload は、画像を読み込んで現在の画像として設定します
// 読み込み中に新しいアップロードが始まった場合、この結果は破棄されます
func (w *Workspace) Upload(ctx context.Context, r io.Reader, name, mimeType string) (WorkspaceView, error) {
	ticket := w.uploads.Begin()

	w.mu.Lock()
	w.prompts = nil
	w.lastErr = nil
	w.resetCopiedLocked()
	w.mu.Unlock()

	image, err := domain.ReadUploadedImage(ctx, r, name, mimeType, w.options.MaxImageBytes)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.uploads.IsCurrent(ticket) {
		w.logger.Infow("古いアップロードを破棄", "image", name, "ticket", ticket, "latest", w.uploads.Latest())
		return w.snapshotLocked(), domain.NewSupersededError()
	}

	// 読み込み中に完了した生成結果も、新しい画像には引き継がない
	w.prompts = nil
	w.resetCopiedLocked()

	if err != nil {
		w.image = nil
		w.imageTicket = ticket
		w.preview = ""
		w.lastErr = err
		w.logger.Warnw("画像の読み込みに失敗", "image", name, "error", err)
		return w.snapshotLocked(), err
	}

	w.image = image
	w.imageTicket = ticket
	w.preview = image.DataURL()
	w.lastErr = nil
	metrics.UploadObserved(image.Size())
	w.logger.Infow("画像を読み込みました", "image", image.Name, "mime_type", image.MIMEType, "bytes", image.Size())

	return w.snapshotLocked(), nil
}

// Generate は、現在の画像からプロンプトを生成します
// 送信後のリクエストは呼び出し元がキャンセルしても完了または失敗まで実行されます
func (w *Workspace) Generate(ctx context.Context) (*domain.GeneratedPrompts, error) {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return nil, domain.NewBusyError()
	}
	if w.image == nil {
		err := domain.NewInputError(domain.ErrNoImage)
		w.prompts = nil
		w.lastErr = err
		w.mu.Unlock()
		return nil, err
	}

	w.pending = true
	w.prompts = nil
	w.lastErr = nil
	w.resetCopiedLocked()
	image := w.image
	ticket := w.imageTicket
	w.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	if w.options.RequestTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, w.options.RequestTimeout)
		defer cancel()
	}

	prompts, err := w.service.Generate(runCtx, image)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = false

	if ticket != w.imageTicket {
		w.logger.Infow("生成中に画像が置き換えられたため結果を破棄", "image", image.Name)
		return nil, domain.NewSupersededError()
	}

	if err != nil {
		w.prompts = nil
		w.lastErr = err
		return nil, err
	}

	w.prompts = prompts
	w.lastErr = nil
	return prompts, nil
}

// Copy は、指定された言語のプロンプトだけをクリップボードに書き込みます
// 「コピーしました」状態はその言語だけに付き、CopyFeedback経過後に元に戻ります
func (w *Workspace) Copy(ctx context.Context, lang domain.Language, clipboard Clipboard) (string, error) {
	w.mu.Lock()
	if w.prompts == nil {
		w.mu.Unlock()
		return "", domain.NewInputError(domain.ErrNothingToCopy)
	}
	text, err := w.prompts.Text(lang)
	w.mu.Unlock()
	if err != nil {
		return "", err
	}

	if err := clipboard.WriteText(ctx, text); err != nil {
		return "", fmt.Errorf("クリップボードへの書き込みに失敗: %w", err)
	}

	w.mu.Lock()
	w.copySeq++
	token := w.copySeq
	w.copied[lang] = token
	w.mu.Unlock()

	time.AfterFunc(w.options.CopyFeedback, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.copied[lang] == token {
			delete(w.copied, lang)
		}
	})

	return text, nil
}

// IsCopied は、指定された言語が「コピーしました」状態かどうかを返します
func (w *Workspace) IsCopied(lang domain.Language) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copied[lang] != 0
}

// CopyFeedback は、「コピーしました」表示の維持時間を返します
func (w *Workspace) CopyFeedback() time.Duration {
	return w.options.CopyFeedback
}

// MaxImageBytes は、受け付ける画像の上限サイズを返します
func (w *Workspace) MaxImageBytes() int64 {
	return w.options.MaxImageBytes
}

// Snapshot は、現在の状態のスナップショットを返します
func (w *Workspace) Snapshot() WorkspaceView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workspace) snapshotLocked() WorkspaceView {
	view := WorkspaceView{
		PreviewURL: w.preview,
		HasImage:   w.image != nil,
		Pending:    w.pending,
		Error:      domain.UserMessage(w.lastErr),
		Copied:     make(map[domain.Language]bool, len(w.copied)),
	}
	if w.image != nil {
		view.ImageName = w.image.Name
		view.MIMEType = w.image.MIMEType
	}
	if w.prompts != nil {
		prompts := *w.prompts
		view.Prompts = &prompts
	}
	for lang, token := range w.copied {
		view.Copied[lang] = token != 0
	}
	return view
}

func (w *Workspace) resetCopiedLocked() {
	for lang := range w.copied {
		delete(w.copied, lang)
	}
}
