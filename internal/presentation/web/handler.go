// Package web は、ブラウザ向けの画面とHTTP APIを提供します
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"time"

	"imageprompt/internal/application"
	"imageprompt/internal/domain"
	"imageprompt/internal/infrastructure/config"
	"imageprompt/internal/infrastructure/metrics"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// multipartOverhead は、画像以外のフォームデータに許す余裕です
const multipartOverhead = 1 << 20

// Handler は、画面とAPIのハンドラーです
type Handler struct {
	workspace      *application.Workspace
	service        *application.PromptService
	logger         *zap.SugaredLogger
	page           *template.Template
	requestTimeout time.Duration
}

// NewHandler は新しいHandlerインスタンスを作成します
func NewHandler(workspace *application.Workspace, service *application.PromptService, requestTimeout time.Duration, logger *zap.SugaredLogger) (*Handler, error) {
	if workspace == nil || service == nil {
		return nil, fmt.Errorf("WorkspaceとPromptServiceは必須です")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	page, err := parsePage()
	if err != nil {
		return nil, fmt.Errorf("テンプレートの読み込みに失敗: %w", err)
	}

	return &Handler{
		workspace:      workspace,
		service:        service,
		logger:         logger,
		page:           page,
		requestTimeout: requestTimeout,
	}, nil
}

// Routes は、ミドルウェアを含むルーターを作成します
func (h *Handler) Routes(serverConfig config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Throttle(serverConfig.ThrottleLimit),
		middleware.Timeout(serverConfig.Timeout),
		metrics.Middleware,
	}...)

	r.Get("/", h.Index)
	r.Get("/healthz", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.State)
		r.Post("/image", h.UploadImage)
		r.Post("/generate", h.Generate)
		r.Post("/copy/{language}", h.Copy)
		r.Post("/v1/prompts", h.CreatePrompts)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Index は、アップロード画面を表示します
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	data := newPageData(h.workspace.Snapshot(), h.workspace)

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.Errorw("画面の描画に失敗", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} web.HealthResponse
// @Router /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// State godoc
// @Summary Current workspace state
// @Description Current image preview, generated prompts, last error and copy feedback flags.
// @Tags workspace
// @Produce json
// @Success 200 {object} application.WorkspaceView
// @Router /api/state [get]
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.workspace.Snapshot())
}

// UploadImage godoc
// @Summary Upload image
// @Description Replaces the current image. Clears the previous result.
// @Tags workspace
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "PNG, JPEG or WEBP image"
// @Success 200 {object} application.WorkspaceView
// @Failure 400 {object} web.ErrorResponse
// @Failure 409 {object} web.ErrorResponse
// @Failure 413 {object} web.ErrorResponse
// @Router /api/image [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.formImage(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	view, err := h.workspace.Upload(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// Generate godoc
// @Summary Generate prompts for the current image
// @Description Sends the current image to the generation service. Only one request runs at a time.
// @Tags workspace
// @Produce json
// @Success 200 {object} web.PromptsResponse
// @Failure 400 {object} web.ErrorResponse
// @Failure 409 {object} web.ErrorResponse
// @Failure 500 {object} web.ErrorResponse
// @Failure 502 {object} web.ErrorResponse
// @Router /api/generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.workspace.Generate(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newPromptsResponse(prompts))
}

// Copy godoc
// @Summary Copy one prompt
// @Description Returns exactly the text of one language and marks it as copied.
// @Tags workspace
// @Produce json
// @Param language path string true "turkish or english"
// @Success 200 {object} web.CopyResponse
// @Failure 400 {object} web.ErrorResponse
// @Router /api/copy/{language} [post]
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	lang, err := domain.ParseLanguage(chi.URLParam(r, "language"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	clipboard := &responseClipboard{}
	if _, err := h.workspace.Copy(r.Context(), lang, clipboard); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, CopyResponse{
		Language:       lang,
		Text:           clipboard.Text(),
		FeedbackMillis: h.workspace.CopyFeedback().Milliseconds(),
	})
}

// CreatePrompts godoc
// @Summary Generate prompts for an uploaded image
// @Description Stateless variant: reads the image from the form and returns both prompts.
// @Tags prompts
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "PNG, JPEG or WEBP image"
// @Success 200 {object} web.PromptsResponse
// @Failure 400 {object} web.ErrorResponse
// @Failure 413 {object} web.ErrorResponse
// @Failure 500 {object} web.ErrorResponse
// @Failure 502 {object} web.ErrorResponse
// @Router /api/v1/prompts [post]
func (h *Handler) CreatePrompts(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.formImage(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	image, err := domain.ReadUploadedImage(r.Context(), file, header.Filename, header.Header.Get("Content-Type"), h.workspace.MaxImageBytes())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// 送信後は呼び出し元の切断で中断しない
	ctx := context.WithoutCancel(r.Context())
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	prompts, err := h.service.Generate(ctx, image)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newPromptsResponse(prompts))
}

// formImage は、multipartフォームの image フィールドを取り出します
func (h *Handler) formImage(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if limit := h.workspace.MaxImageBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return nil, nil, domain.NewInputError(domain.ErrImageTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			return nil, nil, domain.NewInputError(domain.ErrNoImage)
		default:
			return nil, nil, domain.NewInputError(fmt.Errorf("フォームの解析に失敗: %w", err))
		}
	}

	return file, header, nil
}

// statusCode は、エラーの分類からHTTPステータスを決めます
func statusCode(err error) int {
	if errors.Is(err, domain.ErrImageTooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	switch domain.KindOf(err) {
	case domain.KindInput:
		return http.StatusBadRequest
	case domain.KindBusy:
		return http.StatusConflict
	case domain.KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	h.logger.Warnw("リクエストの処理に失敗",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"kind", domain.KindOf(err).String(),
		"error", err)

	h.writeJSON(w, status, ErrorResponse{Error: domain.UserMessage(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		h.logger.Errorw("JSONのエンコードに失敗", "error", err)
		http.Error(w, fmt.Sprintf("failed to encode: %s", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
