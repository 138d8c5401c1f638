package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"imageprompt/configs"
	_ "imageprompt/docs"
	"imageprompt/internal/application"
	"imageprompt/internal/infrastructure/config"
	discordInfra "imageprompt/internal/infrastructure/discord"
	"imageprompt/internal/infrastructure/gemini"
	"imageprompt/internal/infrastructure/openai"
	discordPres "imageprompt/internal/presentation/discord"
	"imageprompt/internal/presentation/web"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// @title Image Prompt API
// @version 1.0
// @description Upload an image and receive a Turkish and an English generation prompt.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 設定を読み込み
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger := newLogger(cfg.DebugMode)
	defer func() { _ = logger.Sync() }()

	logger.Infow("画像プロンプト生成サーバーを起動中...", "backend", cfg.Prompt.Backend)

	// 生成バックエンドを作成
	var generator application.PromptGenerator
	switch cfg.Prompt.Backend {
	case config.BackendOpenAI:
		generator = openai.NewPromptClient(&cfg.OpenAI, nil, logger.Named("openai"))
	default:
		generator = gemini.NewPromptClient(&cfg.Gemini, nil, logger.Named("gemini"))
	}

	// アプリケーションサービスを作成
	service, err := application.NewPromptService(generator, cfg.Prompt.Instruction, logger.Named("prompt"))
	if err != nil {
		logger.Fatalf("PromptServiceの作成に失敗: %v", err)
	}
	workspace := application.NewWorkspace(service, application.WorkspaceOptions{
		RequestTimeout: cfg.Prompt.RequestTimeout,
		CopyFeedback:   cfg.Prompt.CopyFeedback,
		MaxImageBytes:  cfg.Prompt.MaxImageBytes,
	}, logger.Named("workspace"))

	// Discord連携（任意）
	if cfg.Discord.Enabled() {
		session, err := startDiscord(cfg, service, logger.Named("discord"))
		if err != nil {
			logger.Fatalf("Discord連携の開始に失敗: %v", err)
		}
		defer func() {
			if err := session.Close(); err != nil {
				logger.Warnw("Discordセッションのクローズに失敗", "error", err)
			}
		}()
	}

	// HTTPサーバーを作成
	handler, err := web.NewHandler(workspace, service, cfg.Prompt.RequestTimeout, logger.Named("web"))
	if err != nil {
		logger.Fatalf("HTTPハンドラーの作成に失敗: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler.Routes(cfg.Server),
	}

	go func() {
		logger.Infow("サーバーを起動しました", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("サーバーの起動に失敗: %v", err)
		}
	}()

	// 終了シグナルを待機
	<-ctx.Done()
	logger.Info("終了シグナルを受信しました。サーバーを停止中...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("サーバーの停止に失敗", "error", err)
		return
	}
	logger.Info("サーバーが正常に停止しました。")
}

// newLogger は、デバッグモードに応じたロガーを作成します
func newLogger(debug bool) *zap.SugaredLogger {
	var (
		zl  *zap.Logger
		err error
	)
	if debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("ロガーの作成に失敗: %v", err)
	}
	return zl.Sugar()
}

// startDiscord は、Discordセッションを開き、ハンドラーとスラッシュコマンドを登録します
func startDiscord(cfg *configs.Config, service *application.PromptService, logger *zap.SugaredLogger) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	fetcher := discordInfra.NewAttachmentFetcher(session.Client, cfg.Prompt.MaxImageBytes)
	handler := discordPres.NewDiscordHandler(session, service, fetcher, cfg.Prompt.RequestTimeout, logger)
	handler.SetupHandlers()

	if err := session.Open(); err != nil {
		return nil, err
	}

	if err := handler.SetupSlashCommands(cfg.Discord.GuildID); err != nil {
		_ = session.Close()
		return nil, err
	}

	logger.Info("Discordに接続しました。/prompt コマンドが利用可能です")
	return session, nil
}
