package application

import (
	"context"
	"fmt"
	"time"

	"imageprompt/internal/domain"
	"imageprompt/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PromptService は、画像からプロンプトを生成する処理を制御するアプリケーションサービスです
type PromptService struct {
	generator   PromptGenerator
	instruction string
	logger      *zap.SugaredLogger
}

// NewPromptService は新しいPromptServiceインスタンスを作成します
// instructionが空の場合はdomain.DefaultInstructionを使用します
func NewPromptService(generator PromptGenerator, instruction string, logger *zap.SugaredLogger) (*PromptService, error) {
	if generator == nil {
		return nil, fmt.Errorf("PromptGeneratorが指定されていません")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if instruction == "" {
		instruction = domain.DefaultInstruction
	}

	return &PromptService{
		generator:   generator,
		instruction: instruction,
		logger:      logger,
	}, nil
}

// Generate は、画像を解析して2つのプロンプトを生成します
// 失敗した場合に部分的な結果を返すことはありません
func (s *PromptService) Generate(ctx context.Context, image *domain.UploadedImage) (*domain.GeneratedPrompts, error) {
	if image == nil {
		return nil, domain.NewInputError(domain.ErrNoImage)
	}

	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID, "image", image.Name, "mime_type", image.MIMEType)
	logger.Infow("プロンプト生成を開始", "bytes", image.Size())

	start := time.Now()
	prompts, err := s.generate(ctx, image)
	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	metrics.GenerationObserved(outcome, image.MIMEType, time.Since(start))

	if err != nil {
		logger.Errorw("プロンプト生成に失敗", "kind", outcome, "error", err)
		return nil, err
	}

	logger.Infow("プロンプト生成が完了",
		"turkish_length", len(prompts.Turkish),
		"english_length", len(prompts.English),
		"elapsed", time.Since(start))
	return prompts, nil
}

func (s *PromptService) generate(ctx context.Context, image *domain.UploadedImage) (*domain.GeneratedPrompts, error) {
	request, err := domain.NewGenerationRequest(image, s.instruction)
	if err != nil {
		return nil, err
	}

	prompts, err := s.generator.GeneratePrompts(ctx, request)
	if err != nil {
		return nil, err
	}
	if prompts == nil {
		return nil, domain.NewSchemaError(fmt.Errorf("生成サービスから結果が返されませんでした"))
	}

	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	return prompts, nil
}
