package application

import (
	"context"
	"io"
	"sync"

	"imageprompt/internal/domain"
)

// MockPromptGenerator は、テスト用のモック生成クライアントです
type MockPromptGenerator struct {
	mu       sync.Mutex
	prompts  *domain.GeneratedPrompts
	err      error
	calls    int
	requests []domain.GenerationRequest
	ctxErrs  []error

	// enteredとreleaseが設定されている場合、呼び出しはreleaseが閉じられるまで待機します
	entered chan struct{}
	release chan struct{}
}

func (m *MockPromptGenerator) GeneratePrompts(ctx context.Context, request domain.GenerationRequest) (*domain.GeneratedPrompts, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, request)
	entered, release := m.entered, m.release
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	if m.err != nil {
		return nil, m.err
	}
	if m.prompts == nil {
		return nil, nil
	}
	prompts := *m.prompts
	return &prompts, nil
}

func (m *MockPromptGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockClipboard は、書き込まれたテキストを記録するクリップボードです
type MockClipboard struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (c *MockClipboard) WriteText(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, text)
	return nil
}

func (c *MockClipboard) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) == 0 {
		return ""
	}
	return c.texts[len(c.texts)-1]
}

// blockingReader は、releaseが閉じられるまで読み込みを止めるReaderです
type blockingReader struct {
	data    io.Reader
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingReader(data io.Reader) *blockingReader {
	return &blockingReader{
		data:    data,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	return r.data.Read(p)
}
