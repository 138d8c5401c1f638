package web

import (
	"context"
	"sync"
)

// responseClipboard は、書き込まれたテキストを保持するだけのクリップボードです
// 実際の書き込みはブラウザ側で navigator.clipboard を使って行います
type responseClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *responseClipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *responseClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
