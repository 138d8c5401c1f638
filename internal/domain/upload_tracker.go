package domain

import "sync/atomic"

// UploadTicket は、一回の画像読み込みに付与される識別子です
type UploadTicket uint64

// UploadTracker は、最後に開始されたアップロードだけを有効とするためのカウンターです
// 読み込み完了時にIsCurrentで確認し、古い読み込み結果は破棄します
type UploadTracker struct {
	latest atomic.Uint64
}

// Begin は、新しいアップロードを開始して識別子を返します
func (t *UploadTracker) Begin() UploadTicket {
	return UploadTicket(t.latest.Add(1))
}

// IsCurrent は、ticketが最新のアップロードかどうかを判定します
func (t *UploadTracker) IsCurrent(ticket UploadTicket) bool {
	return uint64(ticket) == t.latest.Load()
}

// Latest は、最後に発行した識別子を返します
func (t *UploadTracker) Latest() UploadTicket {
	return UploadTicket(t.latest.Load())
}
