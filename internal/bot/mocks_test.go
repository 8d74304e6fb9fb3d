package bot

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Arturleone/wa-financas/internal/chat"
	"github.com/Arturleone/wa-financas/internal/finance"
	"github.com/Arturleone/wa-financas/internal/receipt"
)

type sentFile struct {
	path    string
	caption string
	content string
}

type mockSession struct {
	replies     []string
	files       []sentFile
	download    *chat.Download
	downloadErr error
	readFile    func(path string) string
}

func (m *mockSession) DownloadMedia(ctx context.Context, msg chat.Message) (*chat.Download, error) {
	return m.download, m.downloadErr
}

func (m *mockSession) Reply(ctx context.Context, msg chat.Message, text string) error {
	m.replies = append(m.replies, text)
	return nil
}

func (m *mockSession) ReplyFile(ctx context.Context, msg chat.Message, path, caption string) error {
	f := sentFile{path: path, caption: caption}
	if m.readFile != nil {
		f.content = m.readFile(path)
	}
	m.files = append(m.files, f)
	return nil
}

type mockBackend struct {
	events     []finance.Event
	insertErr  error
	balance    decimal.Decimal
	balanceErr error
	records    []finance.Record
	listErr    error
	removed    []int64
	removeOK   bool
	edited     []int64
	editOK     bool
	calls      int
}

func (m *mockBackend) Insert(ctx context.Context, event finance.Event) error {
	m.calls++
	if m.insertErr != nil {
		return m.insertErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockBackend) Balance(ctx context.Context) (decimal.Decimal, error) {
	m.calls++
	return m.balance, m.balanceErr
}

func (m *mockBackend) List(ctx context.Context) ([]finance.Record, error) {
	m.calls++
	return m.records, m.listErr
}

func (m *mockBackend) Remove(ctx context.Context, id int64) (bool, error) {
	m.calls++
	m.removed = append(m.removed, id)
	return m.removeOK, nil
}

func (m *mockBackend) Edit(ctx context.Context, id int64, amount decimal.Decimal, label string) (bool, error) {
	m.calls++
	m.edited = append(m.edited, id)
	return m.editOK, nil
}

type mockReceipts struct {
	outcome    receipt.Outcome
	candidates []receipt.Candidate
}

func (m *mockReceipts) Process(ctx context.Context, c receipt.Candidate) receipt.Outcome {
	m.candidates = append(m.candidates, c)
	return m.outcome
}

type mockFiles struct {
	files   map[string][]byte
	deleted []string
}

func newMockFiles() *mockFiles {
	return &mockFiles{files: make(map[string][]byte)}
}

func (m *mockFiles) Save(filename string, data []byte) (string, error) {
	path := "/scratch/" + filename
	m.files[path] = data
	return path, nil
}

func (m *mockFiles) Delete(path string) error {
	if _, ok := m.files[path]; !ok {
		return errors.New("file not found")
	}
	delete(m.files, path)
	m.deleted = append(m.deleted, path)
	return nil
}

type mockLedger struct {
	seen map[string]bool
	err  error
}

func (m *mockLedger) MarkSeen(messageID, chatID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[messageID] {
		return false, nil
	}
	m.seen[messageID] = true
	return true, nil
}

type mockTimeSource struct {
	now time.Time
}

func (m *mockTimeSource) Now() time.Time {
	return m.now
}

type scheduled struct {
	delay time.Duration
	fn    func()
}

type mockTimer struct {
	pending []scheduled
}

func (m *mockTimer) AfterFunc(d time.Duration, f func()) {
	m.pending = append(m.pending, scheduled{delay: d, fn: f})
}

func (m *mockTimer) fire() {
	for _, p := range m.pending {
		p.fn()
	}
	m.pending = nil
}
