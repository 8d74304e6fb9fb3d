package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Bridge implements Session on top of an HTTP chat bridge. Inbound media
// arrives embedded in the message; replies are posted to the bridge.
type Bridge struct {
	replyURL   string
	httpClient *http.Client
}

// BridgeOption configures the bridge
type BridgeOption func(*Bridge)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) BridgeOption {
	return func(b *Bridge) {
		b.httpClient = client
	}
}

// NewBridge creates a new Bridge posting replies to replyURL
func NewBridge(replyURL string, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		replyURL: replyURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

type replyRequest struct {
	ChatID          string `json:"chatId"`
	QuotedMessageID string `json:"quotedMessageId,omitempty"`
	Text            string `json:"text,omitempty"`
	Caption         string `json:"caption,omitempty"`
	Media           *Media `json:"media,omitempty"`
}

// DownloadMedia decodes the attachment carried by msg
func (b *Bridge) DownloadMedia(ctx context.Context, msg Message) (*Download, error) {
	return decodeMedia(msg.Media)
}

// Reply sends a text reply quoting msg
func (b *Bridge) Reply(ctx context.Context, msg Message, text string) error {
	return b.post(ctx, replyRequest{
		ChatID:          msg.ChatID(),
		QuotedMessageID: msg.ID,
		Text:            text,
	})
}

// ReplyFile sends the file at path as an attachment quoting msg
func (b *Bridge) ReplyFile(ctx context.Context, msg Message, path, caption string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading attachment: %w", err)
	}

	mimeType := mimetype.Detect(data).String()
	if filepath.Ext(path) == ".csv" {
		mimeType = "text/csv"
	}

	return b.post(ctx, replyRequest{
		ChatID:          msg.ChatID(),
		QuotedMessageID: msg.ID,
		Caption:         caption,
		Media: &Media{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
			Filename: filepath.Base(path),
		},
	})
}

func (b *Bridge) post(ctx context.Context, payload replyRequest) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.replyURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reply rejected with status %d", resp.StatusCode)
	}
	return nil
}
