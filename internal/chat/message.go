package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

// MessageType is the transport's classification of a chat message
type MessageType string

const (
	TypeChat     MessageType = "chat"
	TypeImage    MessageType = "image"
	TypeSticker  MessageType = "sticker"
	TypeDocument MessageType = "document"
)

var errMissingChat = errors.New("message has neither from nor to")

// Media is an attachment as delivered by the bridge, base64 encoded
type Media struct {
	MimeType string `json:"mimetype"`
	Data     string `json:"data"`
	Filename string `json:"filename,omitempty"`
}

// Message is one chat event
type Message struct {
	ID         string      `json:"id"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Author     string      `json:"author,omitempty"`
	NotifyName string      `json:"notifyName,omitempty"`
	Body       string      `json:"body"`
	FromMe     bool        `json:"fromMe"`
	HasMedia   bool        `json:"hasMedia"`
	Type       MessageType `json:"type"`
	Media      *Media      `json:"media,omitempty"`
}

// ChatID returns the conversation the message belongs to
func (m Message) ChatID() string {
	if m.FromMe {
		return m.To
	}
	return m.From
}

// Validate checks the fields every handler relies on
func (m Message) Validate() error {
	if m.From == "" && m.To == "" {
		return errMissingChat
	}
	return nil
}

// Download is a decoded attachment
type Download struct {
	MimeType string
	Data     []byte
	Filename string
}

// Session is what message handlers use to talk back to the chat
type Session interface {
	// DownloadMedia returns the attachment of msg, or nil when there is none
	DownloadMedia(ctx context.Context, msg Message) (*Download, error)

	// Reply sends text quoting msg
	Reply(ctx context.Context, msg Message, text string) error

	// ReplyFile sends the file at path quoting msg
	ReplyFile(ctx context.Context, msg Message, path, caption string) error
}

// Handler processes one message to completion
type Handler interface {
	HandleMessage(ctx context.Context, msg Message)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, msg Message)

func (f HandlerFunc) HandleMessage(ctx context.Context, msg Message) {
	f(ctx, msg)
}

func decodeMedia(m *Media) (*Download, error) {
	if m == nil || m.Data == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding media: %w", err)
	}
	return &Download{MimeType: m.MimeType, Data: data, Filename: m.Filename}, nil
}
