package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnexpectedStatus is returned when the backend answers outside the 2xx range
var ErrUnexpectedStatus = errors.New("unexpected status from finance backend")

// DefaultTimeout bounds every backend call
const DefaultTimeout = 15 * time.Second

// Endpoints holds the webhook locations of the workflow backend.
// Paths are joined to BaseURL unless they are absolute URLs.
type Endpoints struct {
	BaseURL string
	Insert  string
	Balance string
	List    string
	Remove  string
	Edit    string
}

// DefaultEndpoints returns the webhook layout of a local n8n instance
func DefaultEndpoints() Endpoints {
	return Endpoints{
		BaseURL: "http://localhost:5678/webhook",
		Insert:  "financas",
		Balance: "saldo",
		List:    "listar",
		Remove:  "remover",
		Edit:    "editar",
	}
}

func (e Endpoints) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(e.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Client talks to the finance backend over HTTP webhooks.
// Every call is a single attempt.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewClient creates a new finance backend client
func NewClient(endpoints Endpoints, opts ...ClientOption) *Client {
	c := &Client{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Insert records a financial event
func (c *Client) Insert(ctx context.Context, event Event) error {
	resp, err := c.do(ctx, http.MethodPost, c.endpoints.url(c.endpoints.Insert), newInsertRequest(event))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return checkStatus(resp)
}

// Balance returns the current balance. A missing balance counts as zero.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoints.url(c.endpoints.Balance), nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return decimal.Zero, err
	}

	var body struct {
		Balance json.RawMessage `json:"saldo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decoding balance: %w", err)
	}

	balance, err := looseDecimal(body.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing balance: %w", err)
	}
	return balance, nil
}

// List returns the stored records in backend order. A response that is not
// a JSON array is treated as an empty list.
func (c *Client) List(ctx context.Context) ([]Record, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoints.url(c.endpoints.List), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []Record{}, nil
	}

	records := make([]Record, 0)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}

// Remove deletes a record and reports whether the backend confirmed it
func (c *Client) Remove(ctx context.Context, id int64) (bool, error) {
	return c.confirm(ctx, c.endpoints.url(c.endpoints.Remove), struct {
		ID int64 `json:"id"`
	}{ID: id})
}

// Edit replaces the amount and label of a record and reports whether the
// backend confirmed it
func (c *Client) Edit(ctx context.Context, id int64, amount decimal.Decimal, label string) (bool, error) {
	return c.confirm(ctx, c.endpoints.url(c.endpoints.Edit), struct {
		ID     int64       `json:"id"`
		Amount json.Number `json:"valor"`
		Label  string      `json:"descricao"`
	}{ID: id, Amount: amountNumber(amount), Label: label})
}

// confirm posts payload and reads the {"sucesso": bool} acknowledgement
func (c *Client) confirm(ctx context.Context, url string, payload any) (bool, error) {
	resp, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"sucesso"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decoding confirmation: %w", err)
	}
	return body.Success, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", url, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
