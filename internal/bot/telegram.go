package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Update is one long-poll result from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message carries the fields the bot cares about.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// ClientOptions parameterise the Telegram transport.
type ClientOptions struct {
	BotToken    string
	APIBase     string
	PollTimeout time.Duration
	SendTimeout time.Duration
}

// Client speaks the raw Telegram Bot API over HTTP.
type Client struct {
	opts        ClientOptions
	logger      zerolog.Logger
	sendClient  *http.Client
	pollClient  *http.Client
	baseURL     string
	pollTimeout time.Duration
}

// NewClient constructs a Telegram client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 50 * time.Second
	}

	baseURL := opts.APIBase
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &Client{
		opts:       opts,
		logger:     logger.With().Str("component", "telegram").Logger(),
		sendClient: &http.Client{Timeout: sendTimeout},
		// The poll client must outlive the long-poll window itself.
		pollClient:  &http.Client{Timeout: pollTimeout + 10*time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		pollTimeout: pollTimeout,
	}
}

// Updates long-polls getUpdates starting after offset.
func (c *Client) Updates(ctx context.Context, offset int64) ([]Update, error) {
	params := url.Values{}
	params.Set("timeout", strconv.Itoa(int(c.pollTimeout/time.Second)))
	params.Set("allowed_updates", `["message"]`)
	if offset != 0 {
		params.Set("offset", strconv.FormatInt(offset, 10))
	}

	endpoint := c.methodURL("getUpdates") + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create getUpdates request: %w", err)
	}

	resp, err := c.pollClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool     `json:"ok"`
		Description string   `json:"description"`
		Result      []Update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates returned ok=false: %s", result.Description)
	}

	return result.Result, nil
}

// SendMessage posts a plain-text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	payload := map[string]string{
		"chat_id": chatID,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, "sendMessage")
}

// SendPhoto uploads a PNG with a caption via multipart form data.
func (c *Client) SendPhoto(ctx context.Context, chatID, caption string, png []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", chatID); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("photo", "balance.png")
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return fmt.Errorf("write photo bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &body)
	if err != nil {
		return fmt.Errorf("create sendPhoto request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, "sendPhoto")
}

func (c *Client) send(req *http.Request, method string) error {
	resp, err := c.sendClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("%s returned ok=false: %s", method, result.Description)
		}
	}

	c.logger.Debug().Str("method", method).Msg("telegram call succeeded")
	return nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.opts.BotToken, method)
}

// ParseCommand extracts a bot command name from message text, tolerating the
// @BotName suffix and trailing arguments. Returns "" for non-command text.
func ParseCommand(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return ""
	}

	head := trimmed[1:]
	if idx := strings.IndexAny(head, " \t\n"); idx >= 0 {
		head = head[:idx]
	}
	if idx := strings.IndexByte(head, '@'); idx >= 0 {
		head = head[:idx]
	}
	return strings.ToLower(head)
}

// ChatIDString renders a numeric chat id in the form the Bot API accepts.
func ChatIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
