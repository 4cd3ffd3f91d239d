// Package aiclient talks to the remote image functions (generate, edit, enhance)
// and downloads the images they return.
package aiclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"MemoGallery/internal/model"

	"github.com/go-resty/resty/v2"
)

// MaxPromptLength — верхняя граница длины промпта в символах.
const MaxPromptLength = 500

const (
	generateFunction = "generate-ai-image"
	editFunction     = "edit-image"
	enhanceFunction  = "enhance-image"
)

var (
	// ErrEmptyPrompt — промпт пуст после обрезки пробелов.
	ErrEmptyPrompt = errors.New("prompt is required")
	// ErrPromptTooLong — промпт длиннее MaxPromptLength.
	ErrPromptTooLong = fmt.Errorf("prompt must be less than %d characters", MaxPromptLength)
	// ErrNotConfigured — адрес удалённых функций не задан.
	ErrNotConfigured = errors.New("ai service not configured")
	// ErrImageFetch — изображение не удалось скачать (сеть или ответ не 2xx).
	ErrImageFetch = errors.New("image download failed")
	// ErrImageTooLarge — изображение больше лимита WithMaxImageBytes.
	ErrImageTooLarge = fmt.Errorf("downloaded image: %w", model.ErrQuotaExceeded)
)

// APIError — ответ функции с кодом ошибки.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Credits *int   `json:"credits,omitempty"`
	Detail  string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ai api error (status %d): %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("ai api error (status %d): %s", e.Status, e.Message)
}

// GenerateResult — ответ generate-ai-image.
type GenerateResult struct {
	ImageURL string `json:"imageUrl"`
	Credits  int    `json:"credits"`
	Prompt   string `json:"prompt,omitempty"`
	Message  string `json:"message,omitempty"`
}

// EditResult — ответ edit-image.
type EditResult struct {
	EditedImage string `json:"editedImage"`
	Credits     int    `json:"credits"`
	Message     string `json:"message,omitempty"`
}

// EnhanceResult — ответ enhance-image.
type EnhanceResult struct {
	EnhancedImage string `json:"enhancedImage"`
}

// Client — HTTP-клиент удалённых функций.
type Client struct {
	http     *resty.Client
	baseURL  string
	maxImage int64
}

// New создаёт клиент. baseURL — корень функций, например https://xyz.supabase.co/functions/v1.
func New(baseURL string) *Client {
	c := resty.New().
		SetTimeout(90*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "memo-gallery/1.0")
	return &Client{http: c, baseURL: strings.TrimRight(baseURL, "/")}
}

// WithMaxImageBytes ограничивает размер скачиваемого изображения; 0 — без ограничения.
func (c *Client) WithMaxImageBytes(n int64) *Client {
	c.maxImage = n
	return c
}

// Configured сообщает, задан ли адрес функций.
func (c *Client) Configured() bool { return c != nil && c.baseURL != "" }

// ValidatePrompt обрезает пробелы и проверяет длину.
func ValidatePrompt(prompt string) (string, error) {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return "", ErrEmptyPrompt
	}
	if utf8.RuneCountInString(p) > MaxPromptLength {
		return "", ErrPromptTooLong
	}
	return p, nil
}

// Generate генерирует изображение по промпту. token — bearer-токен пользователя.
func (c *Client) Generate(ctx context.Context, token, prompt string) (*GenerateResult, error) {
	p, err := ValidatePrompt(prompt)
	if err != nil {
		return nil, err
	}
	var out GenerateResult
	if err := c.call(ctx, token, generateFunction, map[string]any{"prompt": p}, &out); err != nil {
		return nil, err
	}
	if out.ImageURL == "" {
		return nil, fmt.Errorf("%s: empty image url", generateFunction)
	}
	return &out, nil
}

// Edit применяет промпт к изображению imageData (data URL).
func (c *Client) Edit(ctx context.Context, token, imageData, prompt string) (*EditResult, error) {
	p, err := ValidatePrompt(prompt)
	if err != nil {
		return nil, err
	}
	var out EditResult
	body := map[string]any{"imageData": imageData, "prompt": p}
	if err := c.call(ctx, token, editFunction, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enhance улучшает изображение; deviceID привязывает бесплатные попытки к устройству.
func (c *Client) Enhance(ctx context.Context, token, imageData, deviceID string) (*EnhanceResult, error) {
	var out EnhanceResult
	body := map[string]any{"imageData": imageData, "deviceId": deviceID}
	if err := c.call(ctx, token, enhanceFunction, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, token, function string, body, result any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	apiErr := &APIError{}
	req := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(apiErr)
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Post(c.baseURL + "/" + function)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", function, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}
	return nil
}

// FetchImage скачивает изображение по http(s) или разбирает data: URL.
// Тело читается не больше лимита WithMaxImageBytes.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "data:") {
		b, err := DecodeDataURL(url)
		if err != nil {
			return nil, model.Invalid("image url: %v", err)
		}
		if err := c.checkSize(int64(len(b))); err != nil {
			return nil, err
		}
		return b, nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		scheme, _, _ := strings.Cut(url, ":")
		return nil, model.Invalid("unsupported image url scheme %q", scheme)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "image/*").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrImageFetch, resp.StatusCode())
	}
	var rd io.Reader = body
	if c.maxImage > 0 {
		rd = io.LimitReader(body, c.maxImage+1)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	if err := c.checkSize(int64(len(b))); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Client) checkSize(n int64) error {
	if c.maxImage > 0 && n > c.maxImage {
		return fmt.Errorf("%w (limit %d bytes)", ErrImageTooLarge, c.maxImage)
	}
	return nil
}

// DataURL кодирует содержимое в data URL с base64.
func DataURL(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// DecodeDataURL разбирает data URL в байты. Поддерживаются base64 и URL без кодирования.
func DecodeDataURL(url string) ([]byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, errors.New("not a data url")
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		return b, nil
	}
	return []byte(data), nil
}
