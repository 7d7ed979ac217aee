package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	httputil "animstory/internal/pkg/http"
)

// unknownErrorMessage 错误响应体无法解析时的提示
const unknownErrorMessage = "An unknown API error occurred"

// Error 传输层错误（非 2xx 响应）
type Error struct {
	Status  int    // HTTP 状态码
	Message string // 面向用户的错误信息
}

func (e *Error) Error() string {
	return e.Message
}

// Client 远程调用客户端
// 负责一次请求/响应、错误归一化和 JSON 解码，不做重试
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建远程调用客户端，timeout 为 0 表示不限制
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient 使用自定义 http.Client 创建客户端（测试使用）
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Call 发起请求并返回原始 JSON 响应体
// body 为 nil 时不发送请求体；响应形状由调用方解释
func (c *Client) Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("method", method).Str("endpoint", endpoint).Msg("remote call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &Error{Status: resp.StatusCode, Message: errorMessage(endpoint, resp.StatusCode, respBody)}
		log.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("message", rerr.Message).
			Msg("remote call failed")
		return nil, rerr
	}

	return json.RawMessage(respBody), nil
}

// CallJSON 发起请求并把成功响应解码到 out
func (c *Client) CallJSON(ctx context.Context, method, endpoint string, body, out any) error {
	raw, err := c.Call(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response %s: %w", endpoint, err)
	}
	return nil
}

// errorMessage 从错误响应体中提取错误信息
func errorMessage(endpoint string, status int, body []byte) string {
	var errResp httputil.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return unknownErrorMessage
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return fmt.Sprintf("Request to %s failed with status %d", endpoint, status)
}
