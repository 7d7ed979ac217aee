package ark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// 视频任务状态
const (
	TaskStatusQueued    = "queued"
	TaskStatusRunning   = "running"
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
	TaskStatusCancelled = "cancelled"
	TaskStatusExpired   = "expired"
)

// VideoConfig Ark 视频生成配置
type VideoConfig struct {
	APIKey   string        // API Key（必需）
	BaseURL  string        // 默认 DefaultBaseURL
	Model    string        // 默认 doubao-seedance-1-0-lite-i2v-250428
	Ratio    string        // 默认 16:9
	Duration int           // 秒，默认 5
	Timeout  time.Duration // 单次请求超时，默认 2 分钟
}

// VideoTask 视频生成任务
type VideoTask struct {
	ID       string
	Status   string
	VideoURL string
	Error    string
}

// Done 任务是否进入终态
func (t *VideoTask) Done() bool {
	switch t.Status {
	case TaskStatusQueued, TaskStatusRunning, "":
		return false
	default:
		return true
	}
}

// FailureMessage 终态失败时面向用户的信息，成功时为空
func (t *VideoTask) FailureMessage() string {
	if !t.Done() || t.Status == TaskStatusSucceeded {
		return ""
	}
	if t.Error != "" {
		return t.Error
	}
	return fmt.Sprintf("Video generation %s.", t.Status)
}

// VideoClient Ark 视频生成客户端（contents/generations/tasks）
// 只负责提交和查询，轮询由调用方驱动
type VideoClient struct {
	baseURL    string
	apiKey     string
	model      string
	ratio      string
	duration   int
	httpClient *http.Client
}

// NewVideoClient 创建 Ark 视频生成客户端
func NewVideoClient(cfg VideoConfig) (*VideoClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ark api key is required")
	}

	c := &VideoClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		ratio:      cfg.Ratio,
		duration:   cfg.Duration,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = "doubao-seedance-1-0-lite-i2v-250428"
	}
	if c.ratio == "" {
		c.ratio = "16:9"
	}
	if c.duration <= 0 {
		c.duration = 5
	}
	if cfg.Timeout <= 0 {
		c.httpClient.Timeout = 2 * time.Minute
	}
	return c, nil
}

type contentItem struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type createTaskRequest struct {
	Model     string        `json:"model"`
	Content   []contentItem `json:"content"`
	Ratio     string        `json:"ratio"`
	Duration  int           `json:"duration"`
	Watermark bool          `json:"watermark"`
}

type taskResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Content struct {
		VideoURL string `json:"video_url"`
	} `json:"content"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateTask 提交图生视频任务，返回任务 ID
// imageDataURL 为 data:image/...;base64,... 格式
func (c *VideoClient) CreateTask(ctx context.Context, prompt, imageDataURL string) (string, error) {
	body := createTaskRequest{
		Model: c.model,
		Content: []contentItem{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL}},
		},
		Ratio:    c.ratio,
		Duration: c.duration,
	}

	log.Debug().Str("model", c.model).Int("duration", c.duration).Msg("creating video task")

	var resp taskResponse
	if err := c.do(ctx, http.MethodPost, "/contents/generations/tasks", body, &resp); err != nil {
		return "", fmt.Errorf("create video task: %w", err)
	}
	if resp.ID == "" {
		return "", errors.New("task ID is empty in response")
	}
	return resp.ID, nil
}

// GetTask 查询任务状态
func (c *VideoClient) GetTask(ctx context.Context, taskID string) (*VideoTask, error) {
	var resp taskResponse
	if err := c.do(ctx, http.MethodGet, "/contents/generations/tasks/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get video task: %w", err)
	}

	task := &VideoTask{
		ID:       taskID,
		Status:   resp.Status,
		VideoURL: resp.Content.VideoURL,
	}
	if resp.Error != nil {
		task.Error = resp.Error.Message
	}

	log.Debug().Str("task_id", taskID).Str("status", task.Status).Msg("video task status")
	return task, nil
}

func (c *VideoClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("path", path).
			Str("response_body", string(respBody)).
			Msg("ark API request failed")
		return fmt.Errorf("API request failed: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
