package ark

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"animstory/internal/pkg/id"
)

// ttsSuccessCode openspeech 成功返回码
const ttsSuccessCode = 3000

// TTSConfig TTS 配置
type TTSConfig struct {
	APIURL      string // 默认 https://openspeech.bytedance.com/api/v1/tts
	AccessToken string // 访问令牌（必需）
	AppID       string
	Cluster     string // 默认 volcano_tts
	VoiceType   string // 默认 BV115_streaming
	SampleRate  int    // 默认 24000
}

// TTSClient 火山引擎 TTS 客户端
type TTSClient struct {
	apiURL      string
	accessToken string
	appID       string
	cluster     string
	voiceType   string
	sampleRate  int
	httpClient  *http.Client
}

// NewTTSClient 创建 TTS 客户端
func NewTTSClient(cfg TTSConfig) (*TTSClient, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("TTS access token is required")
	}

	c := &TTSClient{
		apiURL:      cfg.APIURL,
		accessToken: cfg.AccessToken,
		appID:       cfg.AppID,
		cluster:     cfg.Cluster,
		voiceType:   cfg.VoiceType,
		sampleRate:  cfg.SampleRate,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	if c.apiURL == "" {
		c.apiURL = "https://openspeech.bytedance.com/api/v1/tts"
	}
	if c.cluster == "" {
		c.cluster = "volcano_tts"
	}
	if c.voiceType == "" {
		c.voiceType = "BV115_streaming"
	}
	if c.sampleRate == 0 {
		c.sampleRate = 24000
	}
	return c, nil
}

type ttsApp struct {
	AppID   string `json:"appid,omitempty"`
	Token   string `json:"token"`
	Cluster string `json:"cluster"`
}

type ttsUser struct {
	UID string `json:"uid"`
}

type ttsAudio struct {
	VoiceType  string  `json:"voice_type"`
	Encoding   string  `json:"encoding"`
	SampleRate int     `json:"sample_rate"`
	SpeedRatio float64 `json:"speed_ratio"`
}

type ttsRequestBody struct {
	ReqID     string `json:"reqid"`
	Text      string `json:"text"`
	TextType  string `json:"text_type"`
	Operation string `json:"operation"`
}

type ttsRequest struct {
	App     ttsApp         `json:"app"`
	User    ttsUser        `json:"user"`
	Audio   ttsAudio       `json:"audio"`
	Request ttsRequestBody `json:"request"`
}

type ttsResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Synthesize 合成整段语音，返回 mp3 数据
func (c *TTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	requestID := id.New()
	payload := ttsRequest{
		App:   ttsApp{AppID: c.appID, Token: c.accessToken, Cluster: c.cluster},
		User:  ttsUser{UID: requestID},
		Audio: ttsAudio{VoiceType: c.voiceType, Encoding: "mp3", SampleRate: c.sampleRate, SpeedRatio: 1.0},
		Request: ttsRequestBody{
			ReqID:     requestID,
			Text:      text,
			TextType:  "plain",
			Operation: "query",
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer; "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("request_id", requestID).Int("text_length", len(text)).Msg("sending TTS request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS request failed: status %d", resp.StatusCode)
	}

	var apiResp ttsResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Code != ttsSuccessCode {
		msg := apiResp.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("TTS response error: %s (code: %d)", msg, apiResp.Code)
	}
	if apiResp.Data == "" {
		return nil, errors.New("audio data not found in response")
	}

	audio, err := base64.StdEncoding.DecodeString(apiResp.Data)
	if err != nil {
		return nil, fmt.Errorf("decode audio data: %w", err)
	}
	return audio, nil
}
