package studio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"animstory/internal/model"
	"animstory/internal/pkg/poll"
	"animstory/internal/pkg/remote"
)

// 代理服务端点
const (
	StoryEndpoint      = "/api/story"
	ImageEndpoint      = "/api/image"
	VideoStartEndpoint = "/api/video-start"
	VideoPollEndpoint  = "/api/video-poll"
)

// VideoPollInterval 视频状态轮询间隔，由供应商协议决定，客户端不可配置
const VideoPollInterval = 10 * time.Second

// ProtocolError 传输成功但接口内联报告的逻辑失败
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// Service 故事编排服务
// 封装故事、图片、视频三类操作；视频为「启动 -> 轮询 -> 结果」两阶段协议
type Service struct {
	client *remote.Client
	clock  poll.Clock
}

// NewService 创建故事编排服务
func NewService(client *remote.Client) *Service {
	return &Service{
		client: client,
		clock:  poll.RealClock,
	}
}

// GenerateStory 生成故事分镜
// 入参由调用方校验，这里不再重复校验；分镜按接口返回顺序原样返回
func (s *Service) GenerateStory(ctx context.Context, topic string, sceneCount int, opts model.AdvancedOptions) ([]model.Scene, error) {
	req := model.StoryRequest{
		Topic:          topic,
		NumberOfScenes: sceneCount,
		Options:        opts,
	}

	var resp []model.StoryScene
	if err := s.client.CallJSON(ctx, http.MethodPost, StoryEndpoint, req, &resp); err != nil {
		return nil, err
	}

	scenes := make([]model.Scene, len(resp))
	for i, sc := range resp {
		scenes[i] = sc.ToScene()
	}
	return scenes, nil
}

// GenerateImage 根据提示词生成图片
func (s *Service) GenerateImage(ctx context.Context, prompt string) (*model.ImageResult, error) {
	var resp model.ImageResult
	if err := s.client.CallJSON(ctx, http.MethodPost, ImageEndpoint, model.ImageRequest{Prompt: prompt}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateVideo 根据提示词和首帧图片生成视频，返回视频 URL
// 该调用会阻塞到供应商完成或失败，没有内置超时
func (s *Service) GenerateVideo(ctx context.Context, prompt, imageBase64 string) (string, error) {
	var start model.VideoStartResponse
	req := model.VideoStartRequest{Prompt: prompt, ImageBase64: imageBase64}
	if err := s.client.CallJSON(ctx, http.MethodPost, VideoStartEndpoint, req, &start); err != nil {
		return "", err
	}
	if start.OperationName == "" {
		return "", &ProtocolError{Message: "Failed to start video generation process."}
	}

	logger := log.With().Str("operation_name", start.OperationName).Logger()
	logger.Info().Msg("video generation started")

	probe := func(ctx context.Context) (model.VideoPollResult, error) {
		var result model.VideoPollResult
		endpoint := fmt.Sprintf("%s?operationName=%s", VideoPollEndpoint, url.QueryEscape(start.OperationName))
		err := s.client.CallJSON(ctx, http.MethodGet, endpoint, nil, &result)
		return result, err
	}

	result, err := poll.Until(ctx, probe, isVideoDone, VideoPollInterval,
		poll.WithClock(s.clock), poll.WithName("video:"+start.OperationName))
	if err != nil {
		logger.Warn().Err(err).Msg("video generation failed")
		return "", err
	}

	if result.VideoURL == "" {
		return "", &ProtocolError{Message: "Video generation finished but no URL was provided."}
	}

	logger.Info().Msg("video generation finished")
	return result.VideoURL, nil
}

// isVideoDone 轮询判定：内联 error 视为终止失败
func isVideoDone(r model.VideoPollResult) (bool, error) {
	if r.Error != "" {
		return false, &ProtocolError{Message: r.Error}
	}
	return r.Done, nil
}
