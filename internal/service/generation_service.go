package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"animstory/internal/ai/chain"
	"animstory/internal/model"
	"animstory/internal/pkg/cache"
	"animstory/internal/provider"
)

var (
	// ErrInvalidInput 请求参数缺失
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyStory 模型没有返回可用的分镜
	ErrEmptyStory = errors.New("Invalid or empty response from API.")
	// ErrMissingCredential 未配置供应商凭证
	ErrMissingCredential = errors.New("API key is not configured")
	// ErrMissingOperation 供应商没有返回操作句柄
	ErrMissingOperation = errors.New("video operation started but no name was returned")
)

// ResultCache 视频轮询结果缓存，由 cache.RedisCache 实现
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// GenerationService 代理端生成服务
// 无状态：视频任务的全部状态由供应商保存，缓存只用于减少终态后的重复查询
type GenerationService struct {
	generators *provider.Set
	cache      ResultCache
}

// NewGenerationService 创建生成服务，cache 可为 nil
func NewGenerationService(generators *provider.Set, resultCache ResultCache) *GenerationService {
	return &GenerationService{
		generators: generators,
		cache:      resultCache,
	}
}

// GenerateStory 生成故事分镜
func (s *GenerationService) GenerateStory(ctx context.Context, req *model.StoryRequest) ([]model.StoryScene, error) {
	if strings.TrimSpace(req.Topic) == "" || req.NumberOfScenes <= 0 {
		return nil, fmt.Errorf("%w: topic, numberOfScenes", ErrInvalidInput)
	}

	logger := log.Ctx(ctx).With().Int("scenes", req.NumberOfScenes).Logger()

	scenes, err := s.generators.Story.GenerateStory(ctx, req.Topic, req.NumberOfScenes, req.Options)
	if errors.Is(err, chain.ErrInvalidResponse) {
		logger.Warn().Err(err).Msg("story model returned an unusable response")
		return nil, ErrEmptyStory
	}
	if err != nil {
		logger.Error().Err(err).Msg("story generation failed")
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, ErrEmptyStory
	}

	logger.Info().Int("received", len(scenes)).Msg("story generated")
	return scenes, nil
}

// GenerateImage 生成图片
func (s *GenerationService) GenerateImage(ctx context.Context, req *model.ImageRequest) (*model.ImageResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt", ErrInvalidInput)
	}

	data, mediaType, err := s.generators.Image.GenerateImage(ctx, req.Prompt)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("image generation failed")
		return nil, err
	}

	return &model.ImageResult{
		DataURL: provider.DataURL(mediaType, data),
		Base64:  data,
	}, nil
}

// StartVideo 提交视频任务，返回操作句柄
func (s *GenerationService) StartVideo(ctx context.Context, req *model.VideoStartRequest) (*model.VideoStartResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" || req.ImageBase64 == "" {
		return nil, fmt.Errorf("%w: prompt, imageBase64", ErrInvalidInput)
	}

	op, err := s.generators.Video.StartVideo(ctx, req.Prompt, req.ImageBase64)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("video start failed")
		return nil, err
	}
	if op == "" {
		return nil, ErrMissingOperation
	}

	log.Ctx(ctx).Info().Str("operation_name", op).Msg("video operation started")
	return &model.VideoStartResponse{OperationName: op}, nil
}

// PollVideo 查询视频任务状态
// 终态结果写入缓存；缓存故障只记录日志
func (s *GenerationService) PollVideo(ctx context.Context, operationName string) (*model.VideoPollResult, error) {
	if operationName == "" {
		return nil, fmt.Errorf("%w: operationName", ErrInvalidInput)
	}

	logger := log.Ctx(ctx).With().Str("operation_name", operationName).Logger()
	key := cache.VideoOperationKey(operationName)

	if s.cache != nil {
		var cached model.VideoPollResult
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			logger.Debug().Msg("video poll served from cache")
			return &cached, nil
		case !errors.Is(err, cache.ErrMiss):
			logger.Warn().Err(err).Msg("video poll cache read failed")
		}
	}

	result, err := s.generators.Video.PollVideo(ctx, operationName)
	if err != nil {
		logger.Error().Err(err).Msg("video poll failed")
		return nil, err
	}

	if result.Done && s.cache != nil {
		if err := s.cache.Set(ctx, key, result, cache.VideoOperationTTL); err != nil {
			logger.Warn().Err(err).Msg("video poll cache write failed")
		}
	}

	logger.Debug().Bool("done", result.Done).Msg("video polled")
	return result, nil
}
