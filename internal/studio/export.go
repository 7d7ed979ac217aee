package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"animstory/internal/model"
	"animstory/internal/pkg/id"
	"animstory/internal/pkg/storage"
)

// Manifest 导出清单
type Manifest struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	CreatedAt time.Time       `json:"createdAt"`
	Scenes    []ManifestScene `json:"scenes"`
}

// ManifestScene 清单中的单个分镜
type ManifestScene struct {
	Scene           int    `json:"scene"`
	Script          string `json:"script"`
	AnimationPrompt string `json:"animationPrompt"`
	Image           string `json:"image,omitempty"`    // 导出的图片地址
	Video           string `json:"video,omitempty"`    // 导出的视频地址
	VideoURL        string `json:"videoUrl,omitempty"` // 供应商原始视频地址
}

// ExportResult 导出结果
type ExportResult struct {
	ID          string
	ManifestURL string
	Manifest    Manifest
}

// Exporter 把会话产物写入存储
// 生成中的图片/视频不导出
type Exporter struct {
	storage    storage.Storage
	httpClient *http.Client
}

// NewExporter 创建导出器
func NewExporter(s storage.Storage, httpClient *http.Client) *Exporter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Exporter{storage: s, httpClient: httpClient}
}

// Export 导出到 stories/<id>/ 下
func (e *Exporter) Export(ctx context.Context, topic string, scenes []model.Scene) (res *ExportResult, err error) {
	exportID := id.NewCompact("story")
	prefix := path.Join("stories", exportID)
	manifestKey := path.Join(prefix, "manifest.json")
	logger := log.With().Str("export_id", exportID).Logger()

	exists, err := e.storage.Exists(ctx, manifestKey)
	if err != nil {
		return nil, fmt.Errorf("check export %s: %w", exportID, err)
	}
	if exists {
		return nil, fmt.Errorf("export %s already exists", exportID)
	}

	// 失败时删除已写入的对象，不留下半份导出
	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, key := range written {
			if derr := e.storage.Delete(context.WithoutCancel(ctx), key); derr != nil {
				logger.Warn().Err(derr).Str("key", key).Msg("failed to clean up partial export")
			}
		}
	}()

	manifest := Manifest{
		ID:        exportID,
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
		Scenes:    make([]ManifestScene, 0, len(scenes)),
	}

	for _, sc := range scenes {
		entry := ManifestScene{
			Scene:           sc.Number,
			Script:          sc.Script,
			AnimationPrompt: sc.AnimationPrompt,
		}

		if sc.Image.HasContent() {
			var key string
			key, entry.Image, err = e.exportImage(ctx, prefix, sc.Number, sc.Image)
			if err != nil {
				return nil, err
			}
			written = append(written, key)
		}

		if sc.Video != nil && !sc.Video.Generating && sc.Video.URL != "" {
			entry.VideoURL = sc.Video.URL
			var key string
			key, entry.Video, err = e.exportVideo(ctx, prefix, sc.Number, sc.Video.URL)
			if err != nil {
				return nil, err
			}
			written = append(written, key)
		}

		manifest.Scenes = append(manifest.Scenes, entry)
	}

	var data []byte
	data, err = json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestURL, err := e.storage.Upload(ctx, manifestKey, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, fmt.Errorf("upload manifest: %w", err)
	}

	logger.Info().Int("scenes", len(scenes)).Str("storage", e.storage.GetStorageType()).Msg("story exported")
	return &ExportResult{ID: exportID, ManifestURL: manifestURL, Manifest: manifest}, nil
}

func (e *Exporter) exportImage(ctx context.Context, prefix string, scene int, img *model.SceneImage) (string, string, error) {
	data, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		return "", "", fmt.Errorf("decode image for scene %d: %w", scene, err)
	}

	contentType := dataURLMediaType(img.DataURL)
	ext := ".jpg"
	if contentType == "image/png" {
		ext = ".png"
	}

	key := path.Join(prefix, fmt.Sprintf("scene_%d%s", scene, ext))
	url, err := e.storage.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", "", fmt.Errorf("upload image for scene %d: %w", scene, err)
	}
	return key, url, nil
}

func (e *Exporter) exportVideo(ctx context.Context, prefix string, scene int, videoURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("create video request for scene %d: %w", scene, err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download video for scene %d: %w", scene, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download video for scene %d: status %d", scene, resp.StatusCode)
	}

	key := path.Join(prefix, fmt.Sprintf("scene_%d.mp4", scene))
	url, err := e.storage.Upload(ctx, key, resp.Body, storage.ContentType(key))
	if err != nil {
		return "", "", fmt.Errorf("upload video for scene %d: %w", scene, err)
	}
	return key, url, nil
}

// dataURLMediaType 解析 data:<type>;base64, 前缀，缺省为 image/jpeg
func dataURLMediaType(dataURL string) string {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "image/jpeg"
	}
	mediaType, _, ok := strings.Cut(rest, ";")
	if !ok || mediaType == "" {
		return "image/jpeg"
	}
	return mediaType
}
