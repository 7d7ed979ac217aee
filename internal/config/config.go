package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AI      AIConfig      `mapstructure:"ai"`
	Log     LogConfig     `mapstructure:"log"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Storage StorageConfig `mapstructure:"storage"`
	Studio  StudioConfig  `mapstructure:"studio"`
	Voice   VoiceConfig   `mapstructure:"voice"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AllowedOrigins 允许跨域的来源，为空时允许全部
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AIConfig 生成式 AI 服务配置
// Provider 为 mock 时不需要 APIKey
type AIConfig struct {
	Provider   string          `mapstructure:"provider"` // ark, openai, azure, mock
	APIKey     string          `mapstructure:"api_key"`
	Model      string          `mapstructure:"model"`       // 故事生成模型
	BaseURL    string          `mapstructure:"base_url"`    // 故事生成模型地址
	ArkBaseURL string          `mapstructure:"ark_base_url"` // 图片/视频生成地址
	ImageModel string          `mapstructure:"image_model"`
	VideoModel string          `mapstructure:"video_model"`
	Options    AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// IsMock 是否使用本地 mock 生成器
func (c *AIConfig) IsMock() bool {
	return c.Provider == "mock"
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
}

// StudioConfig 客户端编排配置
type StudioConfig struct {
	BaseURL        string        `mapstructure:"base_url"`        // 代理服务地址
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 单次请求超时
	Concurrency    int           `mapstructure:"concurrency"`     // 分镜并发数
}

// VoiceConfig 配音（TTS + 播放）配置
type VoiceConfig struct {
	APIURL      string   `mapstructure:"api_url"`
	AccessToken string   `mapstructure:"access_token"`
	AppID       string   `mapstructure:"app_id"`
	Cluster     string   `mapstructure:"cluster"`
	VoiceType   string   `mapstructure:"voice_type"`
	SampleRate  int      `mapstructure:"sample_rate"`
	Player      string   `mapstructure:"player"`      // 播放器可执行文件，默认 ffplay
	PlayerArgs  []string `mapstructure:"player_args"` // 播放器参数，音频从 stdin 读入
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	validProviders := map[string]bool{"ark": true, "openai": true, "azure": true, "mock": true}
	if !validProviders[c.AI.Provider] {
		return errors.New("invalid ai provider, must be ark/openai/azure/mock")
	}

	return nil
}
