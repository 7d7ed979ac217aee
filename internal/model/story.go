package model

// 分镜数量范围（展示层约束，客户端在请求前校验）
const (
	MinScenes     = 3
	MaxScenes     = 10
	DefaultScenes = 5
)

// Scene 分镜
// Number 从 1 开始，在一个故事内唯一，创建后不可变
type Scene struct {
	Number          int         `json:"scene"`           // 分镜序号
	Script          string      `json:"script"`          // 配音脚本
	AnimationPrompt string      `json:"animationPrompt"` // 动画提示词
	Image           *SceneImage `json:"image,omitempty"` // 生成的图片（可选）
	Video           *SceneVideo `json:"video,omitempty"` // 生成的视频（可选）
}

// SceneImage 分镜图片
// Generating 为 true 时内容字段必须为空
type SceneImage struct {
	DataURL    string `json:"dataUrl"`
	Base64     string `json:"base64"`
	Generating bool   `json:"generating,omitempty"`
}

// HasContent 图片内容是否可用
func (i *SceneImage) HasContent() bool {
	return i != nil && !i.Generating && i.Base64 != ""
}

// SceneVideo 分镜视频
type SceneVideo struct {
	URL        string `json:"url"`
	Generating bool   `json:"generating,omitempty"`
}

// Clone 深拷贝，快照使用
func (s Scene) Clone() Scene {
	out := s
	if s.Image != nil {
		img := *s.Image
		out.Image = &img
	}
	if s.Video != nil {
		v := *s.Video
		out.Video = &v
	}
	return out
}

// AdvancedOptions 故事生成的高级选项，空字符串表示不限制
type AdvancedOptions struct {
	Genre    string `json:"genre"`
	Audience string `json:"audience"`
	Tone     string `json:"tone"`
	Include  string `json:"include"`
	Avoid    string `json:"avoid"`
}
