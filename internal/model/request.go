package model

// StoryRequest 故事生成请求
type StoryRequest struct {
	Topic          string          `json:"topic"`
	NumberOfScenes int             `json:"numberOfScenes"`
	Options        AdvancedOptions `json:"options"`
}

// ImageRequest 图片生成请求
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// VideoStartRequest 视频生成启动请求
type VideoStartRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"imageBase64"`
}
