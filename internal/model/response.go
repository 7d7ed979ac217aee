package model

// StoryScene 故事接口返回的分镜（不含图片/视频）
type StoryScene struct {
	Scene           int    `json:"scene"`
	Script          string `json:"script"`
	AnimationPrompt string `json:"animationPrompt"`
}

// ToScene 转换为会话中的分镜
func (s StoryScene) ToScene() Scene {
	return Scene{
		Number:          s.Scene,
		Script:          s.Script,
		AnimationPrompt: s.AnimationPrompt,
	}
}

// ImageResult 图片生成结果
type ImageResult struct {
	DataURL string `json:"dataUrl"`
	Base64  string `json:"base64"`
}

// VideoStartResponse 视频生成启动响应
type VideoStartResponse struct {
	OperationName string `json:"operationName"`
}

// VideoPollResult 视频生成轮询结果
// Error 非空表示供应商报告了失败（软错误）
type VideoPollResult struct {
	Done     bool   `json:"done"`
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}
