package session

import "errors"

var (
	// ErrOperationInProgress 同一目标的操作仍在进行，本次触发被忽略
	ErrOperationInProgress = errors.New("operation already in progress")
	// ErrSceneNotFound 分镜序号不存在
	ErrSceneNotFound = errors.New("scene not found")
	// ErrClosed 会话已关闭
	ErrClosed = errors.New("session closed")
	// ErrVoiceUnavailable 未配置配音引擎
	ErrVoiceUnavailable = errors.New("voiceover is not available")
)

// ValidationError 本地前置条件不满足，不会发起网络请求
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
