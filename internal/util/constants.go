package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const MimeAudioMPEG = "audio/mpeg"

// 语音文件在存储中的目录前缀
const SpeechObjectPrefix = "speech/"

// 上下文中保存认证信息的键
const ContextUserKey = "user"

// 测验默认限时（秒）
const DefaultQuizTimeLimit = 1800
