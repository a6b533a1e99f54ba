package service

import "errors"

var (
	// ErrMissingTimestamps 计费时间戳缺失，调用方需回填后重试
	ErrMissingTimestamps = errors.New("计费时间戳缺失")
	// ErrPermissionDenied 非系统调用方试图操作受保护字段或他人资源
	ErrPermissionDenied = errors.New("无权操作该资源")
)
