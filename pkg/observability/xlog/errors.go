package xlog

import "errors"

var (
	// ErrUnknownLevel 表示无法解析的日志级别字符串。
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 表示不支持的输出格式。
	ErrUnknownFormat = errors.New("xlog: unknown format")

	// ErrEmptyFilename 表示轮转文件名为空。
	ErrEmptyFilename = errors.New("xlog: empty rotation filename")

	// ErrBuilderUsed 表示 Builder 已经 Build 过。
	ErrBuilderUsed = errors.New("xlog: builder already built")
)
