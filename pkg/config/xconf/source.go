package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// 键分隔符与结构体标签。
const (
	delim = "."
	tag   = "koanf"
)

// Source 是一份已解析的配置。
type Source struct {
	k      atomic.Pointer[koanf.Koanf]
	path   string
	format Format
	reload sync.Mutex // 串行化 Reload，避免旧内容覆盖新内容
}

// Open 从文件创建 Source，格式由扩展名决定（.yaml/.yml 或 .json）。
// 空文件得到空配置。
func Open(path string) (*Source, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	k, err := readFile(path, format)
	if err != nil {
		return nil, err
	}
	s := &Source{path: path, format: format}
	s.k.Store(k)
	return s, nil
}

// FromBytes 从字节数据创建 Source，需要显式指定格式。
// 这样创建的 Source 不能 Reload 也不能监视。
func FromBytes(data []byte, format Format) (*Source, error) {
	if !isValidFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	k, err := parse(data, format)
	if err != nil {
		return nil, err
	}
	s := &Source{format: format}
	s.k.Store(k)
	return s, nil
}

// Client 返回当前的 koanf 实例。不要长期持有，Reload 后它指向旧配置。
func (s *Source) Client() *koanf.Koanf {
	return s.k.Load()
}

// Unmarshal 将 path 下的配置反序列化到 target，path 为空时反序列化整个配置。
func (s *Source) Unmarshal(path string, target any) error {
	if err := s.k.Load().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新读取配置文件。失败时保留旧配置。
func (s *Source) Reload() error {
	if s.path == "" {
		return ErrNotFromFile
	}
	s.reload.Lock()
	defer s.reload.Unlock()

	k, err := readFile(s.path, s.format)
	if err != nil {
		return err
	}
	s.k.Store(k)
	return nil
}

// Path 返回配置文件路径，FromBytes 创建的 Source 返回空字符串。
func (s *Source) Path() string { return s.path }

// Format 返回配置格式。
func (s *Source) Format() Format { return s.format }

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func readFile(path string, format Format) (*koanf.Koanf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return parse(data, format)
}

func parse(data []byte, format Format) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}

	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
