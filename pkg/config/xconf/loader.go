package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Loader 配置加载器。
//
// 持有一个 koanf 实例并提供并发安全的 Unmarshal 与 Reload。
// 通过 New 从文件创建，或通过 NewFromBytes 从内存数据创建。
type Loader struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string
	format Format
	delim  string
	tag    string
}

// Option 定义加载选项。
type Option func(*Loader)

// WithDelim 设置配置键分隔符。
// 默认为 "."，例如 "tiers.inference.requests_per_second"。
func WithDelim(delim string) Option {
	return func(l *Loader) {
		if delim != "" {
			l.delim = delim
		}
	}
}

// WithTag 设置 Unmarshal 使用的结构体标签名，默认为 "koanf"。
func WithTag(tag string) Option {
	return func(l *Loader) {
		if tag != "" {
			l.tag = tag
		}
	}
}

// New 从文件路径创建加载器。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func New(path string, opts ...Option) (*Loader, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	l := newLoader(path, format, opts)
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewFromBytes 从字节数据创建加载器。
// 需要显式指定格式，适用于 K8s ConfigMap 等场景。
// 空数据会创建一个空配置，Unmarshal 返回目标结构体的零值。
func NewFromBytes(data []byte, format Format, opts ...Option) (*Loader, error) {
	switch format {
	case FormatYAML, FormatJSON:
	default:
		return nil, ErrUnsupportedFormat
	}

	l := newLoader("", format, opts)
	k := koanf.New(l.delim)
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return nil, err
		}
	}
	l.k = k
	return l, nil
}

func newLoader(path string, format Format, opts []Option) *Loader {
	l := &Loader{
		path:   path,
		format: format,
		delim:  ".",
		tag:    "koanf",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Unmarshal 将指定路径的配置反序列化到目标结构体。
// path 为空字符串时反序列化整个配置。
func (l *Loader) Unmarshal(path string, target any) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := l.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: l.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Raw 返回底层的 koanf 实例，用于执行 koanf 支持的其他操作。
//
// 返回的指针在 Reload 后仍然有效，但指向旧配置（快照语义）。
// 推荐每次需要时调用 Raw，不要长期缓存返回的指针。
func (l *Loader) Raw() *koanf.Koanf {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.k
}

// Reload 重新读取并解析配置文件。
//
// 解析在锁外完成，仅在成功后替换内部实例，
// 解析失败时保留当前配置不变。
// 从字节数据创建的 Loader 调用会返回 ErrNotReloadable。
func (l *Loader) Reload() error {
	if l.path == "" {
		return ErrNotReloadable
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	k := koanf.New(l.delim)
	if err := loadData(k, data, l.format); err != nil {
		return err
	}

	l.mu.Lock()
	l.k = k
	l.mu.Unlock()
	return nil
}

// Path 返回配置文件路径。
// 从字节数据创建的 Loader 返回空字符串。
func (l *Loader) Path() string {
	return l.path
}

// Format 返回配置格式。
func (l *Loader) Format() Format {
	return l.format
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// loadData 解析数据到 koanf 实例。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
