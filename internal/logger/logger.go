package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	levelVar   slog.LevelVar
	loggerMu   sync.RWMutex
	baseLogger *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	baseLogger = newLogger(os.Stdout)
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar})
	return slog.New(handler)
}

// SetOutput 替换全局日志输出（例如同时写入 stdout 与日志文件）。
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	baseLogger = newLogger(w)
	loggerMu.Unlock()
}

// ParseLevel maps a config string onto a slog level; unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel 可在运行期调用（配置热加载时会再次调用）。
func SetLevel(level string) {
	levelVar.Set(ParseLevel(level))
}

func activeLogger() *slog.Logger {
	loggerMu.RLock()
	l := baseLogger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if baseLogger == nil {
		baseLogger = newLogger(os.Stdout)
	}
	return baseLogger
}

func Debugf(format string, v ...any) {
	activeLogger().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	activeLogger().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	activeLogger().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	activeLogger().Error(fmt.Sprintf(format, v...))
}

// Component is a logger that tags every line with a component name and
// optional key/value attributes. It resolves the global logger lazily so that
// SetOutput calls made after construction still take effect.
type Component struct {
	attrs []any
}

// With returns a component-scoped logger.
func With(component string, kv ...any) *Component {
	attrs := make([]any, 0, len(kv)+2)
	attrs = append(attrs, "component", component)
	attrs = append(attrs, kv...)
	return &Component{attrs: attrs}
}

// With derives a child logger carrying extra attributes.
func (c *Component) With(kv ...any) *Component {
	if c == nil {
		return With("", kv...)
	}
	attrs := make([]any, 0, len(c.attrs)+len(kv))
	attrs = append(attrs, c.attrs...)
	attrs = append(attrs, kv...)
	return &Component{attrs: attrs}
}

func (c *Component) logger() *slog.Logger {
	l := activeLogger()
	if c == nil || len(c.attrs) == 0 {
		return l
	}
	return l.With(c.attrs...)
}

func (c *Component) Debugf(format string, v ...any) {
	c.logger().Debug(fmt.Sprintf(format, v...))
}

func (c *Component) Infof(format string, v ...any) {
	c.logger().Info(fmt.Sprintf(format, v...))
}

func (c *Component) Warnf(format string, v ...any) {
	c.logger().Warn(fmt.Sprintf(format, v...))
}

func (c *Component) Errorf(format string, v ...any) {
	c.logger().Error(fmt.Sprintf(format, v...))
}

// InfoBlock logs a multi-line block one line at a time.
func InfoBlock(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	for _, line := range strings.Split(block, "\n") {
		Infof("%s", line)
	}
}
