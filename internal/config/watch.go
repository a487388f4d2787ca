package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/johncarlocaintic/VictusGlobal/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReloadFunc 在配置文件变更并重新校验通过后被调用。
type ReloadFunc func(*Config)

// Watcher reloads the main config file on change. Only settings that are safe to
// swap at runtime (currently app.log_level) are expected to be acted upon by
// listeners; everything else requires a restart.
type Watcher struct {
	path string
	v    *viper.Viper

	mu        sync.Mutex
	current   *Config
	listeners []ReloadFunc
}

// NewWatcher 读取配置并开始监听 FS 事件。
func NewWatcher(path string, initial *Config) (*Watcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config watcher requires path")
	}
	v, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}
	w := &Watcher{path: path, v: v, current: initial}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := w.reload(); err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
		}
	})
	v.WatchConfig()
	return w, nil
}

// Subscribe 注册监听器。
func (w *Watcher) Subscribe(fn ReloadFunc) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Current returns the last successfully loaded config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	prev := w.current
	w.current = cfg
	listeners := append([]ReloadFunc(nil), w.listeners...)
	w.mu.Unlock()
	if prev != nil && prev.App.LogLevel != cfg.App.LogLevel {
		logger.Infof("config reloaded: log_level %s -> %s", prev.App.LogLevel, cfg.App.LogLevel)
	}
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}
