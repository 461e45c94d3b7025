package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"cruzador/internal/model"
	"cruzador/internal/service/reconcile"
	"cruzador/internal/util"
)

// ConfigFileName 默认配置文件名
const ConfigFileName = "config.toml"

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	History   HistoryConfig   `toml:"history"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int   `toml:"port"`
	DevMode     bool  `toml:"dev_mode"`
	MaxUploadMB int64 `toml:"max_upload_mb"`
	// ShutdownTimeoutSec 优雅退出等待时间
	ShutdownTimeoutSec int `toml:"shutdown_timeout_sec"`
}

// ReconcileConfig 核对配置
type ReconcileConfig struct {
	Mode           string `toml:"mode"`
	KeyColumn      string `toml:"key_column"`
	HighlightColor string `toml:"highlight_color"`
	AppendOrder    string `toml:"append_order"`
	SkipEmptyCodes bool   `toml:"skip_empty_codes"`
	OutputFilename string `toml:"output_filename"`
}

// HistoryConfig 核对历史（SQLite）配置
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// ListLimit 列表接口默认返回条数
	ListLimit int `toml:"list_limit"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:               5000,
			DevMode:            false,
			MaxUploadMB:        32,
			ShutdownTimeoutSec: 10,
		},
		Reconcile: ReconcileConfig{
			Mode:           string(model.MatchExact),
			KeyColumn:      reconcile.DefaultKeyColumn,
			HighlightColor: reconcile.DefaultHighlightColor,
			AppendOrder:    string(model.AppendSorted),
			OutputFilename: "inventario_cruzado.xlsx",
		},
		History: HistoryConfig{
			Enabled:   false,
			Path:      filepath.Join("data", "cruzador.db"),
			ListLimit: 50,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ReconcileOptions 转换为核对选项
func (c *AppConfig) ReconcileOptions() reconcile.Options {
	return reconcile.Options{
		Mode:           model.MatchMode(c.Reconcile.Mode),
		KeyColumn:      c.Reconcile.KeyColumn,
		HighlightColor: c.Reconcile.HighlightColor,
		AppendOrder:    model.AppendOrder(c.Reconcile.AppendOrder),
		SkipEmptyCodes: c.Reconcile.SkipEmptyCodes,
	}
}

// MaxUploadBytes 单次请求上传上限（字节）
func (c *AppConfig) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.Reconcile.OutputFilename == "" {
		return fmt.Errorf("reconcile.output_filename must not be empty")
	}
	if err := c.ReconcileOptions().Validate(); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	if c.History.ListLimit <= 0 {
		return fmt.Errorf("history.list_limit must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 可执行文件同目录下的 config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, ConfigFileName)
}

// LoadConfigWithInfo 从 path 加载配置并返回元信息；path 为空时使用 DefaultPath
// 文件不存在时返回默认配置
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}

	if err := config.Validate(); err != nil {
		return nil, info, err
	}

	return config, info, nil
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv("CRUZADOR_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CRUZADOR_PORT %q: %w", v, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := os.Getenv("CRUZADOR_MODE"); v != "" {
		config.Reconcile.Mode = v
	}
	if v := os.Getenv("CRUZADOR_HISTORY_PATH"); v != "" {
		config.History.Enabled = true
		config.History.Path = v
	}
	return nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return util.WriteFileAtomic(path, data)
}

// HistoryPath 历史库路径；相对路径以配置文件所在目录为基准
func HistoryPath(config *AppConfig, info LoadConfigInfo) string {
	p := config.History.Path
	if filepath.IsAbs(p) || info.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(info.Path), p)
}
