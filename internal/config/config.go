/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config provides configuration management for the main wrapper.
// config 包提供 main wrapper 的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Programmatic overrides from the host application / 宿主应用的程序化覆盖
// 2. Environment variables (MAINWRAPPER_*) / 环境变量
// 3. Configuration file / 配置文件
// 4. Default values / 默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dfxyz/main-wrapper/internal/platform"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath             = "main-wrapper.yaml"
	DefaultDialect                = platform.DialectAuto
	DefaultTagFile                = "app.process.uuid"
	DefaultLaunchMode             = "native"
	DefaultArchiveSuffix          = ".jar"
	DefaultArchiveFlag            = "-jar"
	DefaultWindowTitle            = "title"
	DefaultRestartMaxAttempts     = 10
	DefaultRestartInitialInterval = 200 * time.Millisecond
	DefaultRestartMaxInterval     = 2 * time.Second
	DefaultLogLevel               = "warn"
	DefaultLogMaxSize             = 100 // MB
	DefaultLogMaxBackups          = 3
	DefaultLogMaxAge              = 7 // days
)

// Environment variable names
// 环境变量名
const (
	EnvPrefix     = "MAINWRAPPER"
	EnvConfigPath = "MAINWRAPPER_CONFIG_PATH"
)

// Config represents the main wrapper configuration
// Config 表示 main wrapper 配置
type Config struct {
	// Platform dialect configuration / 平台方言配置
	Platform PlatformConfig `mapstructure:"platform" yaml:"platform"`

	// Instance tag configuration / 实例标签配置
	Instance InstanceConfig `mapstructure:"instance" yaml:"instance"`

	// Relaunch configuration / 重新启动配置
	Launch LaunchConfig `mapstructure:"launch" yaml:"launch"`

	// Restart wait configuration / 重启等待配置
	Restart RestartConfig `mapstructure:"restart" yaml:"restart"`

	// Log configuration / 日志配置
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// PlatformConfig selects the process-management dialect
// PlatformConfig 选择进程管理方言
type PlatformConfig struct {
	// Dialect is auto, posix or windows
	// Dialect 取值 auto、posix 或 windows
	Dialect string `mapstructure:"dialect" yaml:"dialect"`
}

// InstanceConfig locates the instance tag file
// InstanceConfig 指定实例标签文件
type InstanceConfig struct {
	// TagFile is the path of the single-line tag file
	// TagFile 是单行标签文件的路径
	TagFile string `mapstructure:"tag_file" yaml:"tag_file"`
}

// LaunchConfig describes how the application is relaunched
// LaunchConfig 描述如何重新启动应用
type LaunchConfig struct {
	// Mode is native (self-contained executable) or jvm (needs an entry point)
	// Mode 为 native（自包含可执行文件）或 jvm（需要入口）
	Mode string `mapstructure:"mode" yaml:"mode"`

	// Executable is the runtime executable; empty means the supervisor itself
	// Executable 是运行时可执行文件；为空表示守护进程自身
	Executable string `mapstructure:"executable" yaml:"executable"`

	// RuntimeFlags are placed before the tag marker
	// RuntimeFlags 放在标签标记之前
	RuntimeFlags []string `mapstructure:"runtime_flags" yaml:"runtime_flags"`

	// EntryPoint is the main class or archive path
	// EntryPoint 是主类或归档文件路径
	EntryPoint string `mapstructure:"entry_point" yaml:"entry_point"`

	ArchiveSuffix string `mapstructure:"archive_suffix" yaml:"archive_suffix"`
	ArchiveFlag   string `mapstructure:"archive_flag" yaml:"archive_flag"`

	// Env holds KEY=VALUE pairs added to the inherited environment
	// Env 保存追加到继承环境中的 KEY=VALUE
	Env []string `mapstructure:"env" yaml:"env"`

	Dir         string `mapstructure:"dir" yaml:"dir"`
	OutputFile  string `mapstructure:"output_file" yaml:"output_file"`
	WindowTitle string `mapstructure:"window_title" yaml:"window_title"`
}

// RestartConfig bounds the wait for the previous instance during restart
// RestartConfig 限制重启时等待旧实例退出的时长
type RestartConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
}

// LogConfig contains logging settings
// LogConfig 包含日志设置
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level" yaml:"level"`

	// File is the log file path; empty logs to stderr only
	// File 是日志文件路径；为空时只输出到标准错误
	File string `mapstructure:"file" yaml:"file"`

	// MaxSize is the maximum size of log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`

	// MaxBackups is the maximum number of old log files to retain
	// MaxBackups 是保留的旧日志文件的最大数量
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`

	// MaxAge is the maximum number of days to retain old log files
	// MaxAge 是保留旧日志文件的最大天数
	MaxAge int `mapstructure:"max_age" yaml:"max_age"`

	// Compress gzips rotated files
	// Compress 压缩轮转后的文件
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	return LoadWithOverrides(configPath, nil)
}

// LoadWithOverrides loads configuration and applies overrides with the highest priority
// LoadWithOverrides 加载配置并以最高优先级应用覆盖值
// Priority: overrides > envVars > configFile > defaults
// 优先级：覆盖值 > 环境变量 > 配置文件 > 默认值
func LoadWithOverrides(configPath string, overrides map[string]interface{}) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	v.SetConfigFile(configPath)

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file / 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults / 文件不存在时使用默认值
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("platform.dialect", DefaultDialect)

	v.SetDefault("instance.tag_file", DefaultTagFile)

	v.SetDefault("launch.mode", DefaultLaunchMode)
	v.SetDefault("launch.executable", "")
	v.SetDefault("launch.runtime_flags", []string{})
	v.SetDefault("launch.entry_point", "")
	v.SetDefault("launch.archive_suffix", DefaultArchiveSuffix)
	v.SetDefault("launch.archive_flag", DefaultArchiveFlag)
	v.SetDefault("launch.env", []string{})
	v.SetDefault("launch.dir", "")
	v.SetDefault("launch.output_file", "")
	v.SetDefault("launch.window_title", DefaultWindowTitle)

	v.SetDefault("restart.max_attempts", DefaultRestartMaxAttempts)
	v.SetDefault("restart.initial_interval", DefaultRestartInitialInterval)
	v.SetDefault("restart.max_interval", DefaultRestartMaxInterval)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)
	v.SetDefault("log.compress", false)
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	if _, err := platform.Parse(c.Platform.Dialect); err != nil {
		return err
	}

	if strings.TrimSpace(c.Instance.TagFile) == "" {
		return errors.New("instance.tag_file is required")
	}

	switch c.Launch.Mode {
	case "native":
		// The relaunched binary reads leading -D tokens as properties; anything else would be taken as the verb
		// 重新启动的程序只把前置的 -D 参数当作属性，其他参数会被当作子命令
		for _, flag := range c.Launch.RuntimeFlags {
			if !strings.HasPrefix(flag, "-D") || len(flag) < 3 {
				return fmt.Errorf("invalid launch.runtime_flags entry %q (native mode accepts only -Dkey=value)", flag)
			}
		}
	case "jvm":
		if strings.TrimSpace(c.Launch.EntryPoint) == "" {
			return errors.New("launch.entry_point is required in jvm mode")
		}
	default:
		return fmt.Errorf("invalid launch mode: %s (must be native or jvm)", c.Launch.Mode)
	}

	for _, kv := range c.Launch.Env {
		if i := strings.Index(kv, "="); i <= 0 {
			return fmt.Errorf("invalid launch.env entry %q (must be KEY=VALUE)", kv)
		}
	}

	if c.Restart.MaxAttempts <= 0 {
		return errors.New("restart.max_attempts must be positive")
	}
	if c.Restart.InitialInterval <= 0 || c.Restart.MaxInterval <= 0 {
		return errors.New("restart intervals must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	return nil
}

// Dialect returns the parsed platform dialect
// Dialect 返回解析后的平台方言
func (c *Config) Dialect() platform.Dialect {
	d, err := platform.Parse(c.Platform.Dialect)
	if err != nil {
		return platform.Current()
	}
	return d
}

// String returns a string representation of the config (for debugging)
// String 返回配置的字符串表示（用于调试）
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Platform.Dialect: %s, Instance.TagFile: %s, Launch.Mode: %s, Launch.Executable: %s, Log.Level: %s}",
		c.Platform.Dialect,
		c.Instance.TagFile,
		c.Launch.Mode,
		c.Launch.Executable,
		c.Log.Level,
	)
}

// ToYAML serializes the configuration to YAML format
// ToYAML 将配置序列化为 YAML 格式
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// LoadFromYAML loads configuration from YAML bytes
// LoadFromYAML 从 YAML 字节加载配置
func LoadFromYAML(yamlData []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults first / 首先设置默认值
	setDefaults(v)

	if err := v.ReadConfig(strings.NewReader(string(yamlData))); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Equal compares two configs for equality; nil and empty lists are equal
// Equal 比较两个配置是否相等；nil 与空列表视为相等
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}

	if c.Platform != other.Platform || c.Instance != other.Instance ||
		c.Restart != other.Restart || c.Log != other.Log {
		return false
	}

	a, b := c.Launch, other.Launch
	if a.Mode != b.Mode || a.Executable != b.Executable || a.EntryPoint != b.EntryPoint ||
		a.ArchiveSuffix != b.ArchiveSuffix || a.ArchiveFlag != b.ArchiveFlag ||
		a.Dir != b.Dir || a.OutputFile != b.OutputFile || a.WindowTitle != b.WindowTitle {
		return false
	}
	return stringsEqual(a.RuntimeFlags, b.RuntimeFlags) && stringsEqual(a.Env, b.Env)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
