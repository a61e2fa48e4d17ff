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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dfxyz/main-wrapper/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig tests configuration loading
// TestLoadConfig 测试配置加载
func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "main-wrapper.yaml")

	configContent := `
platform:
  dialect: posix

instance:
  tag_file: /var/run/app/app.process.uuid

launch:
  mode: jvm
  executable: /usr/bin/java
  runtime_flags:
    - "-Xmx512m"
    - "-Dlog.dir=/var/log/app"
  entry_point: /opt/app/app.jar
  env:
    - "APP_HOME=/opt/app"
  dir: /opt/app
  output_file: /var/log/app/out.log

restart:
  max_attempts: 5
  initial_interval: 100ms
  max_interval: 1s

log:
  level: debug
  file: /var/log/app/wrapper.log
  max_size: 50
  max_backups: 5
  max_age: 14
  compress: true
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "posix", cfg.Platform.Dialect)
	assert.Equal(t, platform.POSIX, cfg.Dialect())
	assert.Equal(t, "/var/run/app/app.process.uuid", cfg.Instance.TagFile)
	assert.Equal(t, "jvm", cfg.Launch.Mode)
	assert.Equal(t, "/usr/bin/java", cfg.Launch.Executable)
	assert.Equal(t, []string{"-Xmx512m", "-Dlog.dir=/var/log/app"}, cfg.Launch.RuntimeFlags)
	assert.Equal(t, "/opt/app/app.jar", cfg.Launch.EntryPoint)
	assert.Equal(t, []string{"APP_HOME=/opt/app"}, cfg.Launch.Env)
	assert.Equal(t, DefaultArchiveSuffix, cfg.Launch.ArchiveSuffix)
	assert.Equal(t, DefaultArchiveFlag, cfg.Launch.ArchiveFlag)
	assert.Equal(t, 5, cfg.Restart.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Restart.InitialInterval)
	assert.Equal(t, time.Second, cfg.Restart.MaxInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/log/app/wrapper.log", cfg.Log.File)
	assert.Equal(t, 50, cfg.Log.MaxSize)
	assert.Equal(t, 5, cfg.Log.MaxBackups)
	assert.Equal(t, 14, cfg.Log.MaxAge)
	assert.True(t, cfg.Log.Compress)
	assert.NoError(t, cfg.Validate())
}

// TestLoadConfigDefaults tests default configuration values when no file exists
// TestLoadConfigDefaults 测试配置文件不存在时的默认值
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDialect, cfg.Platform.Dialect)
	assert.Equal(t, DefaultTagFile, cfg.Instance.TagFile)
	assert.Equal(t, DefaultLaunchMode, cfg.Launch.Mode)
	assert.Empty(t, cfg.Launch.Executable)
	assert.Empty(t, cfg.Launch.RuntimeFlags)
	assert.Equal(t, DefaultWindowTitle, cfg.Launch.WindowTitle)
	assert.Equal(t, DefaultRestartMaxAttempts, cfg.Restart.MaxAttempts)
	assert.Equal(t, DefaultRestartInitialInterval, cfg.Restart.InitialInterval)
	assert.Equal(t, DefaultRestartMaxInterval, cfg.Restart.MaxInterval)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, DefaultLogMaxSize, cfg.Log.MaxSize)
	assert.Equal(t, platform.Current(), cfg.Dialect())
	assert.NoError(t, cfg.Validate())
}

// TestLoadConfigInvalidFile tests that a malformed file is reported
// TestLoadConfigInvalidFile 测试格式错误的配置文件会报错
func TestLoadConfigInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "main-wrapper.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("launch: [unclosed\n"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

// TestLoadConfigEnvPath tests locating the config file through MAINWRAPPER_CONFIG_PATH
// TestLoadConfigEnvPath 测试通过 MAINWRAPPER_CONFIG_PATH 定位配置文件
func TestLoadConfigEnvPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("instance:\n  tag_file: custom.uuid\n"), 0644))
	t.Setenv(EnvConfigPath, configPath)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "custom.uuid", cfg.Instance.TagFile)
}

// TestLoadConfigPriority tests overrides > env > file > defaults
// TestLoadConfigPriority 测试优先级：覆盖值 > 环境变量 > 文件 > 默认值
func TestLoadConfigPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "main-wrapper.yaml")
	configContent := `
instance:
  tag_file: from-file.uuid
log:
  level: info
launch:
  window_title: file-title
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	t.Setenv("MAINWRAPPER_LOG_LEVEL", "error")
	t.Setenv("MAINWRAPPER_LAUNCH_WINDOW_TITLE", "env-title")

	cfg, err := LoadWithOverrides(configPath, map[string]interface{}{
		"launch.window_title": "override-title",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-file.uuid", cfg.Instance.TagFile)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "override-title", cfg.Launch.WindowTitle)
	assert.Equal(t, DefaultLaunchMode, cfg.Launch.Mode)
}

// TestValidateConfig tests configuration validation
// TestValidateConfig 测试配置验证
func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown dialect",
			mutate:  func(c *Config) { c.Platform.Dialect = "plan9" },
			wantErr: "plan9",
		},
		{
			name:    "empty tag file",
			mutate:  func(c *Config) { c.Instance.TagFile = "  " },
			wantErr: "instance.tag_file",
		},
		{
			name:    "unknown launch mode",
			mutate:  func(c *Config) { c.Launch.Mode = "python" },
			wantErr: "invalid launch mode",
		},
		{
			name:    "jvm without entry point",
			mutate:  func(c *Config) { c.Launch.Mode = "jvm" },
			wantErr: "entry_point",
		},
		{
			name: "jvm with entry point",
			mutate: func(c *Config) {
				c.Launch.Mode = "jvm"
				c.Launch.EntryPoint = "com.example.Main"
			},
		},
		{
			name:    "native mode with non-property flag",
			mutate:  func(c *Config) { c.Launch.RuntimeFlags = []string{"-Xmx512m"} },
			wantErr: "launch.runtime_flags",
		},
		{
			name:   "native mode with property flag",
			mutate: func(c *Config) { c.Launch.RuntimeFlags = []string{"-Dapp.home=/opt/app"} },
		},
		{
			name:    "malformed env entry",
			mutate:  func(c *Config) { c.Launch.Env = []string{"=value"} },
			wantErr: "launch.env",
		},
		{
			name:    "zero restart attempts",
			mutate:  func(c *Config) { c.Restart.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
		{
			name:    "negative restart interval",
			mutate:  func(c *Config) { c.Restart.InitialInterval = -time.Second },
			wantErr: "intervals",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFromYAML([]byte("{}"))
			require.NoError(t, err)
			tc.mutate(cfg)

			err = cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// TestConfigString tests the debugging representation
// TestConfigString 测试调试用字符串表示
func TestConfigString(t *testing.T) {
	cfg, err := LoadFromYAML([]byte("launch:\n  executable: /usr/bin/java\n"))
	require.NoError(t, err)

	s := cfg.String()
	assert.Contains(t, s, "Launch.Executable: /usr/bin/java")
	assert.Contains(t, s, "Instance.TagFile: "+DefaultTagFile)
}

// TestConfigEqual tests that nil and empty lists compare equal
// TestConfigEqual 测试 nil 与空列表比较相等
func TestConfigEqual(t *testing.T) {
	a, err := LoadFromYAML([]byte("{}"))
	require.NoError(t, err)
	b, err := LoadFromYAML([]byte("{}"))
	require.NoError(t, err)

	a.Launch.RuntimeFlags = nil
	b.Launch.RuntimeFlags = []string{}
	assert.True(t, a.Equal(b))

	b.Launch.RuntimeFlags = []string{"-Xmx1g"}
	assert.False(t, a.Equal(b))

	var nilCfg *Config
	assert.False(t, a.Equal(nilCfg))
	assert.True(t, nilCfg.Equal(nil))
}
