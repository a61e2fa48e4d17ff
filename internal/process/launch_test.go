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

package process

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeExecutable creates a file with the given mode in a temp directory
// writeExecutable 在临时目录中创建指定权限的文件
func writeExecutable(t *testing.T, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode))
	return path
}

// TestBuildLaunchSpec tests command line reconstruction
// TestBuildLaunchSpec 测试命令行重建
func TestBuildLaunchSpec(t *testing.T) {
	self, err := os.Executable()
	require.NoError(t, err)
	self, err = filepath.Abs(self)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		cfg        LaunchConfig
		wantTokens []string
	}{
		{
			name:       "native defaults to own executable",
			cfg:        LaunchConfig{Mode: ModeNative},
			wantTokens: []string{self, "-Dapp.process.uuid=tag-1", "run", "a", "b c"},
		},
		{
			name: "runtime flags precede the tag",
			cfg:  LaunchConfig{Mode: ModeNative, RuntimeFlags: []string{"-Dlog.dir=/var/log/app", "-Xmx512m"}},
			wantTokens: []string{
				self, "-Dlog.dir=/var/log/app", "-Xmx512m", "-Dapp.process.uuid=tag-1", "run", "a", "b c",
			},
		},
		{
			name: "archive entry point",
			cfg: LaunchConfig{
				Mode: ModeJVM, Executable: self, EntryPoint: "/opt/app/app.jar",
				ArchiveSuffix: ".jar", ArchiveFlag: "-jar",
			},
			wantTokens: []string{self, "-Dapp.process.uuid=tag-1", "-jar", "/opt/app/app.jar", "run", "a", "b c"},
		},
		{
			name: "main class entry point",
			cfg: LaunchConfig{
				Mode: ModeJVM, Executable: self, EntryPoint: "com.example.Main",
				ArchiveSuffix: ".jar", ArchiveFlag: "-jar",
			},
			wantTokens: []string{self, "-Dapp.process.uuid=tag-1", "com.example.Main", "run", "a", "b c"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := BuildLaunchSpec(tc.cfg, "tag-1", []string{"a", "b c"})
			require.NoError(t, err)
			assert.Equal(t, tc.wantTokens, spec.Tokens())
		})
	}
}

func TestBuildLaunchSpec_Environment(t *testing.T) {
	t.Setenv("MAINWRAPPER_TEST_INHERITED", "yes")

	spec, err := BuildLaunchSpec(LaunchConfig{
		Mode:        ModeNative,
		Env:         []string{"APP_HOME=/opt/app", "CLASSPATH=/opt/app/lib/*"},
		Dir:         "/opt/app",
		OutputFile:  "/opt/app/logs/out.log",
		WindowTitle: "my app",
	}, "tag-1", nil)
	require.NoError(t, err)

	assert.Contains(t, spec.Env, "MAINWRAPPER_TEST_INHERITED=yes")
	n := len(spec.Env)
	assert.Equal(t, []string{"APP_HOME=/opt/app", "CLASSPATH=/opt/app/lib/*"}, spec.Env[n-2:])
	assert.Equal(t, "/opt/app", spec.Dir)
	assert.Equal(t, "/opt/app/logs/out.log", spec.OutputFile)
	assert.Equal(t, "my app", spec.Title)
	assert.Empty(t, spec.Args)
}

// TestBuildLaunchSpec_EnvironmentErrors tests executable and entry point failures
// TestBuildLaunchSpec_EnvironmentErrors 测试可执行文件和入口相关的错误
func TestBuildLaunchSpec_EnvironmentErrors(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       func(t *testing.T) LaunchConfig
		posixOnly bool
	}{
		{
			name: "missing executable",
			cfg: func(t *testing.T) LaunchConfig {
				return LaunchConfig{Executable: filepath.Join(t.TempDir(), "nope")}
			},
		},
		{
			name: "executable not on PATH",
			cfg: func(t *testing.T) LaunchConfig {
				return LaunchConfig{Executable: "definitely-not-a-runtime-7f3a"}
			},
		},
		{
			name: "directory",
			cfg: func(t *testing.T) LaunchConfig {
				return LaunchConfig{Executable: t.TempDir()}
			},
		},
		{
			name: "not executable",
			cfg: func(t *testing.T) LaunchConfig {
				return LaunchConfig{Executable: writeExecutable(t, "app", 0o644)}
			},
			posixOnly: true,
		},
		{
			name: "jvm without entry point",
			cfg: func(t *testing.T) LaunchConfig {
				return LaunchConfig{Mode: ModeJVM, EntryPoint: "  "}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.posixOnly && runtime.GOOS == "windows" {
				t.Skip("POSIX permission bits")
			}
			spec, err := BuildLaunchSpec(tc.cfg(t), "tag-1", nil)
			assert.ErrorIs(t, err, ErrEnvironment)
			assert.Nil(t, spec)
		})
	}
}

func TestBuildLaunchSpec_ExecutableScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits")
	}
	path := writeExecutable(t, "app", 0o755)

	spec, err := BuildLaunchSpec(LaunchConfig{Executable: path}, "tag-1", nil)
	require.NoError(t, err)
	assert.Equal(t, path, spec.Executable)
}

func TestLaunchCommandLines(t *testing.T) {
	quoted := []string{`"/opt/my app/app"`, "-Dapp.process.uuid=tag-1", "run", `'say "hi"'`}

	assert.Equal(t, []string{
		"/bin/sh", "-c", `exec "$@"`, "sh", "/opt/my app/app", "-Dapp.process.uuid=tag-1", "run", `say "hi"`,
	}, posixShellArgs(quoted))
	assert.Equal(t, []string{
		"/bin/sh", "-c", `exec "$@"`, "sh", "/opt/app", "a;b", "x>f", "*", "$HOME", "`id`",
	}, posixShellArgs([]string{"/opt/app", "a;b", "x>f", "*", "$HOME", "`id`"}))

	assert.Equal(t,
		`cmd.exe /k start "title" /b "/opt/my app/app" -Dapp.process.uuid=tag-1 run 'say "hi"'`,
		windowsCommandLine("title", quoted))
	assert.Equal(t,
		`cmd.exe /k start "my app" /b run`,
		windowsCommandLine(`"my app"`, []string{"run"}))
}
