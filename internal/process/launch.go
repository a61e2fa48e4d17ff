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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dfxyz/main-wrapper/internal/quote"
	"github.com/dfxyz/main-wrapper/internal/tag"
)

// Launch modes
// 启动模式
const (
	// ModeNative relaunches a self-contained executable (the supervisor binary by default)
	// ModeNative 重新启动自包含的可执行文件（默认为守护进程自身）
	ModeNative = "native"

	// ModeJVM relaunches a runtime that needs a main class or archive entry point
	// ModeJVM 重新启动需要主类或归档入口的运行时
	ModeJVM = "jvm"
)

// RunVerb is the verb the relaunched process is started with
// RunVerb 是被重新启动进程使用的子命令
const RunVerb = "run"

// PropertyFlagPrefix introduces a runtime property on a command line
// PropertyFlagPrefix 是命令行上运行时属性的前缀
const PropertyFlagPrefix = "-D"

// LaunchConfig is the injected description of how to relaunch the application
// LaunchConfig 描述如何重新启动应用（通过注入提供）
type LaunchConfig struct {
	Mode          string   `json:"mode"`           // native or jvm / native 或 jvm
	Executable    string   `json:"executable"`     // Empty means os.Executable / 为空时使用 os.Executable
	RuntimeFlags  []string `json:"runtime_flags"`  // Flags before the tag marker / 标签之前的运行时参数
	EntryPoint    string   `json:"entry_point"`    // Main class or archive / 主类或归档文件
	ArchiveSuffix string   `json:"archive_suffix"` // e.g. .jar
	ArchiveFlag   string   `json:"archive_flag"`   // e.g. -jar
	Env           []string `json:"env"`            // Extra KEY=VALUE pairs / 额外环境变量
	Dir           string   `json:"dir"`            // Working directory / 工作目录
	OutputFile    string   `json:"output_file"`    // Child stdout/stderr, empty discards / 子进程输出文件
	WindowTitle   string   `json:"window_title"`   // Title for cmd.exe start / cmd.exe start 标题
}

// LaunchSpec is the reconstructed command line of one start call
// LaunchSpec 是一次启动调用重建出的命令行
type LaunchSpec struct {
	Executable   string
	RuntimeFlags []string
	TagFlag      string
	EntryPoint   []string
	Verb         string
	Args         []string

	Env        []string
	Dir        string
	OutputFile string
	Title      string
}

// Tokens returns the unquoted command line in launch order
// Tokens 按启动顺序返回未加引号的命令行
func (s *LaunchSpec) Tokens() []string {
	tokens := make([]string, 0, 3+len(s.RuntimeFlags)+len(s.EntryPoint)+len(s.Args))
	tokens = append(tokens, s.Executable)
	tokens = append(tokens, s.RuntimeFlags...)
	tokens = append(tokens, s.TagFlag)
	tokens = append(tokens, s.EntryPoint...)
	tokens = append(tokens, s.Verb)
	tokens = append(tokens, s.Args...)
	return tokens
}

// BuildLaunchSpec builds the LaunchSpec for a tagged instance
// BuildLaunchSpec 为带标签的实例构建 LaunchSpec
func BuildLaunchSpec(cfg LaunchConfig, tagValue string, args []string) (*LaunchSpec, error) {
	executable, err := resolveExecutable(cfg.Executable)
	if err != nil {
		return nil, err
	}

	entryPoint := strings.TrimSpace(cfg.EntryPoint)
	if cfg.Mode == ModeJVM && entryPoint == "" {
		return nil, fmt.Errorf("%w: failed to get main class or archive name", ErrEnvironment)
	}

	spec := &LaunchSpec{
		Executable:   executable,
		RuntimeFlags: append([]string(nil), cfg.RuntimeFlags...),
		TagFlag:      PropertyFlagPrefix + tag.Marker(tagValue),
		Verb:         RunVerb,
		Args:         append([]string(nil), args...),
		Env:          buildEnv(cfg.Env),
		Dir:          cfg.Dir,
		OutputFile:   cfg.OutputFile,
		Title:        cfg.WindowTitle,
	}
	if entryPoint != "" {
		if cfg.ArchiveSuffix != "" && strings.HasSuffix(entryPoint, cfg.ArchiveSuffix) && cfg.ArchiveFlag != "" {
			spec.EntryPoint = append(spec.EntryPoint, cfg.ArchiveFlag)
		}
		spec.EntryPoint = append(spec.EntryPoint, entryPoint)
	}
	return spec, nil
}

// resolveExecutable returns the absolute path of a runnable executable
// resolveExecutable 返回可运行的可执行文件的绝对路径
func resolveExecutable(configured string) (string, error) {
	path := configured
	switch {
	case path == "":
		self, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("%w: failed to find runtime executable file: %v", ErrEnvironment, err)
		}
		path = self
	case !strings.ContainsAny(path, `/\`):
		found, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%w: failed to find runtime executable file: %v", ErrEnvironment, err)
		}
		path = found
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to find runtime executable file: %v", ErrEnvironment, err)
	}
	if err := checkExecutable(abs); err != nil {
		return "", fmt.Errorf("%w: failed to find runtime executable file: %v", ErrEnvironment, err)
	}
	return abs, nil
}

// buildEnv returns the inherited environment followed by the configured extras; later entries win
// buildEnv 返回继承的环境变量并追加配置的额外变量；后出现的条目优先
func buildEnv(extra []string) []string {
	env := os.Environ()
	return append(env, extra...)
}

// posixShellArgs hands the tokens to sh as positional parameters, so the shell execs
// the application without parsing the arguments again.
// posixShellArgs 将参数作为位置参数交给 sh，shell 不会再次解析参数，直接 exec 应用。
func posixShellArgs(tokens []string) []string {
	args := make([]string, 0, 4+len(tokens))
	args = append(args, "/bin/sh", "-c", `exec "$@"`, "sh")
	for _, token := range tokens {
		args = append(args, quote.Strip(token))
	}
	return args
}

// windowsCommandLine prefixes the quoted command line with cmd.exe start
// windowsCommandLine 为加引号的命令行加上 cmd.exe start 前缀
func windowsCommandLine(title string, quoted []string) string {
	return fmt.Sprintf(`cmd.exe /k start "%s" /b %s`, strings.ReplaceAll(title, `"`, ""), strings.Join(quoted, " "))
}
