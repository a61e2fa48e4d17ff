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

package discovery

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// CommandRunner runs helper commands (ps, wmic, kill) on behalf of the supervisor
// CommandRunner 代表守护进程执行辅助命令（ps、wmic、kill）
type CommandRunner interface {
	// Output runs the command and returns its standard output
	// Output 运行命令并返回标准输出
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs the command to completion and returns its exit code.
	// A non-zero exit is reported through the code, not the error.
	// Run 运行命令直到结束并返回退出码；非零退出码不视为错误。
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// ExecRunner is the os/exec backed CommandRunner
// ExecRunner 是基于 os/exec 的 CommandRunner
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates a new ExecRunner
// NewExecRunner 创建一个新的 ExecRunner
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Output implements CommandRunner
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger.Debug("Running command", zap.String("name", name), zap.String("args", strings.Join(args, " ")))
	return exec.CommandContext(ctx, name, args...).Output()
}

// Run implements CommandRunner
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	r.logger.Debug("Running command", zap.String("name", name), zap.String("args", strings.Join(args, " ")))
	err := exec.CommandContext(ctx, name, args...).Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
