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
	"strings"

	"go.uber.org/zap"
)

// Launcher spawns the relaunched application without waiting for it
// Launcher 启动应用进程且不等待其结束
type Launcher interface {
	Launch(spec *LaunchSpec, quoted []string) error
}

// DetachedLauncher starts the application detached from the supervisor
// DetachedLauncher 以脱离守护进程的方式启动应用
type DetachedLauncher struct {
	logger *zap.Logger
}

// NewDetachedLauncher creates a new DetachedLauncher
// NewDetachedLauncher 创建一个新的 DetachedLauncher
func NewDetachedLauncher(logger *zap.Logger) *DetachedLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetachedLauncher{logger: logger}
}

// Launch implements Launcher
func (l *DetachedLauncher) Launch(spec *LaunchSpec, quoted []string) error {
	cmd := newDetachedCommand(spec, quoted)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir

	// Capture stdout and stderr when requested / 按需捕获标准输出和标准错误
	if spec.OutputFile != "" {
		output, err := os.OpenFile(spec.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("%w: failed to open output file: %v", ErrLaunch, err)
		}
		// The child holds its own descriptor after Start
		defer output.Close()
		cmd.Stdout = output
		cmd.Stderr = output
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		l.logger.Warn("Failed to release launched process", zap.Int("pid", pid), zap.Error(err))
	}

	l.logger.Info("Application launched",
		zap.Int("launcher_pid", pid),
		zap.String("command", strings.Join(quoted, " ")),
	)
	return nil
}
