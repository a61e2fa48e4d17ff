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

// Package discovery locates the managed application's process by scanning the
// OS process table for the instance tag embedded in its command line.
// discovery 包通过扫描操作系统进程表中命令行携带的实例标签来定位托管应用进程。
//
// Two strategies sit behind the Locator interface:
// Locator 接口背后有两种策略：
// - POSIX: run ps, match the tag, parse the leading PID / 运行 ps，匹配标签，解析行首 PID
// - Windows: query wmic for command lines, existence only / 通过 wmic 查询命令行，仅判断存在性
package discovery

import (
	"context"
	"errors"

	"github.com/dfxyz/main-wrapper/internal/platform"
	"go.uber.org/zap"
)

// ErrScan indicates the process table could not be scanned or parsed
// ErrScan 表示无法扫描或解析进程表
var ErrScan = errors.New("failed to scan running processes")

// ProcessRecord is a process whose command line carries the instance tag
// ProcessRecord 表示命令行携带实例标签的进程
type ProcessRecord struct {
	PID         int    `json:"pid"`          // 0 when only existence is known / 仅知道存在时为 0
	CommandLine string `json:"command_line"` // Matching process-list line / 匹配到的进程列表行
}

// HasPID reports whether a numeric PID was recovered
// HasPID 判断是否解析出了 PID
func (r *ProcessRecord) HasPID() bool {
	return r != nil && r.PID > 0
}

// Locator finds the process carrying a tag.
// Find returns a nil record and nil error when no such process exists.
// Locator 查找携带标签的进程；未找到时返回 nil 记录和 nil 错误。
type Locator interface {
	Find(ctx context.Context, tag string) (*ProcessRecord, error)
}

// NewLocator creates the Locator strategy for a dialect
// NewLocator 根据方言创建 Locator 策略
func NewLocator(dialect platform.Dialect, runner CommandRunner, logger *zap.Logger) Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if dialect == platform.Windows {
		return &windowsLocator{runner: runner, logger: logger}
	}
	return &posixLocator{runner: runner, logger: logger}
}
