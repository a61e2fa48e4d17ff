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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// psArgs lists every process with an unlimited-width command line
// psArgs 列出所有进程及其不截断的命令行
var psArgs = []string{"axww"}

// pidPattern matches the PID column that ps prints first on every line
// pidPattern 匹配 ps 每行开头的 PID 列
var pidPattern = regexp.MustCompile(`^\s*([0-9]+)\s`)

// posixLocator scans ps output and recovers the PID
// posixLocator 扫描 ps 输出并解析 PID
type posixLocator struct {
	runner CommandRunner
	logger *zap.Logger
}

// Find implements Locator
func (l *posixLocator) Find(ctx context.Context, tag string) (*ProcessRecord, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: empty tag", ErrScan)
	}

	output, err := l.runner.Output(ctx, "ps", psArgs...)
	if err != nil {
		return nil, fmt.Errorf("%w: ps: %v", ErrScan, err)
	}

	record, err := parsePOSIXProcessList(string(output), tag)
	if err != nil {
		return nil, err
	}
	if record != nil {
		l.logger.Debug("Found tagged process", zap.Int("pid", record.PID), zap.String("tag", tag))
	}
	return record, nil
}

// parsePOSIXProcessList returns the first line containing tag.
// A matching line without a leading PID means the ps format is not understood.
// parsePOSIXProcessList 返回第一个包含标签的行；匹配行没有行首 PID 说明 ps 格式无法识别。
func parsePOSIXProcessList(output, tag string) (*ProcessRecord, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, tag) {
			continue
		}

		matches := pidPattern.FindStringSubmatch(line)
		if len(matches) < 2 {
			return nil, fmt.Errorf("%w: failed to get application's pid from line %q", ErrScan, line)
		}
		pid, err := strconv.Atoi(matches[1])
		if err != nil || pid <= 0 {
			return nil, fmt.Errorf("%w: invalid pid %q", ErrScan, matches[1])
		}
		return &ProcessRecord{PID: pid, CommandLine: strings.TrimSpace(line)}, nil
	}
	return nil, nil
}
