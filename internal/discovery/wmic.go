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
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dfxyz/main-wrapper/internal/tag"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
)

// windowsLocator asks wmic for tagged command lines.
// Only existence is known; the terminate command filters by tag again.
// windowsLocator 通过 wmic 查询带标签的命令行，只判断存在性。
type windowsLocator struct {
	runner CommandRunner
	logger *zap.Logger
}

// Find implements Locator
func (l *windowsLocator) Find(ctx context.Context, value string) (*ProcessRecord, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty tag", ErrScan)
	}

	// Filtering on the key keeps the tag out of wmic's own command line
	// 按属性名过滤，使 wmic 自身的命令行不包含标签
	where := fmt.Sprintf("commandline like '%%%s%%'", tag.PropertyKey)
	output, err := l.runner.Output(ctx, "wmic", "process", "where", where, "get", "commandline", "/value")
	if err != nil {
		return nil, fmt.Errorf("%w: wmic: %v", ErrScan, err)
	}

	text, err := decodeWMICOutput(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScan, err)
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, value) {
			continue
		}
		l.logger.Debug("Found tagged process", zap.String("tag", value))
		return &ProcessRecord{CommandLine: strings.TrimPrefix(line, "CommandLine=")}, nil
	}
	return nil, nil
}

// decodeWMICOutput converts wmic output to UTF-8.
// wmic writes UTF-16LE when its output is redirected.
// decodeWMICOutput 将 wmic 输出转换为 UTF-8；重定向时 wmic 输出 UTF-16LE。
func decodeWMICOutput(output []byte) (string, error) {
	if bytes.HasPrefix(output, []byte{0xFF, 0xFE}) || bytes.IndexByte(output, 0) >= 0 {
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(output)
		if err != nil {
			return "", fmt.Errorf("failed to decode wmic output: %w", err)
		}
		return string(decoded), nil
	}
	return string(output), nil
}
