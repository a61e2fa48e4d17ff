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

// Package quote re-quotes command-line tokens so that a relaunched command line
// is parsed back into the same arguments by the target shell.
// quote 包为命令行参数重新加引号，使目标 shell 能够解析回相同的参数。
package quote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dfxyz/main-wrapper/internal/platform"
)

const (
	singleQuote = "'"
	doubleQuote = `"`
)

// ErrInvalidArgument indicates a token that cannot be represented in either dialect
// ErrInvalidArgument 表示无法在任一方言中表示的参数
var ErrInvalidArgument = errors.New("cannot handle single and double quotes in a single argument")

// Quoter quotes tokens for one platform dialect
// Quoter 按平台方言为参数加引号
type Quoter struct {
	dialect platform.Dialect
}

// New creates a Quoter for the given dialect
// New 为指定方言创建 Quoter
func New(dialect platform.Dialect) *Quoter {
	return &Quoter{dialect: dialect}
}

// Dialect returns the dialect the quoter targets
func (q *Quoter) Dialect() platform.Dialect {
	return q.dialect
}

// Strip removes one layer of matching single or double quotes around arg.
// Strip 去掉参数外层的一对单引号或双引号。
func Strip(arg string) string {
	if len(arg) < 2 {
		return arg
	}
	if strings.HasPrefix(arg, singleQuote) && strings.HasSuffix(arg, singleQuote) ||
		strings.HasPrefix(arg, doubleQuote) && strings.HasSuffix(arg, doubleQuote) {
		return arg[1 : len(arg)-1]
	}
	return arg
}

// Quote returns the shell-safe form of arg.
// Quote 返回参数的 shell 安全形式。
//
// Rules after stripping one layer of surrounding quotes:
// 去掉一层外层引号后的规则：
//   - both quote kinds: ErrInvalidArgument / 同时包含两种引号：返回 ErrInvalidArgument
//   - double quotes only: Windows escapes them and wraps in double quotes, POSIX wraps in single quotes
//     只包含双引号：Windows 转义后用双引号包裹，POSIX 用单引号包裹
//   - single quote or space: wrap in double quotes / 包含单引号或空格：用双引号包裹
//   - otherwise unchanged / 其他情况原样返回
func (q *Quoter) Quote(arg string) (string, error) {
	stripped := Strip(arg)

	if strings.Contains(stripped, doubleQuote) {
		if strings.Contains(stripped, singleQuote) {
			return "", fmt.Errorf("%w: %s", ErrInvalidArgument, arg)
		}
		if q.dialect == platform.Windows {
			return doubleQuote + strings.ReplaceAll(stripped, doubleQuote, `\"`) + doubleQuote, nil
		}
		return singleQuote + stripped + singleQuote, nil
	}

	if strings.Contains(stripped, singleQuote) || strings.Contains(stripped, " ") {
		return doubleQuote + stripped + doubleQuote, nil
	}
	return stripped, nil
}

// QuoteAll quotes every token and stops at the first failure
// QuoteAll 为每个参数加引号，遇到第一个错误即停止
func (q *Quoter) QuoteAll(args []string) ([]string, error) {
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		s, err := q.Quote(arg)
		if err != nil {
			return nil, err
		}
		quoted = append(quoted, s)
	}
	return quoted, nil
}
