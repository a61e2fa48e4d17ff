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

// Package platform describes the two process-management dialects the
// supervisor speaks: POSIX shells with ps/kill, and Windows cmd.exe with wmic.
// platform 包描述守护进程支持的两种进程管理方言：POSIX 与 Windows。
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Dialect selects quoting rules and process-management commands
// Dialect 选择引号规则和进程管理命令
type Dialect int

const (
	// POSIX uses sh quoting, ps and kill
	// POSIX 使用 sh 引号规则、ps 和 kill
	POSIX Dialect = iota

	// Windows uses cmd.exe quoting and wmic
	// Windows 使用 cmd.exe 引号规则和 wmic
	Windows
)

// DialectAuto is the configuration value that means "detect from the host"
// DialectAuto 表示根据主机自动检测
const DialectAuto = "auto"

// Current returns the dialect of the host the binary runs on
// Current 返回当前主机的方言
func Current() Dialect {
	if runtime.GOOS == "windows" {
		return Windows
	}
	return POSIX
}

// Parse converts a configuration value into a Dialect.
// Parse 将配置值转换为 Dialect。
func Parse(value string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", DialectAuto:
		return Current(), nil
	case "posix", "unix":
		return POSIX, nil
	case "windows":
		return Windows, nil
	default:
		return POSIX, fmt.Errorf("unknown platform dialect: %s (must be auto, posix, or windows)", value)
	}
}

func (d Dialect) String() string {
	switch d {
	case POSIX:
		return "posix"
	case Windows:
		return "windows"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}
