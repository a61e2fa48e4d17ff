//go:build !windows
// +build !windows

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
	"os/exec"
	"syscall"
)

// newDetachedCommand builds the sh command for a POSIX launch.
// The quoted form is only validated and logged; sh receives the raw tokens.
// newDetachedCommand 为 POSIX 启动构建 sh 命令；加引号的形式只用于校验和日志，sh 接收原始参数。
// The child gets its own session so it outlives the supervisor and its terminal
// 子进程拥有独立会话，因此在守护进程和终端退出后仍然存活
func newDetachedCommand(spec *LaunchSpec, _ []string) *exec.Cmd {
	args := posixShellArgs(spec.Tokens())
	cmd := exec.Command(args[0], args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // New session, no controlling terminal / 新会话，无控制终端
	}
	return cmd
}
