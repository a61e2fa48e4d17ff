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
	"runtime"
	"testing"

	"github.com/dfxyz/main-wrapper/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const testTag = "0f8fad5b-d9cb-469f-a165-70867728950e"

// fakeRunner returns canned output and records every call
// fakeRunner 返回预设输出并记录每次调用
type fakeRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.err
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (int, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return 0, f.err
}

const psOutput = `  PID TTY      STAT   TIME COMMAND
    1 ?        Ss     0:01 /sbin/init
  311 pts/0    Ss     0:00 -bash
 4242 ?        Ssl    0:03 /opt/app/bin/app -Dapp.process.uuid=` + testTag + ` run --port 8080
 5150 pts/0    R+     0:00 ps axww
`

// TestPOSIXLocator_Find tests PID recovery from ps output
// TestPOSIXLocator_Find 测试从 ps 输出中解析 PID
func TestPOSIXLocator_Find(t *testing.T) {
	testCases := []struct {
		name    string
		output  string
		runErr  error
		wantPID int
		wantNil bool
		wantErr error
	}{
		{name: "found", output: psOutput, wantPID: 4242},
		{name: "not found", output: "  PID TTY STAT TIME COMMAND\n    1 ? Ss 0:01 /sbin/init\n", wantNil: true},
		{name: "empty output", output: "", wantNil: true},
		{name: "tag without pid", output: "app -Dapp.process.uuid=" + testTag + "\n", wantErr: ErrScan},
		{name: "ps failed", runErr: errors.New("exec: \"ps\": executable file not found in $PATH"), wantErr: ErrScan},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{output: []byte(tc.output), err: tc.runErr}
			locator := NewLocator(platform.POSIX, runner, nil)

			record, err := locator.Find(context.Background(), testTag)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, record)
				return
			}
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, record)
				return
			}
			require.NotNil(t, record)
			assert.Equal(t, tc.wantPID, record.PID)
			assert.True(t, record.HasPID())
			assert.Contains(t, record.CommandLine, testTag)
			assert.Equal(t, []string{"ps", "axww"}, runner.calls[0])
		})
	}
}

func TestLocator_EmptyTag(t *testing.T) {
	for _, dialect := range []platform.Dialect{platform.POSIX, platform.Windows} {
		runner := &fakeRunner{output: []byte(psOutput)}
		record, err := NewLocator(dialect, runner, nil).Find(context.Background(), "")
		assert.ErrorIs(t, err, ErrScan)
		assert.Nil(t, record)
		assert.Empty(t, runner.calls)
	}
}

// TestWindowsLocator_Find tests the existence-only wmic strategy
// TestWindowsLocator_Find 测试仅判断存在性的 wmic 策略
func TestWindowsLocator_Find(t *testing.T) {
	found := "\r\r\n\r\r\nCommandLine=C:\\app\\app.exe -Dapp.process.uuid=" + testTag + " run\r\r\n\r\r\n"
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(found))
	require.NoError(t, err)

	testCases := []struct {
		name    string
		output  []byte
		runErr  error
		wantNil bool
		wantErr error
	}{
		{name: "found", output: []byte(found)},
		{name: "found in utf-16 output", output: utf16},
		{name: "other instance", output: []byte("CommandLine=C:\\app\\app.exe -Dapp.process.uuid=another-tag run\r\r\n"), wantNil: true},
		{name: "no instances", output: []byte("No Instance(s) Available.\r\r\n"), wantNil: true},
		{name: "wmic failed", runErr: errors.New("exit status 44210"), wantErr: ErrScan},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{output: tc.output, err: tc.runErr}
			locator := NewLocator(platform.Windows, runner, nil)

			record, err := locator.Find(context.Background(), testTag)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, runner.calls, 1)
			assert.Equal(t, []string{
				"wmic", "process", "where", "commandline like '%app.process.uuid%'", "get", "commandline", "/value",
			}, runner.calls[0])
			assert.NotContains(t, runner.calls[0][3], testTag)

			if tc.wantNil {
				assert.Nil(t, record)
				return
			}
			require.NotNil(t, record)
			assert.False(t, record.HasPID())
			assert.Equal(t, `C:\app\app.exe -Dapp.process.uuid=`+testTag+" run", record.CommandLine)
		})
	}
}

// TestExecRunner_Run tests exit code reporting with a real shell
// TestExecRunner_Run 使用真实 shell 测试退出码
func TestExecRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	runner := NewExecRunner(nil)

	code, err := runner.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	code, err = runner.Run(context.Background(), "sh", "-c", "true")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, err = runner.Run(context.Background(), "definitely-not-a-command-7f3a")
	assert.Error(t, err)

	out, err := runner.Output(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}
