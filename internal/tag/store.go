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

// Package tag persists the instance tag that identifies the managed application.
// tag 包持久化用于标识托管应用实例的标签。
//
// One tag exists per deployment directory. It is created on the first start,
// never rewritten, and embedded in the launched process command line as
// app.process.uuid=<tag> so the process can be found again by scanning the
// process table.
// 每个部署目录只有一个标签：首次启动时创建，之后不再改写，
// 并以 app.process.uuid=<tag> 的形式嵌入被启动进程的命令行。
package tag

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// PropertyKey is the runtime property that carries the tag on a command line
// PropertyKey 是在命令行上携带标签的运行时属性名
const PropertyKey = "app.process.uuid"

// Common errors for the tag store
// 标签存储的常见错误
var (
	// ErrNoInstance indicates the tag file does not exist, so no instance was ever started
	// ErrNoInstance 表示标签文件不存在，应用从未启动过
	ErrNoInstance = errors.New("no recorded instance")

	// ErrConcurrentCreate indicates another invocation created the tag file first
	// ErrConcurrentCreate 表示另一个调用抢先创建了标签文件
	ErrConcurrentCreate = errors.New("process uuid file has been created concurrently")

	// ErrIO indicates the tag file could not be read or written
	// ErrIO 表示标签文件无法读写
	ErrIO = errors.New("process uuid file i/o failure")

	errEmptyTag = errors.New("process uuid file is empty")
)

// An empty file seen by GetOrCreate is re-read this many times before it counts as an i/o failure
// GetOrCreate 遇到空文件时的重读次数和间隔
const (
	emptyRecheckTries    = 5
	emptyRecheckInterval = 20 * time.Millisecond
)

// Marker returns the key=value form embedded in a command line
// Marker 返回嵌入命令行的 key=value 形式
func Marker(value string) string {
	return PropertyKey + "=" + value
}

// Store reads and creates the tag file
// Store 读取并创建标签文件
type Store struct {
	fs     afero.Fs
	path   string
	newID  func() string
	logger *zap.Logger
}

// NewStore creates a Store for the tag file at path
// NewStore 为指定路径的标签文件创建 Store
func NewStore(fs afero.Fs, path string, logger *zap.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		fs:     fs,
		path:   path,
		newID:  func() string { return uuid.New().String() },
		logger: logger,
	}
}

// Path returns the tag file path
func (s *Store) Path() string {
	return s.path
}

// GetOrFail returns the recorded tag, or ErrNoInstance when the file is absent.
// GetOrFail 返回已记录的标签；文件不存在时返回 ErrNoInstance。
func (s *Store) GetOrFail() (string, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	if !exists {
		return "", ErrNoInstance
	}
	return s.read()
}

// GetOrCreate returns the recorded tag, creating the file with a fresh UUID when absent.
// GetOrCreate 返回已记录的标签；文件不存在时用新的 UUID 创建。
func (s *Store) GetOrCreate() (string, error) {
	value, err := s.GetOrFail()
	if errors.Is(err, errEmptyTag) {
		return "", s.awaitConcurrentCreate(err)
	}
	if !errors.Is(err, ErrNoInstance) {
		return value, err
	}
	return s.create()
}

// awaitConcurrentCreate re-reads an empty tag file for a short while. A file that
// gains a tag was created by another invocation between its create and its write.
// awaitConcurrentCreate 短暂重读空的标签文件；若随后出现标签，说明另一个调用正处于创建与写入之间。
func (s *Store) awaitConcurrentCreate(emptyErr error) error {
	_, err := backoff.Retry(context.Background(), func() (string, error) {
		value, err := s.read()
		if errors.Is(err, errEmptyTag) {
			return "", err
		}
		if err != nil {
			return "", backoff.Permanent(err)
		}
		return value, nil
	}, backoff.WithBackOff(backoff.NewConstantBackOff(emptyRecheckInterval)), backoff.WithMaxTries(emptyRecheckTries))

	switch {
	case err == nil:
		return ErrConcurrentCreate
	case errors.Is(err, errEmptyTag):
		return emptyErr
	default:
		return err
	}
}

func (s *Store) read() (string, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", ErrIO, s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("%w: failed to read %s: %v", ErrIO, s.path, err)
		}
		return "", fmt.Errorf("%w: %w: %s", ErrIO, errEmptyTag, s.path)
	}

	// An empty tag would match every process line
	value := strings.TrimRight(scanner.Text(), "\r")
	if value == "" {
		return "", fmt.Errorf("%w: %w: %s", ErrIO, errEmptyTag, s.path)
	}
	return value, nil
}

func (s *Store) create() (string, error) {
	// The tag file is the only thing written; its directory must already exist
	// 只写入标签文件本身，所在目录必须已存在
	dir := filepath.Dir(s.path)
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return "", fmt.Errorf("%w: failed to stat %s: %v", ErrIO, dir, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: directory %s does not exist", ErrIO, dir)
	}

	// O_EXCL makes exactly one of several racing invocations win
	f, err := s.fs.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", ErrConcurrentCreate
		}
		return "", fmt.Errorf("%w: failed to create %s: %v", ErrIO, s.path, err)
	}

	value := s.newID()
	if _, err := f.Write([]byte(value + "\n")); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%w: failed to write %s: %v", ErrIO, s.path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to write %s: %v", ErrIO, s.path, err)
	}

	s.logger.Info("Instance tag created", zap.String("file", s.path), zap.String("tag", value))
	return value, nil
}
