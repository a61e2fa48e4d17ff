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

package wrapper

import (
	"context"
	"strings"

	"github.com/dfxyz/main-wrapper/internal/process"
	"github.com/dfxyz/main-wrapper/internal/tag"
)

// property is one leading -Dkey=value token
// property 是一个前置的 -Dkey=value 参数
type property struct {
	key   string
	value string
	raw   string
}

type propertiesKey struct{}

// splitProperties consumes the leading -Dkey=value tokens and returns the rest
// splitProperties 消费前置的 -Dkey=value 参数并返回剩余参数
func splitProperties(args []string) ([]property, []string) {
	var props []property
	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, process.PropertyFlagPrefix) {
			break
		}
		body := strings.TrimPrefix(arg, process.PropertyFlagPrefix)
		key, value, _ := strings.Cut(body, "=")
		if key == "" {
			break
		}
		props = append(props, property{key: key, value: value, raw: arg})
	}
	return props, args[i:]
}

// inheritedFlags returns the property tokens a relaunched instance should carry.
// The instance tag is excluded; the controller appends a fresh one.
// inheritedFlags 返回重新启动的实例应携带的属性参数，不包含实例标签。
func inheritedFlags(props []property) []string {
	var flags []string
	for _, p := range props {
		if p.key == tag.PropertyKey {
			continue
		}
		flags = append(flags, p.raw)
	}
	return flags
}

func withProperties(ctx context.Context, props []property) context.Context {
	values := make(map[string]string, len(props))
	for _, p := range props {
		values[p.key] = p.value
	}
	return context.WithValue(ctx, propertiesKey{}, values)
}

// Properties returns a copy of the runtime properties the wrapper was invoked with
// Properties 返回调用 wrapper 时传入的运行时属性副本
func Properties(ctx context.Context) map[string]string {
	values, _ := ctx.Value(propertiesKey{}).(map[string]string)
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// Property returns one runtime property
// Property 返回单个运行时属性
func Property(ctx context.Context, key string) (string, bool) {
	values, _ := ctx.Value(propertiesKey{}).(map[string]string)
	v, ok := values[key]
	return v, ok
}

// InstanceTag returns the tag of a relaunched instance, or "" in the foreground
// InstanceTag 返回被重新启动实例的标签；前台运行时返回空字符串
func InstanceTag(ctx context.Context) string {
	v, _ := Property(ctx, tag.PropertyKey)
	return v
}
