// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"io"
	"log/slog"
)

var slogLevels = map[Severity]slog.Level{
	SevUnspecified: slog.LevelInfo,
	SevDebug:       slog.LevelDebug,
	SevInfo:        slog.LevelInfo,
	SevWarn:        slog.LevelWarn,
	SevError:       slog.LevelError,
	SevFatal:       slog.LevelError + 4,
}

// Structural logs through a log/slog handler.
type Structural struct {
	h slog.Handler
}

// NewStructural returns a slog backed logger writing to w, as JSON if json is
// set and as key=value text otherwise.
func NewStructural(w io.Writer, json bool, min Severity) *Structural {
	opts := &slog.HandlerOptions{Level: slogLevels[min]}
	if json {
		return &Structural{h: slog.NewJSONHandler(w, opts)}
	}
	return &Structural{h: slog.NewTextHandler(w, opts)}
}

// Log logs the message to the slog handler. For SevFatal it does not exit,
// but defers to the package level wrapper.
func (s *Structural) Log(ctx context.Context, sev Severity, _ int, msg string) {
	lvl := slogLevels[sev]
	if !s.h.Enabled(ctx, lvl) {
		return
	}
	slog.New(s.h).Log(ctx, lvl, msg, "severity", sev.String())
}
