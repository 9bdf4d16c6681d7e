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
	stdlog "log"
)

// Standard writes plain text lines through the standard library logger,
// prefixed by severity and source location. Messages below Min are dropped.
type Standard struct {
	Min Severity
	out *stdlog.Logger
}

// NewStandard returns a Standard logger writing to w.
func NewStandard(w io.Writer, min Severity) *Standard {
	return &Standard{Min: min, out: stdlog.New(w, "", stdlog.LstdFlags|stdlog.Lshortfile)}
}

// Log implements Logger.
func (s *Standard) Log(_ context.Context, sev Severity, calldepth int, msg string) {
	if sev < s.Min {
		return
	}
	s.out.Output(calldepth+1, "["+sev.String()+"] "+msg)
}
