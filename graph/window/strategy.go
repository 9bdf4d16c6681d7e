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

package window

import (
	"fmt"
	"time"
)

// AccumulationMode describes whether successive panes of a window contain
// the elements of earlier panes.
type AccumulationMode string

const (
	Discarding   AccumulationMode = "DISCARDING"
	Accumulating AccumulationMode = "ACCUMULATING"
)

// WindowingStrategy defines the types of windowing used in a pipeline.
type WindowingStrategy struct {
	Fn               *Fn
	Trigger          *Trigger
	AccumulationMode AccumulationMode
	AllowedLateness  time.Duration
}

// Equals returns true iff both strategies have equal fns and render the same
// trigger, accumulation mode and lateness.
func (ws *WindowingStrategy) Equals(o *WindowingStrategy) bool {
	return ws.Fn.Equals(o.Fn) &&
		ws.Trigger.String() == o.Trigger.String() &&
		ws.mode() == o.mode() &&
		ws.AllowedLateness == o.AllowedLateness
}

func (ws *WindowingStrategy) mode() AccumulationMode {
	if ws.AccumulationMode == "" {
		return Discarding
	}
	return ws.AccumulationMode
}

// Validate checks the window fn and trigger.
func (ws *WindowingStrategy) Validate() error {
	if ws.Fn == nil {
		return fmt.Errorf("windowing strategy without a window fn")
	}
	if err := ws.Fn.Validate(); err != nil {
		return err
	}
	if ws.Trigger != nil {
		if err := ws.Trigger.Validate(); err != nil {
			return err
		}
	}
	switch ws.AccumulationMode {
	case "", Discarding, Accumulating:
	default:
		return fmt.Errorf("unknown accumulation mode: %v", ws.AccumulationMode)
	}
	if ws.AllowedLateness < 0 {
		return fmt.Errorf("allowed lateness cannot be negative, got %v", ws.AllowedLateness)
	}
	return nil
}

func (ws *WindowingStrategy) String() string {
	if IsDefault(ws.Trigger) && ws.AllowedLateness == 0 {
		return ws.Fn.String()
	}
	return fmt.Sprintf("%v{%v,%v,%v}", ws.Fn, ws.Trigger, ws.mode(), ws.AllowedLateness)
}

// DefaultWindowingStrategy returns the default windowing strategy.
func DefaultWindowingStrategy() *WindowingStrategy {
	return &WindowingStrategy{Fn: NewGlobalWindows(), Trigger: &Trigger{Kind: DefaultTrigger}, AccumulationMode: Discarding}
}
