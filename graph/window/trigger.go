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
	"strings"
	"time"
)

// TriggerKind identifies a trigger.
type TriggerKind string

const (
	DefaultTrigger                         TriggerKind = "Default"
	AlwaysTrigger                          TriggerKind = "Always"
	NeverTrigger                           TriggerKind = "Never"
	AfterCountTrigger                      TriggerKind = "AfterCount"
	AfterProcessingTimeTrigger             TriggerKind = "AfterProcessingTime"
	AfterSynchronizedProcessingTimeTrigger TriggerKind = "AfterSynchronizedProcessingTime"
	AfterEndOfWindowTrigger                TriggerKind = "AfterEndOfWindow"
	AfterAnyTrigger                        TriggerKind = "AfterAny"
	AfterAllTrigger                        TriggerKind = "AfterAll"
	AfterEachTrigger                       TriggerKind = "AfterEach"
	RepeatTrigger                          TriggerKind = "Repeat"
	OrFinallyTrigger                       TriggerKind = "OrFinally"
)

// Trigger describes when the panes of a window are emitted. Composite
// triggers keep their children in SubTriggers: AfterAny, AfterAll and AfterEach
// take any number, Repeat takes one, and OrFinally takes the main trigger
// followed by the finally trigger.
type Trigger struct {
	Kind         TriggerKind
	SubTriggers  []*Trigger
	ElementCount int32         // AfterCount
	Delay        time.Duration // AfterProcessingTime
	Early, Late  *Trigger      // AfterEndOfWindow, optional
}

// IsDefault returns true iff the trigger is absent or the default trigger.
func IsDefault(t *Trigger) bool {
	return t == nil || t.Kind == DefaultTrigger
}

// Validate checks the shape of the trigger tree.
func (t *Trigger) Validate() error {
	switch t.Kind {
	case DefaultTrigger, AlwaysTrigger, NeverTrigger, AfterSynchronizedProcessingTimeTrigger:
		return t.noChildren()
	case AfterCountTrigger:
		if t.ElementCount <= 0 {
			return fmt.Errorf("%v needs a positive element count, got %d", t.Kind, t.ElementCount)
		}
		return t.noChildren()
	case AfterProcessingTimeTrigger:
		if t.Delay < 0 {
			return fmt.Errorf("%v needs a non-negative delay, got %v", t.Kind, t.Delay)
		}
		return t.noChildren()
	case AfterEndOfWindowTrigger:
		for _, sub := range []*Trigger{t.Early, t.Late} {
			if sub == nil {
				continue
			}
			if err := sub.Validate(); err != nil {
				return err
			}
		}
		return nil
	case AfterAnyTrigger, AfterAllTrigger, AfterEachTrigger:
		if len(t.SubTriggers) == 0 {
			return fmt.Errorf("%v needs at least one subtrigger", t.Kind)
		}
	case RepeatTrigger:
		if len(t.SubTriggers) != 1 {
			return fmt.Errorf("%v needs exactly one subtrigger, got %d", t.Kind, len(t.SubTriggers))
		}
	case OrFinallyTrigger:
		if len(t.SubTriggers) != 2 {
			return fmt.Errorf("%v needs a main and a finally trigger, got %d", t.Kind, len(t.SubTriggers))
		}
	default:
		return fmt.Errorf("unknown trigger kind: %v", t.Kind)
	}
	for _, sub := range t.SubTriggers {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trigger) noChildren() error {
	if len(t.SubTriggers) > 0 || t.Early != nil || t.Late != nil {
		return fmt.Errorf("%v takes no subtriggers", t.Kind)
	}
	return nil
}

func (t *Trigger) String() string {
	if t == nil {
		return string(DefaultTrigger)
	}
	var args []string
	switch t.Kind {
	case AfterCountTrigger:
		args = append(args, fmt.Sprint(t.ElementCount))
	case AfterProcessingTimeTrigger:
		args = append(args, t.Delay.String())
	case AfterEndOfWindowTrigger:
		if t.Early != nil {
			args = append(args, "early="+t.Early.String())
		}
		if t.Late != nil {
			args = append(args, "late="+t.Late.String())
		}
	}
	for _, sub := range t.SubTriggers {
		args = append(args, sub.String())
	}
	if len(args) == 0 {
		return string(t.Kind)
	}
	return fmt.Sprintf("%v<%v>", t.Kind, strings.Join(args, ","))
}
