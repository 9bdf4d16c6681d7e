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

package dataflowlib

import (
	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/internal/errors"
)

// OutputMap is a bijection between the output ids of a step and the output
// tags of its transform, in allocation order.
type OutputMap struct {
	ids   []int64
	byID  map[int64]string
	byTag map[string]int64
}

func newOutputMap() *OutputMap {
	return &OutputMap{byID: make(map[int64]string), byTag: make(map[string]int64)}
}

func (m *OutputMap) put(id int64, tag string) error {
	if _, ok := m.byID[id]; ok {
		return errors.Wrapf(ErrDuplicateOutputName, "output id %d bound twice", id)
	}
	if _, ok := m.byTag[tag]; ok {
		return errors.Wrapf(ErrDuplicateOutputName, "output tag %q bound twice", tag)
	}
	m.ids = append(m.ids, id)
	m.byID[id] = tag
	m.byTag[tag] = id
	return nil
}

// Tag returns the tag bound to id.
func (m *OutputMap) Tag(id int64) (string, bool) {
	tag, ok := m.byID[id]
	return tag, ok
}

// ID returns the id bound to tag.
func (m *OutputMap) ID(tag string) (int64, bool) {
	id, ok := m.byTag[tag]
	return id, ok
}

// IDs returns the ids in allocation order.
func (m *OutputMap) IDs() []int64 {
	return m.ids
}

// Len returns the number of bindings.
func (m *OutputMap) Len() int {
	return len(m.ids)
}

// TranslateOutputs registers every output of t with the step and binds the
// allocated ids to the output tags. Only collections may be outputs.
func TranslateOutputs(t *graph.Transform, b *StepBuilder) (*OutputMap, error) {
	m := newOutputMap()
	for _, out := range t.Outputs {
		if !out.Value.IsCollection() {
			return nil, errors.Wrapf(ErrNonCollectionOutput, "output %q (%v) of multi-output %v", out.Tag, out.Value, t)
		}
		id, err := b.AddOutput(out.Value)
		if err != nil {
			return nil, err
		}
		if err := m.put(id, out.Tag); err != nil {
			return nil, err
		}
	}
	return m, nil
}
