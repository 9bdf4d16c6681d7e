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

// Package graph is the pipeline graph handed to translation: transforms
// nested in composites, and values connecting primitive transforms.
package graph

import (
	"fmt"

	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/graph/window"
)

// Pipeline owns the transforms and values of one pipeline graph. Once built it
// is only read.
type Pipeline struct {
	root       *Transform
	transforms []*Transform
	values     []*Value
	consumers  map[*Value][]*Transform
}

// New returns an empty pipeline with a root composite.
func New() *Pipeline {
	p := &Pipeline{consumers: make(map[*Value][]*Transform)}
	p.root = &Transform{id: 0, Kind: Composite}
	p.transforms = append(p.transforms, p.root)
	return p
}

// Root returns the root composite.
func (p *Pipeline) Root() *Transform {
	return p.root
}

// Transforms returns all transforms, root first, in insertion order.
func (p *Pipeline) Transforms() []*Transform {
	return p.transforms
}

// Values returns all values in insertion order.
func (p *Pipeline) Values() []*Value {
	return p.values
}

// Consumers returns the transforms reading v, in insertion order.
func (p *Pipeline) Consumers(v *Value) []*Transform {
	return p.consumers[v]
}

// NewCollection adds a collection value. A nil windowing strategy means the
// default strategy.
func (p *Pipeline) NewCollection(c *coder.Coder, ws *window.WindowingStrategy, bounded bool) *Value {
	if ws == nil {
		ws = window.DefaultWindowingStrategy()
	}
	v := &Value{id: len(p.values) + 1, Kind: Collection, Coder: c, WindowingStrategy: ws, Bounded: bounded}
	p.values = append(p.values, v)
	return v
}

// NewView adds a materialized view value.
func (p *Pipeline) NewView(kind ViewKind, c *coder.Coder, ws *window.WindowingStrategy) *Value {
	if ws == nil {
		ws = window.DefaultWindowingStrategy()
	}
	v := &Value{id: len(p.values) + 1, Kind: View, View: kind, Coder: c, WindowingStrategy: ws, Bounded: true}
	p.values = append(p.values, v)
	return v
}

// NewComposite adds a composite under parent. A nil parent means the root.
func (p *Pipeline) NewComposite(parent *Transform, label string) (*Transform, error) {
	return p.add(parent, label, Composite, nil, nil)
}

// NewPrimitive adds a primitive transform under parent and makes it the
// producer of its outputs. A nil parent means the root.
func (p *Pipeline) NewPrimitive(parent *Transform, label string, kind Kind, inputs, outputs []Port) (*Transform, error) {
	if kind == Composite {
		return nil, fmt.Errorf("transform %q: composites are added with NewComposite", label)
	}
	return p.add(parent, label, kind, inputs, outputs)
}

func (p *Pipeline) add(parent *Transform, label string, kind Kind, inputs, outputs []Port) (*Transform, error) {
	if parent == nil {
		parent = p.root
	}
	if !parent.IsComposite() {
		return nil, fmt.Errorf("transform %q: parent %v is not a composite", label, parent)
	}
	if label == "" {
		return nil, fmt.Errorf("transform of kind %v under %v has no label", kind, parent)
	}
	for _, sibling := range parent.parts {
		if sibling.Label == label {
			return nil, fmt.Errorf("transform %q already exists under %v", label, parent)
		}
	}
	for i, in := range inputs {
		if in.Value == nil {
			return nil, fmt.Errorf("transform %q: input %d (%q) is nil", label, i, in.Tag)
		}
	}
	tags := make(map[string]bool)
	for i, out := range outputs {
		if out.Value == nil {
			return nil, fmt.Errorf("transform %q: output %d (%q) is nil", label, i, out.Tag)
		}
		if out.Value.producer != nil {
			return nil, fmt.Errorf("transform %q: output %v already produced by %v", label, out.Value, out.Value.producer)
		}
		if tags[out.Tag] {
			return nil, fmt.Errorf("transform %q: duplicate output tag %q", label, out.Tag)
		}
		tags[out.Tag] = true
	}

	t := &Transform{
		id:      len(p.transforms),
		parent:  parent,
		Label:   label,
		Kind:    kind,
		Inputs:  inputs,
		Outputs: outputs,
	}
	for _, out := range outputs {
		out.Value.producer = t
	}
	for _, in := range inputs {
		p.consumers[in.Value] = append(p.consumers[in.Value], t)
	}
	parent.parts = append(parent.parts, t)
	p.transforms = append(p.transforms, t)
	return t, nil
}
