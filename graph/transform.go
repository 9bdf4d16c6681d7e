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

package graph

import (
	"fmt"
	"strings"

	"github.com/nicku33/beam/graph/coder"
)

// Kind identifies what a transform does and selects its translation.
type Kind string

// Transform kinds. Composite transforms only group and name their parts.
const (
	Composite     Kind = "Composite"
	Impulse       Kind = "Impulse"
	Read          Kind = "Read"
	ParDo         Kind = "ParDo"
	GBK           Kind = "GBK"
	SortedGBK     Kind = "SortedGBK"
	Flatten       Kind = "Flatten"
	WindowInto    Kind = "WindowInto"
	CombineValues Kind = "CombineValues"
	CreateView    Kind = "CreateView"
)

// Kinds lists the primitive kinds in a stable order.
var Kinds = []Kind{Impulse, Read, ParDo, GBK, SortedGBK, Flatten, WindowInto, CombineValues, CreateView}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, error) {
	if Kind(s) == Composite {
		return Composite, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown transform kind %q", s)
}

// Port is a tagged input or output of a transform.
type Port struct {
	Tag   string
	Value *Value
}

// Fn is a serialized user function applied by a ParDo.
type Fn struct {
	Name       string
	Payload    []byte
	Splittable bool // Requires fine grained element splitting.
	UsesState  bool
	UsesTimers bool
}

// CombineFn is a serialized combining function applied after a GBK.
type CombineFn struct {
	Name    string
	Payload []byte
	// AccumCoder is the accumulator coder. If nil, the grouped values coder is
	// assumed.
	AccumCoder *coder.Coder
}

// Source is a serialized bounded source.
type Source struct {
	Name    string
	Payload []byte
	// EstimatedSize is the size in bytes reported to the service. Zero means
	// unknown.
	EstimatedSize int64
}

// DisplayItem is a key/value annotation shown by the service UI.
type DisplayItem struct {
	Key       string
	Label     string
	Namespace string
	Value     any
}

// Transform is a node of the pipeline graph. Primitive transforms carry the
// payload that matches their kind; composites only have parts.
type Transform struct {
	id     int
	parent *Transform
	parts  []*Transform

	Label   string
	Kind    Kind
	Inputs  []Port
	Outputs []Port

	DoFn         *Fn        // ParDo
	CombineFn    *CombineFn // CombineValues
	Source       *Source    // Read
	FewKeys      bool       // GBK: the key space is known to be small.
	ImpulseValue []byte     // Impulse
	DisplayData  []DisplayItem
}

// ID returns the graph-local identifier of the transform.
func (t *Transform) ID() int {
	return t.id
}

// Parent returns the enclosing composite, or nil for the root.
func (t *Transform) Parent() *Transform {
	return t.parent
}

// Parts returns the transforms nested inside a composite, in insertion order.
func (t *Transform) Parts() []*Transform {
	return t.parts
}

// IsComposite returns true iff the transform only groups other transforms.
func (t *Transform) IsComposite() bool {
	return t.Kind == Composite
}

// FullName returns the slash separated labels from the outermost composite
// down to the transform. The root has an empty name.
func (t *Transform) FullName() string {
	var names []string
	for cur := t; cur != nil && cur.parent != nil; cur = cur.parent {
		names = append(names, cur.Label)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// MainInputs returns the collection inputs in declared order.
func (t *Transform) MainInputs() []Port {
	var ret []Port
	for _, in := range t.Inputs {
		if in.Value.IsCollection() {
			ret = append(ret, in)
		}
	}
	return ret
}

// SideInputs returns the view inputs in declared order.
func (t *Transform) SideInputs() []Port {
	var ret []Port
	for _, in := range t.Inputs {
		if !in.Value.IsCollection() {
			ret = append(ret, in)
		}
	}
	return ret
}

// Input returns the sole main input.
func (t *Transform) Input() (*Value, error) {
	main := t.MainInputs()
	if len(main) != 1 {
		return nil, fmt.Errorf("%v: want exactly one main input, got %d", t, len(main))
	}
	return main[0].Value, nil
}

// Output returns the sole output.
func (t *Transform) Output() (*Value, error) {
	if len(t.Outputs) != 1 {
		return nil, fmt.Errorf("%v: want exactly one output, got %d", t, len(t.Outputs))
	}
	return t.Outputs[0].Value, nil
}

func (t *Transform) String() string {
	if t.parent == nil {
		return "<root>"
	}
	return fmt.Sprintf("%v[%v]", t.FullName(), t.Kind)
}
