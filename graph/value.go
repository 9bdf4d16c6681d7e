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

	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/graph/window"
)

// ValueKind distinguishes collections from materialized views.
type ValueKind string

const (
	Collection ValueKind = "Collection"
	View       ValueKind = "View"
)

// ViewKind is the access pattern of a materialized view.
type ViewKind string

// Valid view kinds.
const (
	Singleton ViewKind = "Singleton"
	Iter      ViewKind = "Iterable"
	List      ViewKind = "List"
	Map       ViewKind = "Map"
	MultiMap  ViewKind = "MultiMap"
)

// Value is a handle to data flowing between transforms. A value has at most
// one producing transform, which is fixed when the producer is added.
type Value struct {
	id       int
	producer *Transform

	Kind ValueKind
	// Coder is the element coder, without the windowed value wrapper.
	Coder             *coder.Coder
	WindowingStrategy *window.WindowingStrategy
	Bounded           bool
	View              ViewKind // Only for View values.
}

// ID returns the graph-local identifier of the value.
func (v *Value) ID() int {
	return v.id
}

// Producer returns the transform that produces the value, or nil.
func (v *Value) Producer() *Transform {
	return v.producer
}

// IsCollection returns true iff the value is a collection.
func (v *Value) IsCollection() bool {
	return v.Kind == Collection
}

func (v *Value) String() string {
	if v.Kind == View {
		return fmt.Sprintf("View%d(%v)[%v]", v.id, v.View, v.Coder)
	}
	return fmt.Sprintf("Collection%d[%v]", v.id, v.Coder)
}
