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
)

// Visitor receives traversal events from Walk. Returning an error stops the
// walk.
type Visitor interface {
	EnterComposite(t *Transform) error
	LeaveComposite(t *Transform) error
	VisitPrimitive(t *Transform) error
	// VisitValue is called once per output, right after its producer.
	VisitValue(v *Value, producer *Transform) error
}

// Walk traverses the pipeline in dependency order. A transform is visited
// only after its enclosing composite has been entered and after the producers
// of all its inputs have been visited. Values without a producer are left for
// the visitor to report. Walk fails if the inputs form a cycle.
func (p *Pipeline) Walk(v Visitor) error {
	w := &walker{
		v:       v,
		visited: make(map[*Transform]bool),
		active:  make(map[*Transform]bool),
	}
	return w.visit(p.root)
}

type walker struct {
	v       Visitor
	visited map[*Transform]bool
	active  map[*Transform]bool // Primitives whose inputs are being resolved.
}

func (w *walker) visit(t *Transform) error {
	if w.visited[t] {
		return nil
	}
	if t.parent != nil && !w.visited[t.parent] {
		if err := w.visit(t.parent); err != nil {
			return err
		}
		if w.visited[t] {
			return nil
		}
	}
	w.visited[t] = true

	if t.IsComposite() {
		if err := w.v.EnterComposite(t); err != nil {
			return err
		}
		for _, part := range t.parts {
			if err := w.visit(part); err != nil {
				return err
			}
		}
		return w.v.LeaveComposite(t)
	}

	w.active[t] = true
	for _, in := range t.Inputs {
		producer := in.Value.producer
		switch {
		case producer == nil:
			continue
		case w.active[producer]:
			return fmt.Errorf("cycle detected: %v consumes %v produced by %v", t, in.Value, producer)
		}
		if err := w.visit(producer); err != nil {
			return err
		}
	}
	delete(w.active, t)

	if err := w.v.VisitPrimitive(t); err != nil {
		return err
	}
	for _, out := range t.Outputs {
		if err := w.v.VisitValue(out.Value, t); err != nil {
			return err
		}
	}
	return nil
}
