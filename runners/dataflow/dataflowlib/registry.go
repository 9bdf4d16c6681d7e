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
	"sort"

	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/internal/errors"
)

// Handler translates primitive transforms of one kind into steps.
type Handler interface {
	// Translate emits the step for t through ctx.
	Translate(t *graph.Transform, ctx TranslationContext) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(t *graph.Transform, ctx TranslationContext) error

// Translate calls f(t, ctx).
func (f HandlerFunc) Translate(t *graph.Transform, ctx TranslationContext) error {
	return f(t, ctx)
}

// Registry maps transform kinds to handlers. A registry is populated before
// any translation runs and only read afterwards, so one registry may serve
// concurrent translations.
type Registry struct {
	handlers map[graph.Kind]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[graph.Kind]Handler)}
}

// Register binds h to kind. It fails if kind already has a handler.
func (r *Registry) Register(kind graph.Kind, h Handler) error {
	if h == nil {
		return errors.Errorf("nil handler for kind %v", kind)
	}
	if kind == graph.Composite {
		return errors.New("composite transforms are not translated")
	}
	if _, ok := r.handlers[kind]; ok {
		return errors.Wrapf(ErrDuplicateRegistration, "kind %v", kind)
	}
	r.handlers[kind] = h
	return nil
}

// Lookup returns the handler for kind, if any.
func (r *Registry) Lookup(kind graph.Kind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []graph.Kind {
	ret := make([]graph.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// DefaultRegistry returns a new registry holding the built-in handlers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for kind, h := range builtins() {
		if err := r.Register(kind, h); err != nil {
			panic(err) // builtins have unique kinds
		}
	}
	return r
}

func builtins() map[graph.Kind]Handler {
	return map[graph.Kind]Handler{
		graph.Impulse:       HandlerFunc(translateImpulse),
		graph.Read:          HandlerFunc(translateRead),
		graph.ParDo:         HandlerFunc(translateParDo),
		graph.GBK:           HandlerFunc(translateGBK),
		graph.SortedGBK:     HandlerFunc(translateSortedGBK),
		graph.Flatten:       HandlerFunc(translateFlatten),
		graph.WindowInto:    HandlerFunc(translateWindowInto),
		graph.CombineValues: HandlerFunc(translateCombineValues),
		graph.CreateView:    HandlerFunc(translateCreateView),
	}
}
