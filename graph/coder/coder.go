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

// Package coder contains the coder representation used by the pipeline graph
// and its serialized CloudObject form, as consumed by the Dataflow service.
package coder

import (
	"bytes"
	"fmt"
	"strings"
)

// Kind is the kind of a coder.
type Kind string

// Coder kinds. Custom and Avro coders carry additional data.
const (
	Bytes         Kind = "bytes" // Implicitly length-prefixed as part of the encoding
	VarInt        Kind = "varint"
	String        Kind = "string_utf8"
	Bool          Kind = "bool"
	Double        Kind = "double"
	KV            Kind = "KV"
	Iterable      Kind = "Iterable"
	LP            Kind = "LP"
	WindowedValue Kind = "W"
	Custom        Kind = "Custom" // Implicitly length-prefixed
	Avro          Kind = "Avro"
)

// CustomCoder is a coder whose encoding is known only to the worker. Payload
// is the opaque serialized coder.
type CustomCoder struct {
	Name    string
	Payload []byte
}

// Equals returns true iff both custom coders have the same name and payload.
func (c *CustomCoder) Equals(o *CustomCoder) bool {
	return c.Name == o.Name && bytes.Equal(c.Payload, o.Payload)
}

func (c *CustomCoder) String() string {
	return fmt.Sprintf("%v<%v>", Custom, c.Name)
}

// Coder is a description of how to encode and decode values of some type.
// Coders are immutable once built.
type Coder struct {
	Kind       Kind
	Components []*Coder     // Element coders for KV, Iterable, LP and W.
	Window     *WindowCoder // Only for W.
	Custom     *CustomCoder // Only for Custom.
	Schema     *AvroSchema  // Only for Avro.
}

// Equals returns true iff the two coders are structurally identical.
func (c *Coder) Equals(o *Coder) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Kind != o.Kind || len(c.Components) != len(o.Components) {
		return false
	}
	for i := range c.Components {
		if !c.Components[i].Equals(o.Components[i]) {
			return false
		}
	}
	switch c.Kind {
	case WindowedValue:
		return c.Window.Equals(o.Window)
	case Custom:
		return c.Custom.Equals(o.Custom)
	case Avro:
		return c.Schema.Canonical == o.Schema.Canonical
	}
	return true
}

func (c *Coder) String() string {
	if c == nil {
		return "$"
	}
	switch {
	case c.Custom != nil:
		return c.Custom.String()
	case c.Schema != nil:
		return fmt.Sprintf("%v<%v>", Avro, c.Schema.Name)
	}

	ret := string(c.Kind)
	if len(c.Components) > 0 {
		var args []string
		for _, elm := range c.Components {
			args = append(args, elm.String())
		}
		ret += fmt.Sprintf("<%v>", strings.Join(args, ","))
	}
	if c.Window != nil {
		ret += fmt.Sprintf("!%v", c.Window)
	}
	return ret
}

// NewBytes returns a coder for byte slices.
func NewBytes() *Coder {
	return &Coder{Kind: Bytes}
}

// NewVarInt returns a variable length integer coder.
func NewVarInt() *Coder {
	return &Coder{Kind: VarInt}
}

// NewString returns a UTF-8 string coder.
func NewString() *Coder {
	return &Coder{Kind: String}
}

// NewBool returns a boolean coder.
func NewBool() *Coder {
	return &Coder{Kind: Bool}
}

// NewDouble returns a float64 coder.
func NewDouble() *Coder {
	return &Coder{Kind: Double}
}

// NewKV returns a key/value coder.
func NewKV(key, value *Coder) *Coder {
	checkCodersNotNil(key, value)
	return &Coder{Kind: KV, Components: []*Coder{key, value}}
}

// IsKV returns true iff the coder is for key/value pairs.
func IsKV(c *Coder) bool {
	return c.Kind == KV
}

// NewI returns an iterable coder for elements encoded by c.
func NewI(c *Coder) *Coder {
	checkCodersNotNil(c)
	return &Coder{Kind: Iterable, Components: []*Coder{c}}
}

// NewLP returns a length prefixed coder wrapping c.
func NewLP(c *Coder) *Coder {
	checkCodersNotNil(c)
	return &Coder{Kind: LP, Components: []*Coder{c}}
}

// NewW returns a WindowedValue coder for the window of elements.
func NewW(c *Coder, w *WindowCoder) *Coder {
	checkCodersNotNil(c)
	if w == nil {
		panic("window must not be nil")
	}
	return &Coder{Kind: WindowedValue, Components: []*Coder{c}, Window: w}
}

// IsW returns true iff the coder is for a WindowedValue.
func IsW(c *Coder) bool {
	return c != nil && c.Kind == WindowedValue
}

// SkipW returns the data coder used by a WindowedValue, or returns the coder. This
// allows code to seamlessly traverse WindowedValues without additional conditional
// code.
func SkipW(c *Coder) *Coder {
	if IsW(c) {
		return c.Components[0]
	}
	return c
}

// NewCustom returns a coder opaque to everything but the worker.
func NewCustom(name string, payload []byte) *Coder {
	return &Coder{Kind: Custom, Custom: &CustomCoder{Name: name, Payload: payload}}
}

func checkCodersNotNil(list ...*Coder) {
	for i, c := range list {
		if c == nil {
			panic(fmt.Sprintf("nil coder at index: %v", i))
		}
	}
}
