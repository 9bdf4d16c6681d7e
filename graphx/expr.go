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

package graphx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nicku33/beam/graph/coder"
	"github.com/nicku33/beam/graph/window"
	"github.com/nicku33/beam/internal/errors"
)

// expr is a parsed type expression of the form Name or Name<arg,...>. An
// argument may be named, as in AfterEndOfWindow<early=AfterCount<1>>.
type expr struct {
	key  string
	name string
	args []*expr
}

func (e *expr) String() string {
	s := e.name
	if e.key != "" {
		s = e.key + "=" + s
	}
	if len(e.args) == 0 {
		return s
	}
	var args []string
	for _, a := range e.args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%v<%v>", s, strings.Join(args, ","))
}

type exprParser struct {
	src string
	pos int
}

func parseExpr(s string) (*expr, error) {
	p := &exprParser{src: s}
	e, err := p.parse()
	if err != nil {
		return nil, errors.Wrapf(err, "bad expression %q", s)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, errors.Errorf("bad expression %q: unexpected %q at %d", s, p.src[p.pos:], p.pos)
	}
	return e, nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) name() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>,= \t", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser) parse() (*expr, error) {
	e := &expr{name: p.name()}
	if p.peek() == '=' {
		p.pos++
		e.key = e.name
		e.name = p.name()
	}
	if e.name == "" {
		return nil, errors.Errorf("missing name at %d", p.pos)
	}
	if p.peek() != '<' {
		return e, nil
	}
	p.pos++
	for {
		arg, err := p.parse()
		if err != nil {
			return nil, err
		}
		e.args = append(e.args, arg)
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return e, nil
		default:
			return nil, errors.Errorf("expected ',' or '>' at %d", p.pos)
		}
	}
}

// Coders resolves coder expressions. Avro and custom coders are looked up by
// name.
type Coders struct {
	Avro   map[string]*coder.Coder
	Custom map[string][]byte
}

// ParseCoder parses a coder expression such as KV<string_utf8,Iterable<varint>>.
// Windowed value coders are not accepted: the translator adds them.
func (cs *Coders) ParseCoder(s string) (*coder.Coder, error) {
	e, err := parseExpr(s)
	if err != nil {
		return nil, err
	}
	return cs.decodeCoder(e)
}

func (cs *Coders) decodeCoder(e *expr) (*coder.Coder, error) {
	if e.key != "" {
		return nil, errors.Errorf("coder %v cannot be named", e)
	}
	arity := func(n int) error {
		if len(e.args) != n {
			return errors.Errorf("coder %v takes %d arguments, got %d", e.name, n, len(e.args))
		}
		return nil
	}
	components := func() ([]*coder.Coder, error) {
		var ret []*coder.Coder
		for _, a := range e.args {
			c, err := cs.decodeCoder(a)
			if err != nil {
				return nil, err
			}
			ret = append(ret, c)
		}
		return ret, nil
	}

	switch e.name {
	case "bytes", "varint", "string_utf8", "string", "bool", "double":
		if err := arity(0); err != nil {
			return nil, err
		}
		switch e.name {
		case "bytes":
			return coder.NewBytes(), nil
		case "varint":
			return coder.NewVarInt(), nil
		case "bool":
			return coder.NewBool(), nil
		case "double":
			return coder.NewDouble(), nil
		default:
			return coder.NewString(), nil
		}
	case "KV":
		if err := arity(2); err != nil {
			return nil, err
		}
		c, err := components()
		if err != nil {
			return nil, err
		}
		return coder.NewKV(c[0], c[1]), nil
	case "Iterable", "LP":
		if err := arity(1); err != nil {
			return nil, err
		}
		c, err := components()
		if err != nil {
			return nil, err
		}
		if e.name == "LP" {
			return coder.NewLP(c[0]), nil
		}
		return coder.NewI(c[0]), nil
	case "Avro":
		if err := arity(1); err != nil {
			return nil, err
		}
		c, ok := cs.Avro[e.args[0].name]
		if !ok {
			return nil, errors.Errorf("unknown avro schema %q", e.args[0].name)
		}
		return c, nil
	case "Custom":
		if err := arity(1); err != nil {
			return nil, err
		}
		name := e.args[0].name
		payload, ok := cs.Custom[name]
		if !ok {
			return nil, errors.Errorf("unknown custom coder %q", name)
		}
		return coder.NewCustom(name, payload), nil
	case "W":
		return nil, errors.New("windowed value coders are added by the translator")
	default:
		return nil, errors.Errorf("unknown coder %q", e.name)
	}
}

// ParseTrigger parses a trigger expression such as Repeat<AfterCount<3>>. The
// syntax is the one printed by window.Trigger.
func ParseTrigger(s string) (*window.Trigger, error) {
	e, err := parseExpr(s)
	if err != nil {
		return nil, err
	}
	t, err := decodeTrigger(e)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeTrigger(e *expr) (*window.Trigger, error) {
	if e.key != "" {
		return nil, errors.Errorf("unexpected named trigger %v", e)
	}
	kind := window.TriggerKind(e.name)
	t := &window.Trigger{Kind: kind}
	switch kind {
	case window.DefaultTrigger, window.AlwaysTrigger, window.NeverTrigger, window.AfterSynchronizedProcessingTimeTrigger:
		if len(e.args) != 0 {
			return nil, errors.Errorf("trigger %v takes no arguments", kind)
		}
	case window.AfterCountTrigger:
		if len(e.args) != 1 {
			return nil, errors.Errorf("trigger %v takes an element count", kind)
		}
		n, err := strconv.ParseInt(e.args[0].name, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "bad element count in %v", e)
		}
		t.ElementCount = int32(n)
	case window.AfterProcessingTimeTrigger:
		if len(e.args) != 1 {
			return nil, errors.Errorf("trigger %v takes a delay", kind)
		}
		d, err := time.ParseDuration(e.args[0].name)
		if err != nil {
			return nil, errors.Wrapf(err, "bad delay in %v", e)
		}
		t.Delay = d
	case window.AfterEndOfWindowTrigger:
		for _, a := range e.args {
			sub := *a
			sub.key = ""
			st, err := decodeTrigger(&sub)
			if err != nil {
				return nil, err
			}
			switch a.key {
			case "early":
				t.Early = st
			case "late":
				t.Late = st
			default:
				return nil, errors.Errorf("trigger %v takes early= and late= arguments, got %v", kind, a)
			}
		}
	case window.AfterAnyTrigger, window.AfterAllTrigger, window.AfterEachTrigger, window.RepeatTrigger, window.OrFinallyTrigger:
		for _, a := range e.args {
			st, err := decodeTrigger(a)
			if err != nil {
				return nil, err
			}
			t.SubTriggers = append(t.SubTriggers, st)
		}
	default:
		return nil, errors.Errorf("unknown trigger %q", e.name)
	}
	return t, nil
}
