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
	"testing"

	"github.com/nicku33/beam/graph/coder"
)

func testCoders(t *testing.T) *Coders {
	t.Helper()
	avro, err := coder.NewAvro("User", `{"type": "record", "name": "User", "fields": [{"name": "id", "type": "long"}]}`)
	if err != nil {
		t.Fatalf("NewAvro failed: %v", err)
	}
	return &Coders{
		Avro:   map[string]*coder.Coder{"User": avro},
		Custom: map[string][]byte{"proto": []byte("payload")},
	}
}

func TestParseCoder(t *testing.T) {
	cs := testCoders(t)
	tests := []struct {
		in, want string
	}{
		{"bytes", "bytes"},
		{"varint", "varint"},
		{"string", "string_utf8"},
		{"string_utf8", "string_utf8"},
		{"bool", "bool"},
		{"double", "double"},
		{"KV<string_utf8,varint>", "KV<string_utf8,varint>"},
		{" KV < bytes , Iterable<varint> > ", "KV<bytes,Iterable<varint>>"},
		{"LP<KV<bool,double>>", "LP<KV<bool,double>>"},
		{"Avro<User>", "Avro<User>"},
		{"Custom<proto>", "Custom<proto>"},
		{"KV<Custom<proto>,Iterable<Avro<User>>>", "KV<Custom<proto>,Iterable<Avro<User>>>"},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			c, err := cs.ParseCoder(test.in)
			if err != nil {
				t.Fatalf("ParseCoder(%q) failed: %v", test.in, err)
			}
			if got := c.String(); got != test.want {
				t.Errorf("ParseCoder(%q) = %v, want %v", test.in, got, test.want)
			}
		})
	}
}

func TestParseCoder_Custom(t *testing.T) {
	c, err := testCoders(t).ParseCoder("Custom<proto>")
	if err != nil {
		t.Fatalf("ParseCoder failed: %v", err)
	}
	if c.Custom == nil || string(c.Custom.Payload) != "payload" {
		t.Errorf("ParseCoder(Custom<proto>) = %+v, want payload %q", c.Custom, "payload")
	}
}

func TestParseCoder_Bad(t *testing.T) {
	tests := []string{
		"",
		"KV<varint>",
		"KV<varint,varint,varint>",
		"varint<bytes>",
		"Iterable",
		"W<varint>",
		"Avro<Missing>",
		"Custom<missing>",
		"KV<varint,bytes",
		"KV<varint,bytes>>",
		"key=varint",
		"unknown",
	}
	cs := testCoders(t)
	for _, test := range tests {
		if c, err := cs.ParseCoder(test); err == nil {
			t.Errorf("ParseCoder(%q) = %v, want error", test, c)
		}
	}
}

func TestParseTrigger(t *testing.T) {
	tests := []string{
		"Default",
		"Always",
		"Never",
		"AfterCount<3>",
		"AfterProcessingTime<1m0s>",
		"AfterSynchronizedProcessingTime",
		"AfterEndOfWindow",
		"AfterEndOfWindow<early=AfterCount<1>>",
		"AfterEndOfWindow<early=AfterProcessingTime<10s>,late=Always>",
		"AfterAny<AfterCount<2>,AfterProcessingTime<5s>>",
		"AfterAll<Never,Always>",
		"AfterEach<AfterCount<1>,AfterCount<2>>",
		"Repeat<AfterCount<3>>",
		"OrFinally<Repeat<AfterCount<1>>,AfterEndOfWindow>",
	}
	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			tr, err := ParseTrigger(test)
			if err != nil {
				t.Fatalf("ParseTrigger(%q) failed: %v", test, err)
			}
			if got := tr.String(); got != test {
				t.Errorf("ParseTrigger(%q).String() = %v, want %v", test, got, test)
			}
		})
	}
}

func TestParseTrigger_Bad(t *testing.T) {
	tests := []string{
		"",
		"AfterCount",
		"AfterCount<0>",
		"AfterCount<x>",
		"AfterProcessingTime<soon>",
		"Always<Never>",
		"AfterAny",
		"Repeat<Always,Never>",
		"OrFinally<Always>",
		"AfterEndOfWindow<middle=Always>",
		"early=Always",
		"Eventually",
	}
	for _, test := range tests {
		if tr, err := ParseTrigger(test); err == nil {
			t.Errorf("ParseTrigger(%q) = %v, want error", test, tr)
		}
	}
}
