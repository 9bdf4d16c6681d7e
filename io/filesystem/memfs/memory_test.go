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

package memfs

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nicku33/beam/io/filesystem"
)

// TestReadWrite tests that read and write from the memory filesystem
// works as expected.
func TestReadWrite(t *testing.T) {
	ctx := context.Background()
	fs, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := filesystem.Write(ctx, fs, "memfs://foo", []byte("foo")); err != nil {
		t.Fatalf("Write(memfs://foo) failed: %v", err)
	}
	if err := filesystem.Write(ctx, fs, "bar", []byte("bar")); err != nil {
		t.Fatalf("Write(bar) failed: %v", err)
	}

	tests := []struct {
		Filename string
		Data     string
	}{
		{"foo", "foo"},
		{"memfs://foo", "foo"},
		{"bar", "bar"},
		{"memfs://bar", "bar"},
	}
	for _, test := range tests {
		data, err := filesystem.Read(ctx, fs, test.Filename)
		if err != nil {
			t.Errorf("Read(%v) failed: %v", test.Filename, err)
			continue
		}
		if got, want := string(data), test.Data; got != want {
			t.Errorf("Read(%v)=%v, want %v", test.Filename, got, want)
		}
	}

	if _, err := filesystem.Read(ctx, fs, "missing"); !os.IsNotExist(err) {
		t.Errorf("Read(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	Write("memfs://list/a.yaml", []byte("a"))
	Write("memfs://list/b.yaml", []byte("b"))
	Write("memfs://list/c.hcl", []byte("c"))
	defer func() {
		for _, k := range []string{"list/a.yaml", "list/b.yaml", "list/c.hcl"} {
			Remove(k)
		}
	}()

	fs, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := fs.List(ctx, "memfs://list/*.yaml")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"memfs://list/a.yaml", "memfs://list/b.yaml"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("List diff (-want, +got):\n%v", d)
	}
}

func TestReadFile(t *testing.T) {
	ctx := context.Background()
	if err := filesystem.WriteFile(ctx, "memfs://job.json", []byte("{}")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	defer Remove("job.json")

	data, err := filesystem.ReadFile(ctx, "memfs://job.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got, want := string(data), "{}"; got != want {
		t.Errorf("ReadFile() = %q, want %q", got, want)
	}
}
