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

package local

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nicku33/beam/io/filesystem"
)

func TestReadWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer fs.Close()

	path := filepath.Join(dir, "nested", "job.json")
	if err := filesystem.Write(ctx, fs, path, []byte(`{"name":"j"}`)); err != nil {
		t.Fatalf("Write(%v) failed: %v", path, err)
	}
	data, err := filesystem.Read(ctx, fs, path)
	if err != nil {
		t.Fatalf("Read(%v) failed: %v", path, err)
	}
	if got, want := string(data), `{"name":"j"}`; got != want {
		t.Errorf("Read(%v) = %v, want %v", path, got, want)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.yaml", "b.yaml", "c.hcl", filepath.Join("d.yaml", "x")} {
		if err := filesystem.Write(ctx, fs, filepath.Join(dir, name), []byte(name)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := fs.List(ctx, filepath.Join(dir, "*.yaml"))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml")}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("List diff (-want, +got):\n%v", d)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.yaml")
	if _, err := fs.OpenRead(ctx, missing); err == nil || !strings.Contains(err.Error(), missing) {
		t.Errorf("OpenRead(%v) = %v, want error naming the file", missing, err)
	}
	if _, err := fs.List(ctx, filepath.Join(dir, "[")); err == nil {
		t.Error("List([) succeeded, want error")
	}
	// A regular file cannot be a parent directory.
	blocker := filepath.Join(dir, "file")
	if err := filesystem.Write(ctx, fs, blocker, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.OpenWrite(ctx, filepath.Join(blocker, "job.json")); err == nil {
		t.Error("OpenWrite under a regular file succeeded, want error")
	}
}
