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

// Package local registers the file system used for paths without a scheme.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/io/filesystem"
)

func init() {
	filesystem.Register("default", New)
}

type fs struct{}

// New returns the local file system. It holds no resources.
func New(_ context.Context) (filesystem.Interface, error) {
	return fs{}, nil
}

func (fs) Close() error {
	return nil
}

// List expands glob with filepath.Glob. Directories are skipped since they
// cannot be opened as pipeline descriptions.
func (fs) List(_ context.Context, glob string) ([]string, error) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, errors.Wrapf(err, "bad pattern %q", glob)
	}
	var ret []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			ret = append(ret, m)
		}
	}
	return ret, nil
}

func (fs) OpenRead(_ context.Context, filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %v", filename)
	}
	return f, nil
}

// OpenWrite creates or truncates filename, creating missing parent
// directories.
func (fs) OpenWrite(_ context.Context, filename string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %v", filename)
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %v for writing", filename)
	}
	return f, nil
}
