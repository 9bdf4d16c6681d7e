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

// Package gcs contains a Google Cloud Storage (GCS) implementation of the
// file system.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/io/filesystem"
	"github.com/nicku33/beam/log"
	"github.com/nicku33/beam/util/gcsx"
	"google.golang.org/api/iterator"
)

func init() {
	filesystem.Register("gs", New)
}

type fs struct {
	client           *storage.Client
	billingProjectID string
}

// New creates a new Google Cloud Storage filesystem using application
// default credentials. If it fails, it falls back to unauthenticated
// access.
// It will use the environment variable named `BILLING_PROJECT_ID` as requester payer bucket attribute.
func New(ctx context.Context) (filesystem.Interface, error) {
	client, err := gcsx.NewClient(ctx, storage.ScopeReadWrite)
	if err != nil {
		log.Warnf(ctx, "Warning: falling back to unauthenticated GCS access: %v", err)

		client, err = gcsx.NewUnauthenticatedClient(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create GCS client")
		}
	}
	return &fs{
		client:           client,
		billingProjectID: os.Getenv("BILLING_PROJECT_ID"),
	}, nil
}

func (f *fs) Close() error {
	return f.client.Close()
}

func (f *fs) bucket(name string) *storage.BucketHandle {
	return f.client.Bucket(name).UserProject(f.billingProjectID)
}

func (f *fs) List(ctx context.Context, glob string) ([]string, error) {
	bucket, object, err := gcsx.ParseObject(glob)
	if err != nil {
		return nil, err
	}

	// We handle globs by listing all candidates under the literal prefix and
	// matching them here.
	it := f.bucket(bucket).Objects(ctx, &storage.Query{
		Prefix: filesystem.GetPrefix(object),
	})
	var ret []string
	for {
		obj, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		match, err := filepath.Match(object, obj.Name)
		if err != nil {
			return nil, err
		}
		if match {
			ret = append(ret, fmt.Sprintf("gs://%v/%v", bucket, obj.Name))
		}
	}
	return ret, nil
}

func (f *fs) OpenRead(ctx context.Context, filename string) (io.ReadCloser, error) {
	bucket, object, err := gcsx.ParseObject(filename)
	if err != nil {
		return nil, err
	}

	return f.bucket(bucket).Object(object).NewReader(ctx)
}

func (f *fs) OpenWrite(ctx context.Context, filename string) (io.WriteCloser, error) {
	bucket, object, err := gcsx.ParseObject(filename)
	if err != nil {
		return nil, err
	}

	w := f.bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType(object)
	return w, nil
}

func contentType(object string) string {
	switch filepath.Ext(object) {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return ""
	}
}
