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

// Package s3 registers an Amazon S3 backend for s3:// paths, so pipeline
// descriptions can be read from and job documents written to S3 buckets.
package s3

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/io/filesystem"
)

func init() {
	filesystem.Register(scheme, New)
}

// objectAPI is the subset of the S3 client the backend calls. *s3.Client
// satisfies it.
type objectAPI interface {
	s3.ListObjectsV2APIClient
	manager.UploadAPIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type fs struct {
	api objectAPI
}

// New creates an S3 file system from the default AWS configuration chain
// (environment, shared config files and instance roles).
func New(ctx context.Context) (filesystem.Interface, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS configuration")
	}
	return newFS(s3.NewFromConfig(cfg)), nil
}

func newFS(api objectAPI) *fs {
	return &fs{api: api}
}

func (f *fs) Close() error {
	return nil
}

// List returns the s3:// paths of the objects matching glob. Only the key
// part may contain wildcards; objects are listed under the literal prefix
// and matched here.
func (f *fs) List(ctx context.Context, glob string) ([]string, error) {
	loc, err := parseLocation(glob)
	if err != nil {
		return nil, err
	}
	if _, err := path.Match(loc.key, ""); err != nil {
		return nil, errors.Wrapf(err, "bad key pattern %q", loc.key)
	}

	pages := s3.NewListObjectsV2Paginator(f.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(loc.bucket),
		Prefix: aws.String(filesystem.GetPrefix(loc.key)),
	})
	var ret []string
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "listing %v", glob)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if ok, _ := path.Match(loc.key, key); ok {
				ret = append(ret, location{bucket: loc.bucket, key: key}.String())
			}
		}
	}
	return ret, nil
}

// OpenRead returns the body of the object. The caller must close it.
func (f *fs) OpenRead(ctx context.Context, filename string) (io.ReadCloser, error) {
	loc, err := parseObject(filename)
	if err != nil {
		return nil, err
	}
	out, err := f.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.bucket),
		Key:    aws.String(loc.key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading %v", filename)
	}
	return out.Body, nil
}

// OpenWrite returns a writer that streams to the object. The object only
// becomes visible, replacing any previous version, once Close returns nil.
func (f *fs) OpenWrite(ctx context.Context, filename string) (io.WriteCloser, error) {
	loc, err := parseObject(filename)
	if err != nil {
		return nil, err
	}
	return newUpload(ctx, manager.NewUploader(f.api), loc), nil
}
