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

package s3

import (
	"context"
	"io"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nicku33/beam/internal/errors"
)

// uploader is the part of *manager.Uploader used by upload.
type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// upload streams writes into a single S3 upload through a pipe. The upload
// goroutine starts on the first Write or Close, so an empty Close still
// creates an empty object.
type upload struct {
	ctx context.Context
	up  uploader
	loc location

	start sync.Once
	pw    *io.PipeWriter
	done  chan error
}

func newUpload(ctx context.Context, up uploader, loc location) *upload {
	return &upload{ctx: ctx, up: up, loc: loc, done: make(chan error, 1)}
}

func (u *upload) run() {
	pr, pw := io.Pipe()
	u.pw = pw
	go func() {
		_, err := u.up.Upload(u.ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.loc.bucket),
			Key:         aws.String(u.loc.key),
			Body:        pr,
			ContentType: contentType(u.loc.key),
		})
		// Unblock any pending Write if the upload gave up early.
		pr.CloseWithError(err)
		u.done <- err
	}()
}

func (u *upload) Write(p []byte) (int, error) {
	u.start.Do(u.run)
	n, err := u.pw.Write(p)
	if err != nil {
		return n, errors.Wrapf(err, "writing %v", u.loc)
	}
	return n, nil
}

// Close flushes the remaining data and waits for the upload to finish.
func (u *upload) Close() error {
	u.start.Do(u.run)
	if err := u.pw.Close(); err != nil {
		return errors.Wrapf(err, "closing %v", u.loc)
	}
	if err := <-u.done; err != nil {
		return errors.Wrapf(err, "uploading %v", u.loc)
	}
	return nil
}

func contentType(key string) *string {
	switch path.Ext(key) {
	case ".json":
		return aws.String("application/json")
	case ".yaml", ".yml":
		return aws.String("application/yaml")
	case ".hcl":
		return aws.String("text/plain")
	default:
		return nil
	}
}
