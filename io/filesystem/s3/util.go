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
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/nicku33/beam/internal/errors"
)

const scheme = "s3"

// location is a bucket and object key pair.
type location struct {
	bucket, key string
}

// String formats the location as s3://bucket/key.
func (l location) String() string {
	return fmt.Sprintf("%v://%v/%v", scheme, l.bucket, l.key)
}

// parseLocation splits an s3://bucket/key path. The key may be empty.
func parseLocation(uri string) (location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return location{}, errors.Wrapf(err, "bad S3 path %q", uri)
	}
	if u.Scheme != scheme {
		return location{}, errors.Errorf("bad S3 path %q: scheme is %q, want %q", uri, u.Scheme, scheme)
	}
	if u.Host == "" {
		return location{}, errors.Errorf("bad S3 path %q: no bucket", uri)
	}
	return location{bucket: u.Host, key: strings.TrimPrefix(u.Path, "/")}, nil
}

// parseObject is parseLocation for paths that must name a single object.
func parseObject(uri string) (location, error) {
	loc, err := parseLocation(uri)
	if err != nil {
		return location{}, err
	}
	if loc.key == "" || strings.HasSuffix(loc.key, "/") {
		return location{}, errors.Errorf("bad S3 path %q: no object key", uri)
	}
	if path.Clean("/"+loc.key) != "/"+loc.key {
		return location{}, errors.Errorf("bad S3 path %q: key %q is not clean", uri, loc.key)
	}
	return loc, nil
}
