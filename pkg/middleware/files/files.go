/*
 * Copyright 2018 The Trickster Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package files provides a Ship that serves static files from a directory
package files

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/logging/logger"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/ship"

	"golang.org/x/sync/singleflight"
)

// DefaultIndex is the file served for a directory
const DefaultIndex = "index.html"

// FileServer serves files under a root directory. Paths cannot escape the
// root. Loaded files are cached and reloaded when their modification time
// or size changes.
type FileServer struct {
	root   *os.Root
	index  string
	prefix string

	mtx   sync.RWMutex
	cache map[string]*file
	group singleflight.Group
}

type file struct {
	data        []byte
	contentType string
	modTime     time.Time
	size        int64
}

// Option configures a FileServer
type Option func(*FileServer)

// WithIndex sets the file served for directory paths
func WithIndex(name string) Option {
	return func(f *FileServer) {
		if name != "" {
			f.index = name
		}
	}
}

// WithStripPrefix removes prefix from request paths before they are
// resolved against the root
func WithStripPrefix(prefix string) Option {
	return func(f *FileServer) {
		f.prefix = prefix
	}
}

// New opens dir as the FileServer root
func New(dir string, opts ...Option) (*FileServer, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	f := &FileServer{
		root:  root,
		index: DefaultIndex,
		cache: make(map[string]*file),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Close releases the root directory
func (f *FileServer) Close() error {
	return f.root.Close()
}

// name maps a request path to a slash-separated name relative to the root
func (f *FileServer) name(p string) (string, bool) {
	p, err := url.PathUnescape(p)
	if err != nil {
		return "", false
	}
	p = strings.TrimPrefix(p, f.prefix)
	dir := p == "" || strings.HasSuffix(p, "/")
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" || p == "." {
		return f.index, true
	}
	if dir {
		return p + "/" + f.index, true
	}
	return p, true
}

// Handle loads the file for the request path into res and lets the chain
// continue. A missing file short-circuits with 404 Not Found.
func (f *FileServer) Handle(ctx context.Context, req *request.Request,
	res *response.Response) *response.Response {
	name, ok := f.name(req.Path)
	if !ok {
		return notFound()
	}
	fl, err := f.load(ctx, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("file load failed", logging.Pairs{"file": name, "detail": err.Error()})
		}
		return notFound()
	}
	res.Status = http.StatusOK
	res.SetBody(fl.contentType, fl.data)
	res.SetHeader(headers.NameLastModified, fl.modTime.UTC().Format(http.TimeFormat))
	return nil
}

// Ship returns Handle as a Ship
func (f *FileServer) Ship() ship.Ship {
	return ship.Make(f.Handle)
}

// Cached returns the number of files held in the cache
func (f *FileServer) Cached() int {
	f.mtx.RLock()
	defer f.mtx.RUnlock()
	return len(f.cache)
}

func (f *FileServer) load(ctx context.Context, name string) (*file, error) {
	info, err := f.root.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		name = path.Join(name, f.index)
		if info, err = f.root.Stat(name); err != nil {
			return nil, err
		}
	}
	f.mtx.RLock()
	fl, ok := f.cache[name]
	f.mtx.RUnlock()
	if ok && fl.modTime.Equal(info.ModTime()) && fl.size == info.Size() {
		return fl, nil
	}
	ch := f.group.DoChan(name, func() (any, error) {
		return f.read(name)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*file), nil
	}
}

func (f *FileServer) read(name string) (*file, error) {
	h, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	info, err := h.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fs.ErrNotExist
	}
	data, err := io.ReadAll(h)
	if err != nil {
		return nil, err
	}
	fl := &file{
		data:        data,
		contentType: contentType(name, data),
		modTime:     info.ModTime(),
		size:        info.Size(),
	}
	f.mtx.Lock()
	f.cache[name] = fl
	f.mtx.Unlock()
	return fl, nil
}

func contentType(name string, data []byte) string {
	ext := path.Ext(name)
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	logger.WarnOnce("mime."+ext, "unknown mime type", logging.Pairs{"extension": ext})
	return http.DetectContentType(data)
}

func notFound() *response.Response {
	r := response.Text(http.StatusNotFound, http.StatusText(http.StatusNotFound))
	return &r
}
