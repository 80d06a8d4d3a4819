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

package encoding

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// NewEncoder wraps w with the Provider's encoder. Level < 1 uses the
// provider's default. Identity returns nil.
func NewEncoder(p Provider, w io.Writer, level int) io.WriteCloser {
	switch p {
	case Zstandard:
		l := zstd.SpeedDefault
		switch {
		case level < 1:
		case level < 3:
			l = zstd.SpeedFastest
		case level > 7:
			l = zstd.SpeedBestCompression
		case level > 3:
			l = zstd.SpeedBetterCompression
		}
		zw, _ := zstd.NewWriter(w, zstd.WithEncoderLevel(l))
		return zw
	case Brotli:
		if level < 1 {
			level = 4
		}
		return brotli.NewWriterLevel(w, level)
	case GZip:
		if level < 1 {
			level = gzip.DefaultCompression
		}
		gw, _ := gzip.NewWriterLevel(w, level)
		return gw
	case Deflate:
		if level < 1 {
			level = flate.DefaultCompression
		}
		fw, _ := flate.NewWriter(w, level)
		return fw
	case Snappy:
		return snappy.NewBufferedWriter(w)
	}
	return nil
}

// NewDecoder wraps r with the Provider's decoder. Identity returns r.
func NewDecoder(p Provider, r io.Reader) (io.Reader, error) {
	switch p {
	case Zstandard:
		return zstd.NewReader(r)
	case Brotli:
		return brotli.NewReader(r), nil
	case GZip:
		return gzip.NewReader(r)
	case Deflate:
		return flate.NewReader(r), nil
	case Snappy:
		return snappy.NewReader(r), nil
	}
	return r, nil
}

// Encode returns in encoded by the Provider
func Encode(p Provider, in []byte, level int) ([]byte, error) {
	if p == Identity {
		return in, nil
	}
	buf := bytes.NewBuffer(make([]byte, 0, len(in)/2+64))
	w := NewEncoder(p, buf, level)
	if _, err := w.Write(in); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode returns in decoded by the Provider
func Decode(p Provider, in []byte) ([]byte, error) {
	r, err := NewDecoder(p, bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
