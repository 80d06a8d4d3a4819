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

package websocket

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gobwas/ws"

	te "github.com/trickstercache/quay/pkg/errors"
)

// Opcode is the RFC 6455 frame opcode
type Opcode byte

const (
	OpContinuation = Opcode(ws.OpContinuation)
	OpText         = Opcode(ws.OpText)
	OpBinary       = Opcode(ws.OpBinary)
	OpClose        = Opcode(ws.OpClose)
	OpPing         = Opcode(ws.OpPing)
	OpPong         = Opcode(ws.OpPong)
)

// IsControl reports whether the opcode is a control frame opcode
func (o Opcode) IsControl() bool {
	return ws.OpCode(o).IsControl()
}

func (o Opcode) valid() bool {
	switch o {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	}
	return false
}

func (o Opcode) String() string {
	switch o {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	}
	return fmt.Sprintf("opcode(%d)", byte(o))
}

// Frame is a single RFC 6455 frame. Payload is always unmasked.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	Mask    [4]byte
	Payload []byte
}

func violation(err error) error {
	return fmt.Errorf("%w: %w", te.ErrProtocolViolation, err)
}

// ReadFrame reads one frame from r. A limit > 0 bounds the payload length.
func ReadFrame(r io.Reader, limit int64) (Frame, error) {
	var f Frame
	h, err := ws.ReadHeader(r)
	if err != nil {
		if errors.Is(err, ws.ErrHeaderLengthMSB) ||
			errors.Is(err, ws.ErrHeaderLengthUnexpected) {
			return f, violation(err)
		}
		return f, err
	}
	f.Fin, f.Opcode, f.Masked, f.Mask = h.Fin, Opcode(h.OpCode), h.Masked, h.Mask
	switch {
	case h.Rsv != 0:
		return f, violation(ws.ErrProtocolNonZeroRsv)
	case !f.Opcode.valid():
		return f, violation(ws.ErrProtocolOpCodeReserved)
	case f.Opcode.IsControl() && h.Length > int64(ws.MaxControlFramePayloadSize):
		return f, violation(ws.ErrProtocolControlPayloadOverflow)
	case f.Opcode.IsControl() && !h.Fin:
		return f, violation(ws.ErrProtocolControlNotFinal)
	case limit > 0 && h.Length > limit:
		return f, fmt.Errorf("%w: %d bytes", te.ErrFrameTooLarge, h.Length)
	}
	f.Payload = make([]byte, h.Length)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return f, err
	}
	if h.Masked {
		ws.Cipher(f.Payload, h.Mask, 0)
	}
	return f, nil
}

// AppendFrame appends the wire encoding of f to b. When f.Masked is set the
// payload is masked with f.Mask, as a client must do.
func AppendFrame(b []byte, f Frame) []byte {
	buf := bytes.NewBuffer(b)
	buf.Grow(ws.MaxHeaderSize + len(f.Payload))
	h := ws.Header{
		Fin:    f.Fin,
		OpCode: ws.OpCode(f.Opcode),
		Masked: f.Masked,
		Mask:   f.Mask,
		Length: int64(len(f.Payload)),
	}
	// writes to a bytes.Buffer do not fail
	_ = ws.WriteHeader(buf, h)
	start := buf.Len()
	buf.Write(f.Payload)
	out := buf.Bytes()
	if f.Masked {
		ws.Cipher(out[start:], f.Mask, 0)
	}
	return out
}

// WriteFrame writes f to w in a single Write call
func WriteFrame(w io.Writer, f Frame) error {
	_, err := w.Write(AppendFrame(nil, f))
	return err
}
