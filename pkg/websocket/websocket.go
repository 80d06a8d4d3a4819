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

// Package websocket upgrades an HTTP/1.1 request to a WebSocket connection and
// reads and writes RFC 6455 frames over it
package websocket

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/gobwas/ws"

	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/socket"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Version is the only protocol version accepted
const Version = "13"

// Close status codes
const (
	CloseNormal          = int(ws.StatusNormalClosure)
	CloseGoingAway       = int(ws.StatusGoingAway)
	CloseProtocolError   = int(ws.StatusProtocolError)
	CloseUnsupportedData = int(ws.StatusUnsupportedData)
	CloseNoStatus        = int(ws.StatusNoStatusRcvd)
	CloseInvalidPayload  = int(ws.StatusInvalidFramePayloadData)
	CloseMessageTooBig   = int(ws.StatusMessageTooBig)
)

// DefaultMessageLimit bounds assembled message size when Upgrade is given
// no limit
const DefaultMessageLimit = 1 << 20

// AcceptKey derives the Sec-WebSocket-Accept value for a client key
func AcceptKey(key string) string {
	h := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(h[:])
}

// IsUpgrade reports whether req asks for a WebSocket upgrade
func IsUpgrade(req *request.Request) bool {
	return req.Method == http.MethodGet &&
		headers.ContainsToken(req.Header(headers.NameConnection), headers.ValueUpgrade) &&
		headers.ContainsToken(req.Header(headers.NameUpgrade), headers.ValueWebSocket) &&
		req.Header(headers.NameSecWebSocketKey) != ""
}

// Upgrade answers req with 101 Switching Protocols directly on its socket and
// hijacks the socket, so the server sends no further response for the
// request. limit bounds the size of a message read from the peer; 0 uses
// DefaultMessageLimit.
func Upgrade(req *request.Request, limit int64) (*Conn, error) {
	if !IsUpgrade(req) {
		return nil, te.ErrNotUpgradable
	}
	if v := req.Header(headers.NameSecWebSocketVersion); v != Version {
		return nil, fmt.Errorf("%w: version %q", te.ErrNotUpgradable, v)
	}
	if req.Socket == nil {
		return nil, fmt.Errorf("%w: no socket", te.ErrNotUpgradable)
	}
	r := response.Status(http.StatusSwitchingProtocols)
	r.SetHeader(headers.NameUpgrade, headers.ValueWebSocket)
	r.SetHeader(headers.NameConnection, headers.ValueUpgrade)
	r.SetHeader(headers.NameSecWebSocketAccept,
		AcceptKey(req.Header(headers.NameSecWebSocketKey)))
	if _, err := r.WriteTo(req.Socket); err != nil {
		return nil, err
	}
	req.Socket.Hijack()
	return NewConn(req.Socket, limit), nil
}

// UpgradeRequired returns the 426 Response for a failed upgrade attempt
func UpgradeRequired() response.Response {
	r := response.Text(http.StatusUpgradeRequired, "websocket upgrade required")
	r.SetHeader(headers.NameSecWebSocketVersion, Version)
	return r
}

// Conn is the server side of a WebSocket connection
type Conn struct {
	rw     io.ReadWriter
	br     *bufio.Reader
	limit  int64
	wmtx   sync.Mutex
	closed bool
}

// NewConn returns a server-side Conn over an upgraded socket
func NewConn(s socket.Socket, limit int64) *Conn {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return &Conn{rw: s, br: bufio.NewReader(s), limit: limit}
}

// ReadMessage returns the next data message, assembling fragments. Pings are
// answered with pongs and pongs are discarded. A close frame is echoed and
// ReadMessage returns io.EOF. Client frames must be masked.
func (c *Conn) ReadMessage() (Opcode, []byte, error) {
	var op Opcode
	var msg []byte
	for {
		f, err := ReadFrame(c.br, c.limit)
		if err != nil {
			if errors.Is(err, te.ErrFrameTooLarge) {
				c.Close(CloseMessageTooBig, "")
			}
			return 0, nil, err
		}
		if !f.Masked {
			c.Close(CloseProtocolError, "")
			return 0, nil, violation(ws.ErrProtocolMaskRequired)
		}
		switch f.Opcode {
		case OpPing:
			if err := c.write(Frame{Fin: true, Opcode: OpPong, Payload: f.Payload}); err != nil {
				return 0, nil, err
			}
			continue
		case OpPong:
			continue
		case OpClose:
			code := CloseNoStatus
			if sc, _ := ws.ParseCloseFrameData(f.Payload); sc != 0 {
				code = int(sc)
			}
			c.Close(code, "")
			return 0, nil, io.EOF
		case OpContinuation:
			if op == 0 {
				return 0, nil, violation(ws.ErrProtocolContinuationUnexpected)
			}
		default:
			if op != 0 {
				return 0, nil, violation(ws.ErrProtocolContinuationExpected)
			}
			op = f.Opcode
		}
		if int64(len(msg)+len(f.Payload)) > c.limit {
			c.Close(CloseMessageTooBig, "")
			return 0, nil, te.ErrFrameTooLarge
		}
		msg = append(msg, f.Payload...)
		if f.Fin {
			if op == OpText && !utf8.Valid(msg) {
				c.Close(CloseInvalidPayload, "")
				return 0, nil, fmt.Errorf("%w: invalid utf-8", te.ErrProtocolViolation)
			}
			return op, msg, nil
		}
	}
}

func (c *Conn) write(f Frame) error {
	c.wmtx.Lock()
	defer c.wmtx.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	return WriteFrame(c.rw, f)
}

// WriteMessage sends data as a single unfragmented message
func (c *Conn) WriteMessage(op Opcode, data []byte) error {
	return c.write(Frame{Fin: true, Opcode: op, Payload: data})
}

// WriteText sends a text message
func (c *Conn) WriteText(s string) error {
	return c.WriteMessage(OpText, []byte(s))
}

// Ping sends a ping control frame
func (c *Conn) Ping(payload []byte) error {
	return c.write(Frame{Fin: true, Opcode: OpPing, Payload: payload})
}

// Close sends a close frame with the status code and reason. Later writes
// fail; the socket itself is closed by the server when the handler returns.
func (c *Conn) Close(code int, reason string) error {
	c.wmtx.Lock()
	defer c.wmtx.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var payload []byte
	if code != CloseNoStatus {
		// the body is cropped to the control frame payload limit
		payload = ws.NewCloseFrameBody(ws.StatusCode(code), reason)
	}
	return WriteFrame(c.rw, Frame{Fin: true, Opcode: OpClose, Payload: payload})
}
