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
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"

	"github.com/gobwas/ws"

	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/socket"

	"github.com/stretchr/testify/require"
)

var testMask = [4]byte{0x37, 0xfa, 0x21, 0x3d}

func TestAcceptKey(t *testing.T) {
	require.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", AcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestFrameRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 125, 126, 127, 65535, 65536, 70000}
	for i, n := range sizes {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			payload := bytes.Repeat([]byte{'a'}, n)
			for _, masked := range []bool{false, true} {
				var buf bytes.Buffer
				f := Frame{Fin: true, Opcode: OpBinary, Masked: masked, Mask: testMask,
					Payload: payload}
				require.NoError(t, WriteFrame(&buf, f))
				out, err := ReadFrame(&buf, 0)
				require.NoError(t, err)
				require.True(t, out.Fin)
				require.Equal(t, OpBinary, out.Opcode)
				require.Equal(t, masked, out.Masked)
				require.Equal(t, n, len(out.Payload))
				require.True(t, bytes.Equal(payload, out.Payload))
				require.Equal(t, 0, buf.Len())
			}
		})
	}
}

func TestFrameHeaderLayout(t *testing.T) {
	// RFC 6455 section 5.7: a single-frame masked text message containing "Hello"
	b := AppendFrame(nil, Frame{Fin: true, Opcode: OpText, Masked: true, Mask: testMask,
		Payload: []byte("Hello")})
	require.Equal(t, []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58}, b)

	b = AppendFrame(nil, Frame{Fin: true, Opcode: OpText, Payload: []byte("Hello")})
	require.Equal(t, []byte{0x81, 0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f}, b)

	b = AppendFrame(nil, Frame{Fin: true, Opcode: OpBinary, Payload: make([]byte, 256)})
	require.Equal(t, []byte{0x82, 0x7E, 0x01, 0x00}, b[:4])

	b = AppendFrame(nil, Frame{Fin: true, Opcode: OpBinary, Payload: make([]byte, 65536)})
	require.Equal(t, []byte{0x82, 0x7F, 0, 0, 0, 0, 0, 1, 0, 0}, b[:10])
}

func TestReadFrameErrors(t *testing.T) {
	tests := []struct {
		raw      []byte
		limit    int64
		expected error
	}{
		{[]byte{0xC1, 0x00}, 0, te.ErrProtocolViolation},                           // rsv1 set
		{[]byte{0x83, 0x00}, 0, te.ErrProtocolViolation},                           // reserved opcode
		{[]byte{0x09, 0x00}, 0, te.ErrProtocolViolation},                           // fragmented ping
		{[]byte{0x89, 0x7E, 0x00, 0x80}, 0, te.ErrProtocolViolation},               // oversized ping
		{[]byte{0x82, 0x7E, 0x01, 0x00}, 16, te.ErrFrameTooLarge},                  // over limit
		{[]byte{0x82, 0x05, 'a'}, 0, io.ErrUnexpectedEOF},                          // truncated
		{[]byte{0x82, 0x7F, 0x80, 0, 0, 0, 0, 0, 0, 0}, 0, te.ErrProtocolViolation}, // msb set
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(test.raw), test.limit)
			require.True(t, errors.Is(err, test.expected), "got %v", err)
		})
	}
}

func TestReadFrameErrorCauses(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0xC1, 0x00}), 0)
	require.ErrorIs(t, err, ws.ErrProtocolNonZeroRsv)
	_, err = ReadFrame(bytes.NewReader([]byte{0x09, 0x00}), 0)
	require.ErrorIs(t, err, ws.ErrProtocolControlNotFinal)
	_, err = ReadFrame(bytes.NewReader([]byte{0x82, 0x7F, 0x80, 0, 0, 0, 0, 0, 0, 0}), 0)
	require.ErrorIs(t, err, ws.ErrHeaderLengthMSB)
}

func TestCloseReasonCropped(t *testing.T) {
	conn, _, cr, _ := startUpgrade(t)
	go conn.Close(CloseGoingAway, string(bytes.Repeat([]byte("r"), 200)))
	f, err := ReadFrame(cr, 0)
	require.NoError(t, err)
	require.Equal(t, OpClose, f.Opcode)
	require.Len(t, f.Payload, 125)
	code, reason := ws.ParseCloseFrameData(f.Payload)
	require.Equal(t, CloseGoingAway, int(code))
	require.Len(t, reason, 123)
}

func upgradeRequest(s socket.Socket) *request.Request {
	return &request.Request{
		Method: http.MethodGet,
		Path:   "/ws",
		Headers: map[string]string{
			"Connection":            "keep-alive, Upgrade",
			"Upgrade":               "websocket",
			"Sec-Websocket-Key":     "dGhlIHNhbXBsZSBub25jZQ==",
			"Sec-Websocket-Version": "13",
		},
		Socket: s,
	}
}

func TestIsUpgrade(t *testing.T) {
	r := upgradeRequest(nil)
	require.True(t, IsUpgrade(r))
	r.Method = http.MethodPost
	require.False(t, IsUpgrade(r))
	r = upgradeRequest(nil)
	delete(r.Headers, "Sec-Websocket-Key")
	require.False(t, IsUpgrade(r))
	r = upgradeRequest(nil)
	r.Headers["Connection"] = "keep-alive"
	require.False(t, IsUpgrade(r))
}

func TestUpgradeRejections(t *testing.T) {
	r := upgradeRequest(nil)
	r.Headers["Sec-Websocket-Version"] = "8"
	_, err := Upgrade(r, 0)
	require.True(t, errors.Is(err, te.ErrNotUpgradable))

	r = upgradeRequest(nil)
	_, err = Upgrade(r, 0)
	require.True(t, errors.Is(err, te.ErrNotUpgradable))

	res := UpgradeRequired()
	require.Equal(t, http.StatusUpgradeRequired, res.Status)
	require.Equal(t, "13", res.Header("Sec-WebSocket-Version"))
}

type upgraded struct {
	conn *Conn
	err  error
}

func startUpgrade(t *testing.T) (*Conn, net.Conn, *bufio.Reader, socket.Socket) {
	c1, c2 := net.Pipe()
	t.Cleanup(func() { c1.Close(); c2.Close() })
	s := socket.New(c1, nil)
	ch := make(chan upgraded, 1)
	go func() {
		c, err := Upgrade(upgradeRequest(s), 0)
		ch <- upgraded{c, err}
	}()
	cr := bufio.NewReader(c2)
	resp, err := http.ReadResponse(cr, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", resp.Header.Get("Sec-WebSocket-Accept"))
	require.Equal(t, "websocket", resp.Header.Get("Upgrade"))
	require.Equal(t, "Upgrade", resp.Header.Get("Connection"))
	u := <-ch
	require.NoError(t, u.err)
	require.True(t, s.Hijacked())
	return u.conn, c2, cr, s
}

func TestUpgradeAndEcho(t *testing.T) {
	conn, client, cr, _ := startUpgrade(t)

	go WriteFrame(client, Frame{Fin: true, Opcode: OpText, Masked: true, Mask: testMask,
		Payload: []byte("hi")})
	op, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, OpText, op)
	require.Equal(t, "hi", string(msg))

	go conn.WriteText("yo")
	f, err := ReadFrame(cr, 0)
	require.NoError(t, err)
	require.False(t, f.Masked)
	require.Equal(t, OpText, f.Opcode)
	require.Equal(t, "yo", string(f.Payload))
}

func TestFragmentsAndPing(t *testing.T) {
	conn, client, cr, _ := startUpgrade(t)

	go func() {
		WriteFrame(client, Frame{Opcode: OpText, Masked: true, Mask: testMask, Payload: []byte("he")})
		WriteFrame(client, Frame{Fin: true, Opcode: OpPing, Masked: true, Mask: testMask, Payload: []byte("p")})
		WriteFrame(client, Frame{Fin: true, Opcode: OpContinuation, Masked: true, Mask: testMask, Payload: []byte("llo")})
	}()
	ch := make(chan string, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			ch <- err.Error()
			return
		}
		ch <- string(msg)
	}()
	f, err := ReadFrame(cr, 0)
	require.NoError(t, err)
	require.Equal(t, OpPong, f.Opcode)
	require.Equal(t, "p", string(f.Payload))
	require.Equal(t, "hello", <-ch)
}

func TestCloseHandshake(t *testing.T) {
	conn, client, cr, _ := startUpgrade(t)

	payload := ws.NewCloseFrameBody(ws.StatusNormalClosure, "bye")
	go WriteFrame(client, Frame{Fin: true, Opcode: OpClose, Masked: true, Mask: testMask,
		Payload: payload})
	ch := make(chan error, 1)
	go func() {
		_, _, err := conn.ReadMessage()
		ch <- err
	}()
	f, err := ReadFrame(cr, 0)
	require.NoError(t, err)
	require.Equal(t, OpClose, f.Opcode)
	code, _ := ws.ParseCloseFrameData(f.Payload)
	require.Equal(t, CloseNormal, int(code))
	require.Equal(t, io.EOF, <-ch)
	require.Error(t, conn.WriteText("late"))
}

func TestUnmaskedClientFrame(t *testing.T) {
	conn, client, cr, _ := startUpgrade(t)
	go WriteFrame(client, Frame{Fin: true, Opcode: OpText, Payload: []byte("x")})
	ch := make(chan error, 1)
	go func() {
		_, _, err := conn.ReadMessage()
		ch <- err
	}()
	f, err := ReadFrame(cr, 0)
	require.NoError(t, err)
	require.Equal(t, OpClose, f.Opcode)
	code, _ := ws.ParseCloseFrameData(f.Payload)
	require.Equal(t, CloseProtocolError, int(code))
	err = <-ch
	require.True(t, errors.Is(err, te.ErrProtocolViolation))
	require.True(t, errors.Is(err, ws.ErrProtocolMaskRequired))
}
