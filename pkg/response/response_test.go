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

package response

import (
	"bytes"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToServerError(t *testing.T) {
	r := New()
	require.Equal(t, http.StatusInternalServerError, r.Status)
	require.Nil(t, r.Body)
	require.Equal(t, "HTTP/1.1 500 Internal Server Error\r\n"+
		"Connection: keep-alive\r\nContent-Length: 0\r\n\r\n", string(r.Bytes()))
}

func TestText(t *testing.T) {
	r := Text(http.StatusOK, "Hello, World")
	expected := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Connection: keep-alive\r\n" +
		"Content-Length: 12\r\n\r\n" +
		"Hello, World"
	require.Equal(t, expected, string(r.Bytes()))
}

func TestHeadersSortedAndCookies(t *testing.T) {
	r := Status(http.StatusOK)
	r.SetHeader("x-b", "2").SetHeader("X-A", "1")
	r.SetCookie(&http.Cookie{Name: "a", Value: "1", HttpOnly: true})
	r.SetCookie(&http.Cookie{Name: "b", Value: "2", Secure: true})
	r.SetCookie(&http.Cookie{Name: "a", Value: "3"})
	b := string(r.Bytes())
	require.Equal(t, "HTTP/1.1 200 OK\r\n"+
		"X-A: 1\r\nX-B: 2\r\n"+
		"Set-Cookie: a=3\r\n"+
		"Set-Cookie: b=2; Secure\r\n"+
		"Connection: keep-alive\r\nContent-Length: 0\r\n\r\n", b)
}

func TestConnectionOverride(t *testing.T) {
	r := Status(http.StatusSwitchingProtocols)
	r.SetHeader("Connection", "Upgrade")
	r.SetHeader("Upgrade", "websocket")
	b := string(r.Bytes())
	require.Equal(t, "HTTP/1.1 101 Switching Protocols\r\n"+
		"Connection: Upgrade\r\nUpgrade: websocket\r\n\r\n", b)
}

func TestBodylessStatus(t *testing.T) {
	r := Text(http.StatusNoContent, "ignored")
	b := r.Bytes()
	require.False(t, bytes.Contains(b, []byte("Content-Length")))
	require.False(t, bytes.Contains(b, []byte("ignored")))
}

func TestContentLengthComputed(t *testing.T) {
	r := Text(http.StatusOK, "abc")
	r.SetHeader("Content-Length", "99")
	require.Contains(t, string(r.Bytes()), "Content-Length: 3\r\n")
}

func TestJSON(t *testing.T) {
	r := JSON(http.StatusCreated, map[string]int{"a": 1})
	require.Equal(t, http.StatusCreated, r.Status)
	require.Equal(t, "application/json", r.Header("content-type"))
	require.Equal(t, `{"a":1}`, string(r.Body))

	r = JSON(http.StatusOK, math.Inf(1))
	require.Equal(t, http.StatusInternalServerError, r.Status)
}

func TestRedirect(t *testing.T) {
	r := Redirect("/elsewhere")
	require.Equal(t, http.StatusFound, r.Status)
	require.Equal(t, "/elsewhere", r.Header("Location"))
	m := New().Redirect("/x")
	require.Equal(t, http.StatusFound, m.Status)
}

func TestHeaderInjectionDropped(t *testing.T) {
	r := Redirect("/x\r\nSet-Cookie: s=evil")
	require.Empty(t, r.Header("Location"))
	out := string(r.Bytes())
	require.NotContains(t, out, "Set-Cookie")
	require.NotContains(t, out, "evil")

	r = Text(http.StatusOK, "ok")
	r.Redirect("/y\nX-Evil: 1")
	r.SetHeader("X-Bad\r\nName", "v")
	r.SetHeader("X-Good", "fine")
	r.Headers["X-Direct"] = "a\r\nX-Evil: 2"
	out = string(r.Bytes())
	require.NotContains(t, out, "X-Evil")
	require.NotContains(t, out, "X-Bad")
	require.Contains(t, out, "X-Good: fine\r\n")
	require.Equal(t, http.StatusFound, r.Status)
}

func TestUnknownStatusReason(t *testing.T) {
	r := Status(599)
	require.Contains(t, string(r.Bytes()), "HTTP/1.1 599\r\n")
}

func TestClone(t *testing.T) {
	r := Text(http.StatusOK, "abc")
	r.SetCookie(&http.Cookie{Name: "a", Value: "1"})
	c := r.Clone()
	c.Body[0] = 'x'
	c.Cookies[0].Value = "2"
	c.SetHeader("X-New", "1")
	require.Equal(t, "abc", string(r.Body))
	require.Equal(t, "1", r.Cookies[0].Value)
	require.Equal(t, "", r.Header("X-New"))
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	r := HTML(http.StatusOK, "<p>x</p>")
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	require.Equal(t, "text/html; charset=utf-8", r.Header("Content-Type"))
}

func TestHeadBytes(t *testing.T) {
	r := Text(http.StatusOK, "hello")
	require.Equal(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"Connection: keep-alive\r\nContent-Length: 5\r\n\r\n", string(r.HeadBytes()))
}
