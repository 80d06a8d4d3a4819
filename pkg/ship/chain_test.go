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

package ship

import (
	"context"
	"net/http"
	"testing"

	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"

	"github.com/stretchr/testify/require"
)

func TestChainShortCircuit(t *testing.T) {
	var h1, h2, h3 int
	c, err := NewChain(
		func(r *response.Response) { h1++; r.SetHeader("X-First", "1") },
		func() response.Response { h2++; return response.Text(http.StatusTeapot, "stop") },
		func() { h3++ },
	)
	require.NoError(t, err)
	res := response.New()
	stopped := c.Dispatch(context.Background(), &request.Request{}, res)
	require.True(t, stopped)
	require.Equal(t, 1, h1)
	require.Equal(t, 1, h2)
	require.Equal(t, 0, h3)
	require.Equal(t, http.StatusTeapot, res.Status)
	require.Equal(t, "stop", string(res.Body))
	// the short-circuit result replaces the mutated response entirely
	require.Equal(t, "", res.Header("X-First"))
}

func TestChainRunsToEnd(t *testing.T) {
	var n int
	c, err := NewChain(
		func(r *response.Response) { n++; r.SetText(http.StatusOK, "mutated") },
		func(*request.Request) *response.Response { n++; return nil },
	)
	require.NoError(t, err)
	res := response.New()
	require.False(t, c.Dispatch(context.Background(), &request.Request{}, res))
	require.Equal(t, 2, n)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "mutated", string(res.Body))
}

func TestChainReturnsSameResponse(t *testing.T) {
	c, err := NewChain(func(r *response.Response) *response.Response {
		r.SetText(http.StatusCreated, "same")
		return r
	})
	require.NoError(t, err)
	res := response.New()
	require.True(t, c.Dispatch(context.Background(), &request.Request{}, res))
	require.Equal(t, http.StatusCreated, res.Status)
}

func TestEmptyChain(t *testing.T) {
	var c Chain
	res := response.New()
	require.False(t, c.Dispatch(context.Background(), &request.Request{}, res))
	require.Equal(t, http.StatusInternalServerError, res.Status)
}

func TestNewChainError(t *testing.T) {
	_, err := NewChain(func() {}, 42)
	require.Error(t, err)
	_, err = Group(func() {}, nil)
	require.Error(t, err)
}

func TestGroup(t *testing.T) {
	var ran bool
	deny := func(q *request.Request) *response.Response {
		if q.Header("Authorization") == "" {
			r := response.Text(http.StatusUnauthorized, "no")
			return &r
		}
		return nil
	}
	g, err := Group(deny, func(r *response.Response) { ran = true; r.SetText(http.StatusOK, "in") })
	require.NoError(t, err)
	require.True(t, g.Shape().Async)

	res := response.New()
	out := g.Dispatch(context.Background(), &request.Request{Headers: map[string]string{}}, res)
	require.NotNil(t, out)
	require.Equal(t, http.StatusUnauthorized, out.Status)
	require.False(t, ran)

	res = response.New()
	out = g.Dispatch(context.Background(),
		&request.Request{Headers: map[string]string{"Authorization": "x"}}, res)
	require.Nil(t, out)
	require.True(t, ran)
	require.Equal(t, "in", string(res.Body))

	c := Chain{g, Make(func() response.Response { return response.Text(http.StatusOK, "after") })}
	res = response.New()
	require.True(t, c.Dispatch(context.Background(), &request.Request{Headers: map[string]string{}}, res))
	require.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestAsyncReceivesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	var got any
	s := Make(func(c context.Context) { got = c.Value(key{}) })
	s.Dispatch(ctx, &request.Request{}, response.New())
	require.Equal(t, "v", got)
}
