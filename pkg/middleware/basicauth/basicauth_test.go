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

package basicauth

import (
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	te "github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/request"
)

func basic(user, pass string) *request.Request {
	return &request.Request{
		Method: http.MethodGet,
		Path:   "/",
		Headers: map[string]string{
			"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass)),
		},
	}
}

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a := New("")
	a.cost = bcrypt.MinCost
	require.NoError(t, a.AddUser("captain", "ahoy"))
	return a
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t)
	require.Equal(t, DefaultRealm, a.Realm())

	u, ok := a.Authenticate(basic("captain", "ahoy"))
	require.True(t, ok)
	require.Equal(t, "captain", u)

	_, ok = a.Authenticate(basic("captain", "nope"))
	require.False(t, ok)
	_, ok = a.Authenticate(basic("stowaway", "ahoy"))
	require.False(t, ok)
	_, ok = a.Authenticate(&request.Request{Headers: map[string]string{}})
	require.False(t, ok)
	_, ok = a.Authenticate(&request.Request{Headers: map[string]string{
		"Authorization": "Bearer abc"}})
	require.False(t, ok)
}

func TestUnknownUserComparesHash(t *testing.T) {
	a := newTestAuthenticator(t)
	var compared [][]byte
	compareHash = func(hash, password []byte) error {
		compared = append(compared, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}
	t.Cleanup(func() { compareHash = bcrypt.CompareHashAndPassword })

	_, ok := a.Authenticate(basic("stowaway", "ahoy"))
	require.False(t, ok)
	// the dummy password never admits an unknown user
	_, ok = a.Authenticate(basic("stowaway", a.Realm()))
	require.False(t, ok)
	require.Len(t, compared, 2)
	cost, err := bcrypt.Cost(compared[0])
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)
	require.Equal(t, compared[0], compared[1])
}

func TestHandle(t *testing.T) {
	a := New("staging server")
	a.cost = bcrypt.MinCost
	require.NoError(t, a.AddUser("captain", "ahoy"))
	require.Nil(t, a.Handle(basic("captain", "ahoy")))

	res := a.Handle(basic("captain", "wrong"))
	require.NotNil(t, res)
	require.Equal(t, http.StatusUnauthorized, res.Status)
	require.Equal(t, `Basic realm="staging server"`, res.Header("WWW-Authenticate"))

	s := a.Ship()
	require.True(t, s.Valid())
	require.Nil(t, s.Dispatch(t.Context(), basic("captain", "ahoy"), nil))
}

func TestRemoveUser(t *testing.T) {
	a := newTestAuthenticator(t)
	require.Equal(t, 1, a.Users())
	a.RemoveUser("captain")
	require.Equal(t, 0, a.Users())
	_, ok := a.Authenticate(basic("captain", "ahoy"))
	require.False(t, ok)
}

func TestAddHashedUser(t *testing.T) {
	a := New("")
	err := a.AddHashedUser("captain", "plaintext")
	require.True(t, errors.Is(err, te.ErrInvalidOptions))
	h, err := bcrypt.GenerateFromPassword([]byte("ahoy"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, a.AddHashedUser("captain", string(h)))
	_, ok := a.Authenticate(basic("captain", "ahoy"))
	require.True(t, ok)
}

func TestLoadHtpasswd(t *testing.T) {
	a := New("")
	require.Error(t, a.LoadHtpasswd("/no/such/file"))

	hash := func(p string) string {
		h, _ := bcrypt.GenerateFromPassword([]byte(p), bcrypt.MinCost)
		return string(h)
	}
	path := filepath.Join(t.TempDir(), "htpasswd")
	lines := []string{
		"foo:" + hash("bar"),
		"# comment",
		"",
		"badline",
		"baz:" + hash("quux"),
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))
	require.NoError(t, a.LoadHtpasswd(path))
	require.Equal(t, 2, a.Users())
	_, ok := a.Authenticate(basic("baz", "quux"))
	require.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("md5:$apr1$abc$def\n"), 0o600))
	require.True(t, errors.Is(a.LoadHtpasswd(path), te.ErrInvalidOptions))
}
