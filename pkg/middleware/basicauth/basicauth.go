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

// Package basicauth provides a Ship that guards routes with HTTP Basic
// Authentication against bcrypt password hashes
package basicauth

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/trickstercache/quay/pkg/errors"
	"github.com/trickstercache/quay/pkg/headers"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/ship"

	"golang.org/x/crypto/bcrypt"
)

// DefaultRealm is the realm advertised when none is provided
const DefaultRealm = "quay"

// Authenticator refuses requests that lack valid Basic credentials
type Authenticator struct {
	realm string
	cost  int
	mtx   sync.RWMutex
	users map[string][]byte

	// dummy is compared on a username miss so unknown users cost as much
	// time as a wrong password
	dummyOnce sync.Once
	dummy     []byte
}

var compareHash = bcrypt.CompareHashAndPassword

func (a *Authenticator) dummyHash() []byte {
	a.dummyOnce.Do(func() {
		a.dummy, _ = bcrypt.GenerateFromPassword([]byte(a.realm), a.cost)
	})
	return a.dummy
}

// New returns an Authenticator for the realm with no users
func New(realm string) *Authenticator {
	if realm == "" {
		realm = DefaultRealm
	}
	return &Authenticator{
		realm: realm,
		cost:  bcrypt.DefaultCost,
		users: make(map[string][]byte),
	}
}

// Realm returns the realm sent in WWW-Authenticate
func (a *Authenticator) Realm() string {
	return a.realm
}

// AddUser hashes password with bcrypt and stores it for username
func (a *Authenticator) AddUser(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return err
	}
	a.mtx.Lock()
	a.users[username] = hash
	a.mtx.Unlock()
	return nil
}

// AddHashedUser stores a bcrypt hash for username
func (a *Authenticator) AddHashedUser(username, hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("%w: user %s: %w", errors.ErrInvalidOptions, username, err)
	}
	a.mtx.Lock()
	a.users[username] = []byte(hash)
	a.mtx.Unlock()
	return nil
}

// RemoveUser removes username
func (a *Authenticator) RemoveUser(username string) {
	a.mtx.Lock()
	delete(a.users, username)
	a.mtx.Unlock()
}

// Users returns the number of known users
func (a *Authenticator) Users() int {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	return len(a.users)
}

// LoadHtpasswd adds the users of an htpasswd file. Only bcrypt entries are
// accepted; blank lines, comments and lines without a colon are skipped.
func (a *Authenticator) LoadHtpasswd(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		username, hash, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if err := a.AddHashedUser(username, hash); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Authenticate returns the username when the request carries valid
// credentials
func (a *Authenticator) Authenticate(req *request.Request) (string, bool) {
	v := req.Header(headers.NameAuthorization)
	if v == "" {
		return "", false
	}
	hr := &http.Request{Header: http.Header{headers.NameAuthorization: {v}}}
	username, password, ok := hr.BasicAuth()
	if !ok {
		return "", false
	}
	a.mtx.RLock()
	hash, known := a.users[username]
	a.mtx.RUnlock()
	if !known {
		hash = a.dummyHash()
	}
	if compareHash(hash, []byte(password)) != nil || !known {
		return "", false
	}
	return username, true
}

// Handle lets authenticated requests through and answers the rest with
// 401 Unauthorized and a WWW-Authenticate challenge
func (a *Authenticator) Handle(req *request.Request) *response.Response {
	if _, ok := a.Authenticate(req); ok {
		return nil
	}
	r := response.Text(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	r.SetHeader(headers.NameWWWAuthenticate, fmt.Sprintf(`Basic realm="%s"`, a.realm))
	return &r
}

// Ship returns Handle as a Ship
func (a *Authenticator) Ship() ship.Ship {
	return ship.Make(a.Handle)
}
