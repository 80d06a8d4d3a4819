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

package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/trickstercache/quay/pkg/middleware/basicauth"
	"github.com/trickstercache/quay/pkg/middleware/files"
	"github.com/trickstercache/quay/pkg/middleware/verbose"
	"github.com/trickstercache/quay/pkg/request"
	"github.com/trickstercache/quay/pkg/response"
	"github.com/trickstercache/quay/pkg/server"
	"github.com/trickstercache/quay/pkg/ship"
	"github.com/trickstercache/quay/pkg/websocket"
)

const (
	// Environment variables for the optional demo routes
	evStaticDir = "QUAY_STATIC_DIR"
	evHtpasswd  = "QUAY_HTPASSWD"
)

const homePage = `<!doctype html>
<html><head><title>quay</title></head>
<body><h1>quay</h1>
<ul>
<li><a href="/hello/sailor">/hello/:name</a></li>
<li>POST /submit with a <code>message</code> form field</li>
<li>/ws websocket echo</li>
</ul></body></html>
`

func register(s *server.Server) error {
	return dock(s, os.Getenv(evStaticDir), os.Getenv(evHtpasswd))
}

// dock registers the demo routes. The static file and admin routes are only
// added when a directory or an htpasswd file is provided.
func dock(s *server.Server, staticDir, htpasswd string) error {
	err := errors.Join(
		s.DockGlobal(verbose.New(nil)),
		s.Get("/", home),
		s.Get("/hello/:name", hello),
		s.Post("/submit", submit),
		s.Get("/ws", echo),
	)
	if err != nil {
		return err
	}
	if staticDir != "" {
		fs, err := files.New(staticDir, files.WithStripPrefix("/static"))
		if err != nil {
			return err
		}
		if err := s.Get("/static/:file", fs.Ship()); err != nil {
			return err
		}
	}
	if htpasswd != "" {
		a := basicauth.New("quay")
		if err := a.LoadHtpasswd(htpasswd); err != nil {
			return err
		}
		admin, err := ship.Group(a.Ship(), quarters)
		if err != nil {
			return err
		}
		if err := s.Get("/admin", admin); err != nil {
			return err
		}
	}
	return nil
}

func home() response.Response {
	return response.HTML(http.StatusOK, homePage)
}

func hello(req *request.Request) response.Response {
	name := req.Param()
	if name == "" {
		name = "sailor"
	}
	return response.Text(http.StatusOK, "Hello, "+name+"!")
}

func submit(req *request.Request) response.Response {
	msg := req.Form("message")
	if msg == "" {
		return response.Text(http.StatusBadRequest, "missing message")
	}
	return response.JSON(http.StatusOK, map[string]any{
		"message": msg,
		"length":  len(msg),
	})
}

// echo upgrades the request and writes every message back until the peer
// closes the connection
func echo(req *request.Request, res *response.Response) *response.Response {
	conn, err := websocket.Upgrade(req, 0)
	if err != nil {
		r := websocket.UpgradeRequired()
		return &r
	}
	res.Status = http.StatusSwitchingProtocols
	for {
		op, msg, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		if err := conn.WriteMessage(op, msg); err != nil {
			return nil
		}
	}
}

func quarters() response.Response {
	return response.Text(http.StatusOK, "welcome aboard")
}
