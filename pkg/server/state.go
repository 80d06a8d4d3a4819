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

package server

// state is the position of a connection in its lifecycle. A connection only
// moves forward through the states, and every path ends in stateClosed.
type state uint8

const (
	stateAccepted state = iota
	stateTLSHandshaking
	stateReading
	stateParsing
	stateDispatching
	stateWriting
	stateClosed
)

var stateNames = [...]string{
	"accepted",
	"tls_handshaking",
	"reading",
	"parsing",
	"dispatching",
	"writing",
	"closed",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
