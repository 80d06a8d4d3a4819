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

// Package logging provides quay's leveled key=value logger
package logging

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/trickstercache/quay/pkg/observability/logging/level"
	"github.com/trickstercache/quay/pkg/observability/logging/options"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	_ Logger    = &logger{}
	_ io.Writer = &logger{}
)

// AppName is written as the app field of every log line
const AppName = "quay"

type Logger interface {
	SetLogLevel(level.Level)
	Level() level.Level
	Close()
	//
	Log(logLevel level.Level, event string, detail Pairs)
	Debug(event string, detail Pairs)
	Info(event string, detail Pairs)
	Warn(event string, detail Pairs)
	Error(event string, detail Pairs)
	Fatal(code int, event string, detail Pairs)
	//
	// These log an event only the first time key is seen at the level
	WarnOnce(key, event string, detail Pairs) bool
	ErrorOnce(key, event string, detail Pairs) bool
	HasLoggedOnce(logLevel level.Level, key string) bool
}

// Pairs represents a key=value pair that helps to describe a log event
type Pairs map[string]any

// New returns a Logger for the provided logging options. When a log file is
// configured, output is rotated by lumberjack.
func New(o *options.Options) Logger {
	if o == nil {
		o = options.New()
	}
	l := &logger{now: time.Now}
	if o.LogFile == "" {
		l.writer = os.Stdout
	} else {
		lj := &lumberjack.Logger{
			Filename:   o.LogFile,
			MaxSize:    256,  // megabytes
			MaxBackups: 80,   // 256 megs @ 80 backups is 20GB of Logs
			MaxAge:     7,    // days
			Compress:   true, // Compress Rolled Backups
		}
		l.writer = lj
		l.closer = lj
	}
	l.SetLogLevel(level.Level(o.LogLevel))
	return l
}

// NoopLogger returns a Logger that discards everything
func NoopLogger() Logger {
	return &logger{levelID: level.InfoID, level: level.Info, now: time.Now}
}

// StreamLogger returns a Logger writing to w
func StreamLogger(w io.Writer, logLevel level.Level) Logger {
	l := &logger{writer: w, now: time.Now}
	if c, ok := w.(io.Closer); ok && c != nil {
		l.closer = c
	}
	l.SetLogLevel(logLevel)
	return l
}

// ConsoleLogger returns a Logger writing to stdout
func ConsoleLogger(logLevel level.Level) Logger {
	l := &logger{writer: os.Stdout, now: time.Now}
	l.SetLogLevel(logLevel)
	return l
}

type logger struct {
	level          level.Level
	levelID        level.ID
	writer         io.Writer
	closer         io.Closer
	mtx            sync.Mutex
	onceRanEntries sync.Map
	now            func() time.Time
	exit           func(int)
}

func (l *logger) Write(b []byte) (int, error) {
	if l.writer == nil {
		return 0, nil
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.writer.Write(b)
}

func (l *logger) SetLogLevel(logLevel level.Level) {
	normalized, ok := level.Normalize(logLevel)
	if !ok {
		l.level, l.levelID = level.Info, level.InfoID
		l.WarnOnce("loglevel."+string(logLevel),
			"unknown log level; using INFO",
			Pairs{"providedLevel": logLevel})
		return
	}
	l.level = normalized
	l.levelID = level.GetID(normalized)
}

func (l *logger) Level() level.Level {
	return l.level
}

func (l *logger) Log(logLevel level.Level, event string, detail Pairs) {
	lid := level.GetID(logLevel)
	if lid == 0 || lid < l.levelID {
		return
	}
	normalized, _ := level.Normalize(logLevel)
	l.write(normalized, event, detail)
}

func (l *logger) Debug(event string, detail Pairs) {
	l.Log(level.Debug, event, detail)
}

func (l *logger) Info(event string, detail Pairs) {
	l.Log(level.Info, event, detail)
}

func (l *logger) Warn(event string, detail Pairs) {
	l.Log(level.Warn, event, detail)
}

func (l *logger) Error(event string, detail Pairs) {
	l.Log(level.Error, event, detail)
}

// Fatal logs the event regardless of level and exits with code. Tests pass a
// negative code to log without exiting.
func (l *logger) Fatal(code int, event string, detail Pairs) {
	l.write(level.Fatal, event, detail)
	if code < 0 {
		return
	}
	if code == 0 {
		code = 1
	}
	if l.exit != nil {
		l.exit(code)
		return
	}
	os.Exit(code)
}

func (l *logger) logOnce(logLevel level.Level, key, event string, detail Pairs) bool {
	lid := level.GetID(logLevel)
	if lid == 0 || lid < l.levelID {
		return false
	}
	if _, loaded := l.onceRanEntries.LoadOrStore(string(logLevel)+"."+key, true); loaded {
		return false
	}
	l.write(logLevel, event, detail)
	return true
}

func (l *logger) WarnOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Warn, key, event, detail)
}

func (l *logger) ErrorOnce(key, event string, detail Pairs) bool {
	return l.logOnce(level.Error, key, event, detail)
}

func (l *logger) HasLoggedOnce(logLevel level.Level, key string) bool {
	_, ok := l.onceRanEntries.Load(string(logLevel) + "." + key)
	return ok
}

type item struct {
	key string
	val string
}

const (
	space   = " "
	equal   = "="
	newline = "\n"
)

func (l *logger) write(logLevel level.Level, event string, detail Pairs) {
	if l.writer == nil {
		return
	}
	var b strings.Builder
	b.WriteString("time=" + l.now().UTC().Format(time.RFC3339Nano))
	b.WriteString(space + "app=" + AppName)
	b.WriteString(space + "level=" + string(logLevel))
	b.WriteString(space + "event=" + quoteAsNeeded(strings.TrimSpace(event)))
	if len(detail) > 0 {
		keyPairs := make([]item, 0, len(detail))
		for k, v := range detail {
			keyPairs = append(keyPairs, item{k, format(v)})
		}
		slices.SortFunc(keyPairs, func(a, b item) int {
			return cmp.Compare(a.key, b.key)
		})
		for _, kp := range keyPairs {
			b.WriteString(space + kp.key + equal + kp.val)
		}
	}
	b.WriteString(newline)
	l.mtx.Lock()
	l.writer.Write([]byte(b.String()))
	l.mtx.Unlock()
}

func format(v any) string {
	switch t := v.(type) {
	case string:
		return quoteAsNeeded(t)
	case error:
		return quoteAsNeeded(t.Error())
	case fmt.Stringer:
		return quoteAsNeeded(t.String())
	case []byte:
		return quoteAsNeeded(string(t))
	}
	return quoteAsNeeded(fmt.Sprintf("%v", v))
}

func quoteAsNeeded(input string) string {
	if input == "" {
		return `""`
	}
	if !strings.ContainsAny(input, " \"=\r\n\t") {
		return input
	}
	return strconv.Quote(input)
}

func (l *logger) Close() {
	if l.closer != nil {
		l.closer.Close()
	}
}
