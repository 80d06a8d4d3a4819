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

// Package main is the main package for the quay demo server
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/trickstercache/quay/pkg/appinfo"
	"github.com/trickstercache/quay/pkg/daemon"
	"github.com/trickstercache/quay/pkg/observability/logging"
	"github.com/trickstercache/quay/pkg/observability/logging/logger"
)

var (
	applicationGitCommitID string
	applicationBuildTime   string
)

const (
	applicationName    = "quay"
	applicationVersion = "0.1.0"
)

var exitFunc func() = exitFatal

func main() {
	appinfo.Set(applicationName, applicationVersion,
		applicationBuildTime, applicationGitCommitID)
	err := daemon.Start(context.Background(), os.Args[1:], register)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		logger.Error("quay exited with an error", logging.Pairs{"detail": err.Error()})
		exitFunc()
	}
}

func exitFatal() {
	os.Exit(1)
}
