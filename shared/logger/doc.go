// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package logger provides structured JSON logging for the toolbox components.

# Overview

Every entry is a single line of JSON written to a process-wide sink. The
sink is stdout by default; Configure can point it at a rotating file.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (store, registry, proxy, server, ...)
  - Instance ID and container name
  - Request ID (for request correlation)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("store")

Log messages with request context:

	log.Info("req-456", "Configuration saved", map[string]interface{}{
	    "path": "/home/me/.mongodb-configs.json",
	})

Log errors with status codes:

	log.ErrorWithCode("req-456", "Request failed", 500, err, nil)

Route output to a rotating file:

	closeLog := logger.Configure(logger.Options{
	    Level:     "debug",
	    File:      "/var/log/toolbox.log",
	    MaxSizeMB: 50,
	})
	defer closeLog()

# Environment Variables

  - INSTANCE_ID: Deployment instance identifier
  - HOSTNAME: Container hostname (auto-detected)

# Thread Safety

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
