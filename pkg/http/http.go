// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import "time"

type Http struct {
	Host            string `default:"0.0.0.0"`
	Port            int    `default:"8080"`
	BodyLimit       int    `default:"67108864"` // bytes, must cover upload.maxArchiveSize
	AccessLog       bool   `default:"true"`
	ReadTimeout     int    `default:"60"` // seconds
	WriteTimeout    int    `default:"60"`
	IdleTimeout     int    `default:"120"`
	ShutdownTimeout int    `default:"30"`
	TLS             TLS
	Auth            Auth
}

type TLS struct {
	CertFile string
	KeyFile  string
}

type Auth struct {
	SecretKey    string
	Issuer       string        `default:"modhub"`
	AccessExpire time.Duration `default:"2h"`
}

// Locals keys read by UnifiedResponseMiddleware.
const (
	DETAIL    = "detail"
	OPERATION = "operation"
)
