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

package build

import (
	"strings"
	"sync"
	"unicode/utf8"
)

const truncatedMarker = "[... earlier output truncated ...]\n"

// logBuffer collects interleaved stdout and stderr. Once limit bytes are
// exceeded the oldest output is dropped so the tail survives.
type logBuffer struct {
	mu      sync.Mutex
	buf     []byte
	limit   int
	dropped bool
}

func newLogBuffer(limit int) *logBuffer {
	return &logBuffer{limit: limit}
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if b.limit > 0 && len(b.buf) > b.limit {
		b.buf = append(b.buf[:0], b.buf[len(b.buf)-b.limit:]...)
		b.dropped = true
	}
	return len(p), nil
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dropped {
		return truncatedMarker + strings.ToValidUTF8(string(b.buf), "")
	}
	return string(b.buf)
}

// Tail returns at most n trailing bytes of log, starting on a line boundary
// when one is available.
func Tail(log string, n int) string {
	log = strings.TrimRight(log, "\n")
	if n <= 0 || len(log) <= n {
		return log
	}
	cut := log[len(log)-n:]
	if i := strings.IndexByte(cut, '\n'); i >= 0 && i < len(cut)-1 {
		cut = cut[i+1:]
	} else {
		for len(cut) > 0 && !utf8.RuneStart(cut[0]) {
			cut = cut[1:]
		}
	}
	return "...\n" + cut
}
