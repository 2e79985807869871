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

package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPU(t *testing.T) {
	tests := []struct {
		in      string
		quota   int64
		wantErr bool
	}{
		{in: "", quota: 0},
		{in: "1", quota: 100000},
		{in: "0.5", quota: 50000},
		{in: "1.5", quota: 150000},
		{in: "500m", quota: 50000},
		{in: "2000m", quota: 200000},
		{in: "abc", wantErr: true},
		{in: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			quota, period, err := parseCPU(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.quota, quota)
			if tt.quota > 0 {
				assert.Equal(t, cpuPeriod, period)
			}
		})
	}
}

func TestParseMemory(t *testing.T) {
	tests := []struct {
		in      string
		bytes   int64
		wantErr bool
	}{
		{in: "", bytes: 0},
		{in: "1024", bytes: 1024},
		{in: "2G", bytes: 2 << 30},
		{in: "512M", bytes: 512 << 20},
		{in: "512Mi", bytes: 512 << 20},
		{in: "64k", bytes: 64 << 10},
		{in: "lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMemory(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bytes, got)
		})
	}
}
