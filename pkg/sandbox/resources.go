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
	"fmt"
	"strconv"
	"strings"
)

const cpuPeriod uint64 = 100000

// parseCPU converts a CPU limit into a CFS quota for a 100ms period.
func parseCPU(cpu string) (int64, uint64, error) {
	cpu = strings.TrimSpace(cpu)
	if cpu == "" {
		return 0, 0, nil
	}
	if millis, ok := strings.CutSuffix(cpu, "m"); ok {
		m, err := strconv.ParseInt(millis, 10, 64)
		if err != nil || m <= 0 {
			return 0, 0, fmt.Errorf("invalid cpu limit %q", cpu)
		}
		return m * int64(cpuPeriod) / 1000, cpuPeriod, nil
	}
	cores, err := strconv.ParseFloat(cpu, 64)
	if err != nil || cores <= 0 {
		return 0, 0, fmt.Errorf("invalid cpu limit %q", cpu)
	}
	return int64(cores * float64(cpuPeriod)), cpuPeriod, nil
}

var memoryUnits = []struct {
	suffix string
	factor int64
}{
	{"GI", 1 << 30}, {"MI", 1 << 20}, {"KI", 1 << 10},
	{"G", 1 << 30}, {"M", 1 << 20}, {"K", 1 << 10},
	{"B", 1},
}

// parseMemory converts a memory limit into bytes.
func parseMemory(memory string) (int64, error) {
	memory = strings.ToUpper(strings.TrimSpace(memory))
	if memory == "" {
		return 0, nil
	}
	factor := int64(1)
	for _, u := range memoryUnits {
		if v, ok := strings.CutSuffix(memory, u.suffix); ok {
			memory, factor = v, u.factor
			break
		}
	}
	size, err := strconv.ParseInt(strings.TrimSpace(memory), 10, 64)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("invalid memory limit %q", memory)
	}
	return size * factor, nil
}
