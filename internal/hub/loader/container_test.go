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

package loader

import (
	"testing"

	"github.com/go-arcade/modhub/internal/hub/errs"
	"github.com/go-arcade/modhub/internal/hub/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var testRuntime = NewRuntime(Config{RuntimeName: "react", RuntimeVersion: "18.3.1", SharedDeps: []string{"react", "react-dom"}})

func weatherLite(version string) model.MarketplaceModule {
	return model.MarketplaceModule{
		ModuleId:       "weather-lite",
		Version:        version,
		Kind:           model.KindFederation,
		RemoteEntryURL: "/modules/weather-lite/" + version + "/remoteEntry.json",
		Scope:          "weatherLite",
		ExposedModule:  "./WeatherPanel",
		Slots:          datatypes.NewJSONSlice([]string{"context-panel"}),
		IsActive:       true,
	}
}

const sharedOK = `"shared":{"react":{"singleton":true,"external":true,"requiredVersion":"^18.2.0"},"react-dom":{"singleton":true,"external":true}}`

func TestFederationResolver(t *testing.T) {
	m := weatherLite("1.0.0")
	tests := []struct {
		name    string
		bundle  string
		wantErr string
		check   func(t *testing.T, c *Component)
	}{
		{
			name:   "explicit widgets",
			bundle: `{"name":"weatherLite","exposes":{"./WeatherPanel":"./panel.js"},` + sharedOK + `,"runtime":"react@18.3.1","teardown":"./teardown.js","widgets":[{"id":"forecast","slot":"context-panel","priority":5,"when":"entity.type == 'AgriParcel'"},{"id":"layer","slot":"map-layer"}]}`,
			check: func(t *testing.T, c *Component) {
				assert.Equal(t, "./panel.js", c.Exposed)
				assert.Equal(t, "react@18.3.1", c.RuntimeIdentity)
				assert.Equal(t, "./teardown.js", c.Teardown)
				require.Len(t, c.Widgets, 1, "map-layer is not a declared slot")
				assert.Equal(t, "forecast", c.Widgets[0].WidgetId)
				assert.Equal(t, 5, c.Widgets[0].Priority)
			},
		},
		{
			name:   "default widget per slot",
			bundle: `{"exposes":{"./WeatherPanel":"./panel.js"},` + sharedOK + `}`,
			check: func(t *testing.T, c *Component) {
				require.Len(t, c.Widgets, 1)
				assert.Equal(t, "WeatherPanel", c.Widgets[0].WidgetId)
				assert.Equal(t, "context-panel", c.Widgets[0].Slot)
			},
		},
		{name: "malformed", bundle: `{"exposes":`, wantErr: "malformed container"},
		{name: "missing exposed module", bundle: `{"exposes":{"./Other":"./o.js"},` + sharedOK + `}`, wantErr: "does not expose ./WeatherPanel"},
		{name: "embedded runtime", bundle: `{"exposes":{"./WeatherPanel":"./panel.js"},"shared":{"react-dom":{"singleton":true,"external":true}}}`, wantErr: "react is not declared shared"},
		{name: "non singleton", bundle: `{"exposes":{"./WeatherPanel":"./panel.js"},"shared":{"react":{"external":true},"react-dom":{"singleton":true,"external":true}}}`, wantErr: "singleton external"},
		{name: "major mismatch", bundle: `{"exposes":{"./WeatherPanel":"./panel.js"},"shared":{"react":{"singleton":true,"external":true,"requiredVersion":"^17.0.2"},"react-dom":{"singleton":true,"external":true}}}`, wantErr: "host runs 18.3.1"},
		{name: "bad refresh interval", bundle: `{"exposes":{"./WeatherPanel":"./panel.js"},` + sharedOK + `,"refreshInterval":"soon"}`, wantErr: "invalid refresh interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := FederationResolver{}.Resolve(&m, []byte(tt.bundle), testRuntime)
			if tt.wantErr != "" {
				var le *errs.RuntimeLoadError
				require.ErrorAs(t, err, &le)
				assert.Equal(t, "weather-lite", le.ModuleId)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestResolvers_UnknownKind(t *testing.T) {
	m := weatherLite("1.0.0")
	m.Kind = "wasm"
	_, err := DefaultResolvers().For(&m)
	var le *errs.RuntimeLoadError
	assert.ErrorAs(t, err, &le)

	m.Kind = ""
	r, err := DefaultResolvers().For(&m)
	require.NoError(t, err)
	assert.IsType(t, FederationResolver{}, r)
}

func TestSatisfiesMajor(t *testing.T) {
	assert.True(t, satisfiesMajor("", "18.3.1"))
	assert.True(t, satisfiesMajor("^18.0.0", "18.3.1"))
	assert.True(t, satisfiesMajor("~18.3.0", "18.3.1"))
	assert.True(t, satisfiesMajor(">=16 <19", "18.3.1"))
	assert.False(t, satisfiesMajor("^19.0.0", "18.3.1"))
}

func TestRuntime_Accepts(t *testing.T) {
	rt := NewRuntime(Config{RuntimeName: "react", RuntimeVersion: "18.3.1"})
	tests := []struct {
		identity string
		want     bool
	}{
		{"react@18.3.1", true},
		{"react@18.2.0", true},
		{"react@17.0.2", false},
		{"preact@18.3.1", false},
		{"react@latest", false},
		{"react", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rt.Accepts(tt.identity), tt.identity)
	}
}
