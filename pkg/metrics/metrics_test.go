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

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubMetrics(t *testing.T) {
	s := NewServer(MetricsConfig{})
	m := NewHubMetrics(s.GetRegistry())

	m.ObserveUpload("published")
	m.ObserveUpload("rejected")
	m.ObserveUpload("rejected")
	m.ObserveBuild(true, 3*time.Second)
	m.ObserveLoad("mounted")
	m.ObserveInstall("install")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "modhub_uploads_total")
	assert.Contains(t, string(body), "modhub_build_duration_seconds")
}

func TestHubMetrics_NilSafe(t *testing.T) {
	var m *HubMetrics
	m.ObserveUpload("published")
	m.SessionOpened()
	Nop().ObserveLoad("failed")
}

func TestServer_Disabled(t *testing.T) {
	s := NewServer(MetricsConfig{Enable: false})
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop(t.Context()))
}

func TestMountPprof(t *testing.T) {
	mux := http.NewServeMux()
	mountPprof(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}
