package monitoring

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAgent answers like a Netdata agent for the charts the client queries.
func fakeAgent(t *testing.T, charts map[string]string, alarms, info string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/data", func(w http.ResponseWriter, r *http.Request) {
		body, ok := charts[r.URL.Query().Get("chart")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/api/v1/alarms", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, alarms)
	})
	mux.HandleFunc("/api/v1/info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, info)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCPUUsageSumsDimensions(t *testing.T) {
	srv := fakeAgent(t, map[string]string{
		"system.cpu": `{"labels":["time","user","system","iowait"],"data":[[1700000000,30.5,10.25,2.0]]}`,
	}, `{"alarms":{}}`, `{}`)

	c := NewClient(srv.URL)
	out, err := c.CPUUsage(60)
	require.NoError(t, err)
	assert.Equal(t, "Total CPU usage: 42.8%", out)
}

func TestMemoryUsageFormatsPercentage(t *testing.T) {
	srv := fakeAgent(t, map[string]string{
		"system.ram": `{"labels":["time","free","used","cached"],"data":[[1700000000,1000,1500,1500]]}`,
	}, `{"alarms":{}}`, `{}`)

	c := NewClient(srv.URL)
	out, err := c.MemoryUsage()
	require.NoError(t, err)
	assert.Equal(t, "Memory: 1500 MiB used of 4000 MiB (37.5%)", out)
}

func TestActiveAlertsEmpty(t *testing.T) {
	srv := fakeAgent(t, nil, `{"alarms":{}}`, `{}`)

	c := NewClient(srv.URL)
	out, err := c.ActiveAlerts()
	require.NoError(t, err)
	assert.Equal(t, "No active alerts. All systems normal.", out)
}

func TestActiveAlertsSortedByName(t *testing.T) {
	srv := fakeAgent(t, nil, `{"alarms":{
		"ram_usage":{"status":"WARNING","chart":"system.ram"},
		"cpu_usage":{"status":"CRITICAL","chart":"system.cpu"}
	}}`, `{}`)

	c := NewClient(srv.URL)
	out, err := c.ActiveAlerts()
	require.NoError(t, err)
	assert.Equal(t, "Found 2 alert(s):\n[CRITICAL] cpu_usage on system.cpu\n[WARNING] ram_usage on system.ram", out)
}

func TestTopProcessesRanksAndLimits(t *testing.T) {
	srv := fakeAgent(t, map[string]string{
		"apps.cpu": `{"labels":["time","nginx","postgres","idlewatch"],"data":[[1700000000,12.5,40.0,0.0]]}`,
	}, `{"alarms":{}}`, `{}`)

	c := NewClient(srv.URL)
	out, err := c.TopProcesses(2)
	require.NoError(t, err)
	assert.Equal(t, "Top CPU:\npostgres: 40.0%\nnginx: 12.5%", out)
}

func TestLoadAverage(t *testing.T) {
	srv := fakeAgent(t, map[string]string{
		"system.load": `{"labels":["time","load1","load5","load15"],"data":[[1700000000,1.5,0.9,0.45]]}`,
	}, `{"alarms":{}}`, `{}`)

	c := NewClient(srv.URL)
	out, err := c.LoadAverage()
	require.NoError(t, err)
	assert.Equal(t, "Load: 1m=1.50, 5m=0.90, 15m=0.45", out)
}

func TestSystemInfoFallsBackToUnknownHostname(t *testing.T) {
	srv := fakeAgent(t, nil, `{"alarms":{}}`, `{"os_name":"Debian"}`)

	c := NewClient(srv.URL)
	out, err := c.SystemInfo()
	require.NoError(t, err)
	assert.Equal(t, "Hostname: Unknown, OS: Debian", out)
}

func TestEmptySampleDegradesToText(t *testing.T) {
	srv := fakeAgent(t, map[string]string{
		"system.cpu": `{"labels":[],"data":[]}`,
	}, `{"alarms":{}}`, `{}`)

	c := NewClient(srv.URL)
	out, err := c.CPUUsage(60)
	require.NoError(t, err)
	assert.Equal(t, "Unable to fetch CPU data", out)
}

func TestAgentDownReturnsError(t *testing.T) {
	srv := fakeAgent(t, nil, `{}`, `{}`)
	srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CPUUsage(60)
	assert.Error(t, err)
	assert.False(t, c.Reachable())
}

func TestUnexpectedStatusReturnsError(t *testing.T) {
	srv := fakeAgent(t, map[string]string{}, `{}`, `{}`)

	c := NewClient(srv.URL)
	_, err := c.CPUUsage(60)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestReachable(t *testing.T) {
	srv := fakeAgent(t, nil, `{}`, `{"hostname":"web-1"}`)

	c := NewClient(srv.URL)
	assert.True(t, c.Reachable())
}
