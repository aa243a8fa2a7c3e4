// Package monitoring is the read-only client for the Netdata collaborator.
// Every query carries a short timeout so a stalled agent cannot stall a
// diagnostic conversation; callers degrade failures into explanatory text.
package monitoring

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Client queries a Netdata agent over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// chartData is the shape of /api/v1/data responses.
type chartData struct {
	Labels []string    `json:"labels"`
	Data   [][]float64 `json:"data"`
}

func (c *Client) fetchChart(chart string, after int) (*chartData, error) {
	params := url.Values{}
	params.Set("chart", chart)
	params.Set("after", strconv.Itoa(after))
	params.Set("points", "1")
	params.Set("format", "json")

	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/data?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", chart, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query %s: status %d", chart, resp.StatusCode)
	}

	var data chartData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", chart, err)
	}
	return &data, nil
}

// row returns the dimension labels and values of the latest sample, with the
// leading time column stripped.
func (d *chartData) row() ([]string, []float64, bool) {
	if len(d.Data) == 0 || len(d.Data[0]) < 2 {
		return nil, nil, false
	}
	values := d.Data[0][1:]
	var labels []string
	if len(d.Labels) > 1 {
		labels = d.Labels[1:]
	}
	return labels, values, true
}

// CPUUsage sums the per-state CPU dimensions over the given window.
func (c *Client) CPUUsage(durationSeconds int) (string, error) {
	if durationSeconds <= 0 {
		durationSeconds = 60
	}
	data, err := c.fetchChart("system.cpu", -durationSeconds)
	if err != nil {
		return "", err
	}
	_, values, ok := data.row()
	if !ok {
		return "Unable to fetch CPU data", nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return fmt.Sprintf("Total CPU usage: %.1f%%", total), nil
}

func (c *Client) MemoryUsage() (string, error) {
	data, err := c.fetchChart("system.ram", -1)
	if err != nil {
		return "", err
	}
	_, values, ok := data.row()
	if !ok {
		return "Unable to fetch memory data", nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	var used float64
	if len(values) > 1 {
		used = values[1]
	}
	pct := 0.0
	if total > 0 {
		pct = used / total * 100
	}
	return fmt.Sprintf("Memory: %.0f MiB used of %.0f MiB (%.1f%%)", used, total, pct), nil
}

// ActiveAlerts lists the alarms Netdata currently considers raised.
func (c *Client) ActiveAlerts() (string, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/alarms?active")
	if err != nil {
		return "", fmt.Errorf("query alarms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("query alarms: status %d", resp.StatusCode)
	}

	var payload struct {
		Alarms map[string]struct {
			Status string `json:"status"`
			Chart  string `json:"chart"`
		} `json:"alarms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("parse alarms: %w", err)
	}

	if len(payload.Alarms) == 0 {
		return "No active alerts. All systems normal.", nil
	}

	names := make([]string, 0, len(payload.Alarms))
	for name := range payload.Alarms {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		alert := payload.Alarms[name]
		lines = append(lines, fmt.Sprintf("[%s] %s on %s", alert.Status, name, alert.Chart))
	}
	return fmt.Sprintf("Found %d alert(s):\n%s", len(names), strings.Join(lines, "\n")), nil
}

func (c *Client) TopProcesses(limit int) (string, error) {
	if limit <= 0 {
		limit = 10
	}
	data, err := c.fetchChart("apps.cpu", -1)
	if err != nil {
		return "", err
	}
	labels, values, ok := data.row()
	if !ok {
		return "Unable to fetch process data", nil
	}

	type proc struct {
		name string
		cpu  float64
	}
	procs := make([]proc, 0, len(values))
	for i, v := range values {
		name := fmt.Sprintf("dim%d", i)
		if i < len(labels) {
			name = labels[i]
		}
		procs = append(procs, proc{name: name, cpu: v})
	}
	sort.SliceStable(procs, func(i, j int) bool { return procs[i].cpu > procs[j].cpu })
	if len(procs) > limit {
		procs = procs[:limit]
	}

	var lines []string
	for _, p := range procs {
		if p.cpu > 0 {
			lines = append(lines, fmt.Sprintf("%s: %.1f%%", p.name, p.cpu))
		}
	}
	if len(lines) == 0 {
		return "No significant CPU usage", nil
	}
	return "Top CPU:\n" + strings.Join(lines, "\n"), nil
}

func (c *Client) SystemInfo() (string, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/info")
	if err != nil {
		return "", fmt.Errorf("query info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("query info: status %d", resp.StatusCode)
	}

	var info struct {
		Hostname string `json:"hostname"`
		OSName   string `json:"os_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("parse info: %w", err)
	}
	hostname := info.Hostname
	if hostname == "" {
		hostname = "Unknown"
	}
	return fmt.Sprintf("Hostname: %s, OS: %s", hostname, info.OSName), nil
}

func (c *Client) LoadAverage() (string, error) {
	data, err := c.fetchChart("system.load", -1)
	if err != nil {
		return "", err
	}
	_, values, ok := data.row()
	if !ok || len(values) < 3 {
		return "Unable to fetch load data", nil
	}
	return fmt.Sprintf("Load: 1m=%.2f, 5m=%.2f, 15m=%.2f", values[0], values[1], values[2]), nil
}

func (c *Client) DiskIO() (string, error) {
	data, err := c.fetchChart("system.io", -1)
	if err != nil {
		return "", err
	}
	_, values, ok := data.row()
	if !ok || len(values) < 2 {
		return "Unable to fetch disk I/O data", nil
	}
	return fmt.Sprintf("Disk I/O: Read %.1f KB/s, Write %.1f KB/s", abs(values[0]), abs(values[1])), nil
}

func (c *Client) NetworkTraffic() (string, error) {
	data, err := c.fetchChart("system.net", -1)
	if err != nil {
		return "", err
	}
	_, values, ok := data.row()
	if !ok || len(values) < 2 {
		return "Unable to fetch network data", nil
	}
	return fmt.Sprintf("Network: in %.1f KB/s, out %.1f KB/s", abs(values[0]), abs(values[1])), nil
}

// ChartData returns raw chart JSON for dashboard proxy endpoints.
func (c *Client) ChartData(chart, after, points string) ([]byte, error) {
	params := url.Values{}
	params.Set("chart", chart)
	params.Set("after", after)
	params.Set("points", points)
	params.Set("format", "json")

	return c.rawGet("/api/v1/data?" + params.Encode())
}

// Charts returns the raw chart index.
func (c *Client) Charts() ([]byte, error) {
	return c.rawGet("/api/v1/charts")
}

// Alarms returns the raw active alarm payload.
func (c *Client) Alarms() ([]byte, error) {
	return c.rawGet("/api/v1/alarms?active")
}

// Info returns the raw agent info payload.
func (c *Client) Info() ([]byte, error) {
	return c.rawGet("/api/v1/info")
}

// Reachable reports whether the agent answers its info endpoint.
func (c *Client) Reachable() bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(c.baseURL + "/api/v1/info")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) rawGet(path string) ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("query netdata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query netdata: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
