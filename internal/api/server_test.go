package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/TonsaiX/XerlBot/internal/massrole"
	"github.com/TonsaiX/XerlBot/internal/metrics"
)

const testSecret = "test-secret"

type jobSink struct {
	mu   sync.Mutex
	jobs []*massrole.Job
}

func (j *jobSink) spawn(job *massrole.Job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs = append(j.jobs, job)
}

func (j *jobSink) all() []*massrole.Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*massrole.Job(nil), j.jobs...)
}

// newTestServer serves over an in-memory listener and returns an HTTP client
// dialing into it.
func newTestServer(t *testing.T) (*http.Client, *jobSink, *metrics.Registry) {
	t.Helper()

	sink := &jobSink{}
	stats := metrics.NewRegistry()
	srv := NewServer("unused", testSecret, sink.spawn, stats)

	ln := fasthttputil.NewInmemoryListener()
	go srv.Serve(ln)
	t.Cleanup(func() { ln.Close() })

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return ln.Dial()
			},
		},
	}
	return client, sink, stats
}

func doRequest(t *testing.T, client *http.Client, method, path, secret, body string) (int, string) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, "http://internal"+path, rd)
	require.NoError(t, err)
	if secret != "" {
		req.Header.Set("X-Internal-Secret", secret)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHealthz(t *testing.T) {
	client, _, _ := newTestServer(t)

	status, body := doRequest(t, client, http.MethodGet, "/internal/healthz", "", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, `{"ok":true}`, body)
}

func TestMetricsRequiresSecret(t *testing.T) {
	client, _, _ := newTestServer(t)

	status, _ := doRequest(t, client, http.MethodGet, "/internal/metrics", "", "")
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, client, http.MethodGet, "/internal/metrics", "wrong", "")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestMetricsExport(t *testing.T) {
	client, _, stats := newTestServer(t)
	stats.AddEvaluated()
	stats.AddEvaluated()

	status, body := doRequest(t, client, http.MethodGet, "/internal/metrics", testSecret, "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "messages_evaluated 2")
}

func TestMassRoleRejectsBadRequests(t *testing.T) {
	client, sink, _ := newTestServer(t)

	cases := []struct {
		name   string
		secret string
		body   string
		want   int
	}{
		{"no secret", "", `{"guildId":"1","roleId":"2","mode":"ALL","notifyChannelId":"3"}`, http.StatusUnauthorized},
		{"wrong secret", "nope", `{"guildId":"1","roleId":"2","mode":"ALL","notifyChannelId":"3"}`, http.StatusUnauthorized},
		{"invalid json", testSecret, `{not json`, http.StatusBadRequest},
		{"missing guild", testSecret, `{"roleId":"2","mode":"ALL","notifyChannelId":"3"}`, http.StatusBadRequest},
		{"missing role", testSecret, `{"guildId":"1","mode":"ALL","notifyChannelId":"3"}`, http.StatusBadRequest},
		{"missing notify channel", testSecret, `{"guildId":"1","roleId":"2","mode":"ALL"}`, http.StatusBadRequest},
		{"bad mode", testSecret, `{"guildId":"1","roleId":"2","mode":"SOME","notifyChannelId":"3"}`, http.StatusBadRequest},
		{"one without user", testSecret, `{"guildId":"1","roleId":"2","mode":"ONE","notifyChannelId":"3"}`, http.StatusBadRequest},
		{"get not allowed", testSecret, "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			method := http.MethodPost
			if tc.name == "get not allowed" {
				method = http.MethodGet
			}
			status, _ := doRequest(t, client, method, "/internal/massrole", tc.secret, tc.body)
			require.Equal(t, tc.want, status)
		})
	}

	require.Empty(t, sink.all())
}

func TestMassRoleSpawnsJob(t *testing.T) {
	client, sink, _ := newTestServer(t)

	body := `{
		"guildId": "100",
		"roleId": "200",
		"mode": "ALL",
		"includeBots": true,
		"notifyChannelId": "300",
		"requestedByUserId": "400"
	}`
	status, resp := doRequest(t, client, http.MethodPost, "/internal/massrole", testSecret, body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, `{"ok":true}`, resp)

	jobs := sink.all()
	require.Len(t, jobs, 1)

	want := &massrole.Job{
		GuildID:         "100",
		RoleID:          "200",
		Mode:            massrole.ModeAll,
		IncludeBots:     true,
		NotifyChannelID: "300",
		RequestedBy:     "400",
	}
	if diff := cmp.Diff(want, jobs[0]); diff != "" {
		t.Errorf("job mismatch (-want +got):\n%s", diff)
	}
}

func TestMassRoleModeOne(t *testing.T) {
	client, sink, _ := newTestServer(t)

	body := `{"guildId":"100","roleId":"200","mode":"ONE","userId":"555","notifyChannelId":"300"}`
	status, _ := doRequest(t, client, http.MethodPost, "/internal/massrole", testSecret, body)
	require.Equal(t, http.StatusOK, status)

	jobs := sink.all()
	require.Len(t, jobs, 1)
	require.Equal(t, massrole.ModeOne, jobs[0].Mode)
	require.Equal(t, "555", jobs[0].TargetUserID)
}
