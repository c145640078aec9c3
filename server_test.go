// ABOUTME: Tests for the webhook relay.
// ABOUTME: Covers authentication, the hook endpoint, state and broadcasting to watchers.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newTestRelay(t *testing.T) (*RelayServer, *httptest.Server) {
	t.Helper()
	relay := NewRelayServer(testSecret)
	ts := httptest.NewServer(relay.Handler())
	t.Cleanup(ts.Close)
	return relay, ts
}

func dialRelay(t *testing.T, ts *httptest.Server, secret string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if secret != "" {
		header.Set("Authorization", "Bearer "+secret)
	}
	header.Set("X-Client-Name", "test-watcher")
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
}

func postHook(t *testing.T, endpoint, secret, value string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(url.Values{webhookField: {value}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readModeEvent(t *testing.T, conn *websocket.Conn) ModeEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := DecodeMessage(raw)
	require.NoError(t, err)
	require.Equal(t, MessageTypeMode, msg.Type)

	var ev ModeEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	return ev
}

func TestRelayAcceptsAuthenticatedConnection(t *testing.T) {
	relay, ts := newTestRelay(t)

	conn, resp, err := dialRelay(t, ts, testSecret)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.Eventually(t, func() bool { return relay.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRelayRejectsUnauthenticatedConnection(t *testing.T) {
	_, ts := newTestRelay(t)

	for _, secret := range []string{"", "wrong-secret"} {
		_, resp, err := dialRelay(t, ts, secret)
		require.Error(t, err)
		if resp != nil {
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		}
	}
}

func TestRelayHookBroadcastsToWatchers(t *testing.T) {
	relay, ts := newTestRelay(t)

	conn1, _, err := dialRelay(t, ts, testSecret)
	require.NoError(t, err)
	defer conn1.Close()
	conn2, _, err := dialRelay(t, ts, testSecret)
	require.NoError(t, err)
	defer conn2.Close()
	require.Eventually(t, func() bool { return relay.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	resp := postHook(t, ts.URL+"/hook", testSecret, "Dark")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		ev := readModeEvent(t, conn)
		assert.Equal(t, ModeDark, ev.Mode)
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.ReceivedAt.IsZero())
	}
}

func TestRelayHookAcceptsTokenQuery(t *testing.T) {
	relay, ts := newTestRelay(t)

	resp := postHook(t, ts.URL+"/hook?token="+testSecret, "", "Light")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	last := relay.Last()
	require.NotNil(t, last)
	assert.Equal(t, ModeLight, last.Mode)
}

func TestRelayHookRejections(t *testing.T) {
	relay, ts := newTestRelay(t)

	assert.Equal(t, http.StatusUnauthorized, postHook(t, ts.URL+"/hook", "", "Dark").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, postHook(t, ts.URL+"/hook", "nope", "Dark").StatusCode)
	assert.Equal(t, http.StatusBadRequest, postHook(t, ts.URL+"/hook", testSecret, "Sepia").StatusCode)

	resp, err := http.Get(ts.URL + "/hook")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	assert.Nil(t, relay.Last())
}

func TestRelayHookTestValue(t *testing.T) {
	relay, ts := newTestRelay(t)

	resp := postHook(t, ts.URL+"/hook", testSecret, webhookTestValue)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, relay.Last())
}

func TestRelayState(t *testing.T) {
	_, ts := newTestRelay(t)

	get := func() *http.Response {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/state", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+testSecret)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusNotFound, get().StatusCode)

	postHook(t, ts.URL+"/hook", testSecret, "Dark")

	resp := get()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ev ModeEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ev))
	assert.Equal(t, ModeDark, ev.Mode)
}

func TestRelaySendsLastModeOnConnect(t *testing.T) {
	_, ts := newTestRelay(t)

	postHook(t, ts.URL+"/hook", testSecret, "Dark")

	conn, _, err := dialRelay(t, ts, testSecret)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, ModeDark, readModeEvent(t, conn).Mode)
}

func TestRelayRemovesDisconnectedWatcher(t *testing.T) {
	relay, ts := newTestRelay(t)

	conn, _, err := dialRelay(t, ts, testSecret)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return relay.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return relay.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRelayReceivesDaemonWebhook(t *testing.T) {
	relay, ts := newTestRelay(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	out := NewWebhookNotifier(nil).Send(ctx, ModeDark, ts.URL+"/hook?token="+testSecret)
	require.True(t, out.OK, "err: %v", out.Err)
	assert.Equal(t, "ok", out.Body)

	require.NotNil(t, relay.Last())
	assert.Equal(t, ModeDark, relay.Last().Mode)
}
