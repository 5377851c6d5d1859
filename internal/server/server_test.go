package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-churiwal/assistant-gateway/internal/config"
)

// Each test gets a fresh server (and so a fresh governor) to avoid quota
// leakage between cases, plus a cookie-jar client so requests share a
// session the way a browser would.
func newTestClient(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Environment = "test"
	cfg.Session.Secret = "test-secret"
	cfg.Governor.Backend = "memory"

	srv := New(cfg, nil, nil)
	ts := httptest.NewServer(srv.GetRouter())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return ts, &http.Client{Jar: jar}
}

func postForm(t *testing.T, client *http.Client, ts *httptest.Server, path string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := client.PostForm(ts.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	return resp, parsed
}

func getJSON(t *testing.T, client *http.Client, ts *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := client.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	return resp, parsed
}

func TestIndexRendersPageAndSetsSession(t *testing.T) {
	ts, client := newTestClient(t)

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Financial Assistant")

	u, _ := url.Parse(ts.URL)
	cookies := client.Jar.Cookies(u)
	require.NotEmpty(t, cookies)
	assert.Equal(t, "gw_session", cookies[0].Name)
}

func TestSendMessageNewsFlow(t *testing.T) {
	ts, client := newTestClient(t)

	resp, body := postForm(t, client, ts, "/send-message", url.Values{
		"text": {"What's the latest news on Tata?"},
		"tier": {"Tier-1"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	response, _ := body["response"].(string)
	assert.Contains(t, response, "Latest Financial News for Tata:")
	assert.Equal(t, 2, strings.Count(response, "\n- "))
}

func TestSendMessageQuarterlyFlow(t *testing.T) {
	ts, client := newTestClient(t)

	resp, body := postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Show me Infosys quarterly revenue"},
		"tier": {"Tier-1"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	response, _ := body["response"].(string)
	assert.Contains(t, response, "P/E Ratio: 25.4")
	assert.Contains(t, response, "[Balance Sheet](")
	assert.Contains(t, response, "[Analyst Call Transcript](")
}

func TestSendMessageRefusal(t *testing.T) {
	ts, client := newTestClient(t)

	resp, body := postForm(t, client, ts, "/send-message", url.Values{
		"text": {"What's the weather?"},
		"tier": {"Tier-1"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "I'm sorry, I can only help with financial market-related questions.", body["response"])
}

func TestSendMessageUnknownTier(t *testing.T) {
	ts, client := newTestClient(t)

	resp, body := postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Tier-99"},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Tier-99", body["tier"])
}

func TestSendMessageMissingText(t *testing.T) {
	ts, client := newTestClient(t)

	resp, _ := postForm(t, client, ts, "/send-message", url.Values{"tier": {"Free"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendMessageFreeTierQuota(t *testing.T) {
	ts, client := newTestClient(t)

	form := url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Free"},
	}

	// Free allows 3 requests per minute; the 4th is rejected.
	for i := 0; i < 3; i++ {
		resp, _ := postForm(t, client, ts, "/send-message", form)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := postForm(t, client, ts, "/send-message", form)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rpm", body["dimension"])
	assert.Equal(t, "Rate limit exceeded: Too many requests per minute.", body["error"])
}

func TestTierIsSticky(t *testing.T) {
	ts, client := newTestClient(t)

	resp, _ := postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Tier-1"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// No tier field: the session's stored selection applies, so this does
	// not fall back to Free's 3 rpm.
	for i := 0; i < 5; i++ {
		resp, _ := postForm(t, client, ts, "/send-message", url.Values{
			"text": {"Any news on Tata?"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestNewChatAndPreviousChats(t *testing.T) {
	ts, client := newTestClient(t)

	postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Tier-1"},
	})

	resp, body := postForm(t, client, ts, "/new-chat", url.Values{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "New chat started.", body["message"])

	resp, body = getJSON(t, client, ts, "/get-previous-chats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	previous, ok := body["previous_chats"].([]any)
	require.True(t, ok)
	// The archived Tata chat plus the fresh active conversation.
	require.Len(t, previous, 2)

	first, ok := previous[0].([]any)
	require.True(t, ok)
	// system + user + assistant
	assert.Len(t, first, 3)
}

func TestSwitchConversation(t *testing.T) {
	ts, client := newTestClient(t)

	postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Tier-1"},
	})
	postForm(t, client, ts, "/new-chat", url.Values{})

	resp, body := postForm(t, client, ts, "/switch-conversation", url.Values{
		"conversationIndex": {"0"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Switched successfully.", body["message"])

	history, ok := body["chat_history"].([]any)
	require.True(t, ok)
	assert.Len(t, history, 3)
}

func TestSwitchConversationNotFound(t *testing.T) {
	ts, client := newTestClient(t)

	postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Tier-1"},
	})
	postForm(t, client, ts, "/new-chat", url.Values{})

	// Two archived conversations exist (indices 0 and 1); index 2 is out
	// of range.
	resp, _ := postForm(t, client, ts, "/switch-conversation", url.Values{
		"conversationIndex": {"2"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = postForm(t, client, ts, "/switch-conversation", url.Values{
		"conversationIndex": {"not-a-number"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetClearsSession(t *testing.T) {
	ts, client := newTestClient(t)

	postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Tier-1"},
	})

	resp, body := getJSON(t, client, ts, "/reset")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Session cleared", body["message"])

	resp, body = getJSON(t, client, ts, "/get-previous-chats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	previous, _ := body["previous_chats"].([]any)
	assert.Empty(t, previous)
}

func TestTamperedSessionCookieGetsFreshSession(t *testing.T) {
	ts, client := newTestClient(t)

	postForm(t, client, ts, "/send-message", url.Values{
		"text": {"Any news on Tata?"},
		"tier": {"Tier-1"},
	})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/get-previous-chats", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "gw_session", Value: "forged-token"})

	// Plain client, no jar: only the forged cookie travels.
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	previous, _ := parsed["previous_chats"].([]any)
	assert.Empty(t, previous)
}

func TestHealthEndpoint(t *testing.T) {
	ts, client := newTestClient(t)

	resp, body := getJSON(t, client, ts, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "assistant-gateway", body["service"])
}
