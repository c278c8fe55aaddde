package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"opschat/internal/domain"
)

func newSlackTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *slackClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := newSlackClient("xoxb-test")
	c.baseURL = srv.URL
	return srv, c
}

func TestSendSlackMessageTool_Call_ShouldPostMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	_, c := newSlackTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"ok":true,"channel":"C123"}`))
	})

	tool := &SendSlackMessageTool{client: c}
	res, err := tool.Call(context.Background(), json.RawMessage(`{"channel":"#alerts","message":"disk full on web-3"}`))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if gotPath != "/chat.postMessage" {
		t.Errorf("Expected chat.postMessage, got %q", gotPath)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotBody["channel"] != "#alerts" || gotBody["text"] != "disk full on web-3" {
		t.Errorf("Unexpected post body: %v", gotBody)
	}
	if !strings.Contains(res.Payload, `"status":"success"`) {
		t.Errorf("Expected success payload, got %q", res.Payload)
	}
	if res.Metadata["channel"] != "#alerts" {
		t.Errorf("Expected channel metadata, got %v", res.Metadata)
	}
}

func TestSendSlackMessageTool_Call_ShouldFailOnOkFalse(t *testing.T) {
	_, c := newSlackTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	})

	tool := &SendSlackMessageTool{client: c}
	_, err := tool.Call(context.Background(), json.RawMessage(`{"channel":"#nope","message":"hi"}`))
	if err == nil {
		t.Fatal("Expected error when slack returns ok=false")
	}
	if !errors.Is(err, domain.ErrToolExecution) {
		t.Errorf("Expected ErrToolExecution, got: %v", err)
	}
	if !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("Expected slack error reason, got: %v", err)
	}
}

func TestListSlackChannelsTool_Call_ShouldSummarizeChannels(t *testing.T) {
	_, c := newSlackTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.list" {
			t.Errorf("Expected conversations.list, got %q", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true,"channels":[{"name":"general","id":"C1","is_private":false},{"name":"incidents","id":"C2","is_private":true}]}`))
	})

	tool := &ListSlackChannelsTool{client: c}
	res, err := tool.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	var out struct {
		Status   string `json:"status"`
		Channels []struct {
			Name      string `json:"name"`
			ID        string `json:"id"`
			IsPrivate bool   `json:"is_private"`
		} `json:"channels"`
	}
	if err := json.Unmarshal([]byte(res.Payload), &out); err != nil {
		t.Fatalf("Payload is not JSON: %v", err)
	}
	if out.Status != "success" || len(out.Channels) != 2 {
		t.Errorf("Unexpected payload: %q", res.Payload)
	}
	if out.Channels[1].Name != "incidents" || !out.Channels[1].IsPrivate {
		t.Errorf("Expected private incidents channel, got %+v", out.Channels)
	}
}

func TestLookupSlackUserTool_Call_ShouldReturnUserID(t *testing.T) {
	var gotEmail string
	_, c := newSlackTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("email")
		w.Write([]byte(`{"ok":true,"user":{"id":"U777","real_name":"Sam Ops"}}`))
	})

	tool := &LookupSlackUserTool{client: c}
	res, err := tool.Call(context.Background(), json.RawMessage(`{"email":"sam@example.com"}`))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if gotEmail != "sam@example.com" {
		t.Errorf("Expected email in query, got %q", gotEmail)
	}
	if !strings.Contains(res.Payload, "U777") || !strings.Contains(res.Payload, "Sam Ops") {
		t.Errorf("Expected user fields in payload, got %q", res.Payload)
	}
}

func TestListSlackUsersTool_Call_ShouldFilterBots(t *testing.T) {
	_, c := newSlackTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"members":[
			{"id":"U1","real_name":"Pat","is_bot":false,"profile":{"email":"pat@example.com"}},
			{"id":"B1","real_name":"deploybot","is_bot":true,"profile":{}}
		]}`))
	})

	tool := &ListSlackUsersTool{client: c}
	res, err := tool.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	var out struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	if err := json.Unmarshal([]byte(res.Payload), &out); err != nil {
		t.Fatalf("Payload is not JSON: %v", err)
	}
	if len(out.Users) != 1 || out.Users[0].ID != "U1" {
		t.Errorf("Expected bots filtered out, got %q", res.Payload)
	}
}
