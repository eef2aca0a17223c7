package wsbridge

import (
	"net/http/httptest"
	"testing"
)

func TestDecodeMessage(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"result","id":7,"value":{"a":1},"extra":true}`))
	if err != nil || msg.ID != 7 || string(msg.Value) != `{"a":1}` {
		t.Fatalf("result = %+v, %v", msg, err)
	}
	msg, err = DecodeMessage([]byte(`{"type":"result","id":8,"value":null}`))
	if err != nil || msg.Value != nil {
		t.Fatalf("null result = %+v, %v", msg, err)
	}
	msg, err = DecodeMessage([]byte(`{"type":"event","name":"codeMirrorDiffIsReady"}`))
	if err != nil || msg.Name != "codeMirrorDiffIsReady" || msg.Body != nil {
		t.Fatalf("event = %+v, %v", msg, err)
	}
	for _, bad := range []string{`{"type":"result"}`, `{"type":"event"}`, `{}`, `nope`} {
		if _, err := DecodeMessage([]byte(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

func TestCheckOrigin(t *testing.T) {
	cases := []struct {
		origin  string
		host    string
		allowed []string
		want    bool
	}{
		{origin: "", host: "example.com", want: true},
		{origin: "http://example.com", host: "example.com", want: true},
		{origin: "http://localhost:3000", host: "example.com", want: true},
		{origin: "http://evil.test", host: "example.com", want: false},
		{origin: "http://app.test", host: "example.com", allowed: []string{"http://app.test"}, want: true},
		{origin: "http://localhost:3000", host: "example.com", allowed: []string{"http://app.test"}, want: false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "http://"+tc.host+"/bridge/x", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		up := NewUpgrader(tc.allowed)
		if got := up.CheckOrigin(r); got != tc.want {
			t.Fatalf("origin %q host %q allowed %v: got %v", tc.origin, tc.host, tc.allowed, got)
		}
	}
}
