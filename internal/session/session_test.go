package session

import "testing"

func TestDecodeSession(t *testing.T) {
	cases := []struct {
		name string
		data string
		ok   bool
	}{
		{"valid", `{"sid":"s1","userId":"u1","ua":"curl","ip":"127.0.0.1"}`, true},
		{"valid without optional fields", `{"sid":"s1","userId":"u1"}`, true},
		{"not json", `{nope`, false},
		{"wrong value type", `{"sid":"s1","userId":42}`, false},
		{"missing sid", `{"userId":"u1"}`, false},
		{"missing userId", `{"sid":"s1"}`, false},
		{"empty object", `{}`, false},
		{"json array", `["sid","userId"]`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := decodeSession([]byte(tc.data))
			if tc.ok {
				if err != nil || sess == nil {
					t.Fatalf("expected success, got (%+v, %v)", sess, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected decode rejection, got %+v", sess)
			}
		})
	}
}

func TestReconcilePartitionsLiveAndStale(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	fetched := []interface{}{
		`{"sid":"a","userId":"u1"}`, // live
		nil,                         // expired payload
		`garbage`,                   // corrupt payload
		`{"sid":"d","userId":"u1"}`, // live
	}

	live, stale := reconcile(ids, fetched)

	if len(live) != 2 || live[0].SID != "a" || live[1].SID != "d" {
		t.Fatalf("unexpected live set: %+v", live)
	}
	if len(stale) != 2 || stale[0] != "b" || stale[1] != "c" {
		t.Fatalf("unexpected stale set: %v", stale)
	}
}

func TestReconcileAllLive(t *testing.T) {
	live, stale := reconcile(
		[]string{"a"},
		[]interface{}{`{"sid":"a","userId":"u1"}`},
	)
	if len(live) != 1 || len(stale) != 0 {
		t.Fatalf("expected 1 live 0 stale, got %d/%d", len(live), len(stale))
	}
}
