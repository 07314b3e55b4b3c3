package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTokenStoreTest(t *testing.T) (*Store, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := Config{
		VerifyTTL: time.Hour,
		ResetTTL:  time.Hour,
		InviteTTL: time.Hour,
	}
	return NewStore(rdb, cfg), rdb, mr
}

func TestCreateConsumeRoundTrip(t *testing.T) {
	store, _, _ := newTokenStoreTest(t)
	ctx := context.Background()

	tok, err := store.Create(ctx, KindInvite, Payload{Email: "a@x.com", CompanyID: "c1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	payload, err := store.Consume(ctx, KindInvite, tok)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if payload == nil || payload.Email != "a@x.com" || payload.CompanyID != "c1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	payload, err = store.Consume(ctx, KindInvite, tok)
	if err != nil || payload != nil {
		t.Fatalf("second consume must be absent, got (%+v, %v)", payload, err)
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	store, _, _ := newTokenStoreTest(t)

	payload, err := store.Consume(context.Background(), KindVerify, "never-issued")
	if err != nil || payload != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", payload, err)
	}
}

func TestKindIsolation(t *testing.T) {
	store, _, _ := newTokenStoreTest(t)
	ctx := context.Background()

	tok, err := store.Create(ctx, KindVerify, Payload{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The same token string presented under a different kind is invisible,
	// and must not burn the original.
	payload, err := store.Consume(ctx, KindReset, tok)
	if err != nil || payload != nil {
		t.Fatalf("cross-kind consume must be absent, got (%+v, %v)", payload, err)
	}

	payload, err = store.Consume(ctx, KindVerify, tok)
	if err != nil || payload == nil {
		t.Fatalf("original kind must still consume, got (%+v, %v)", payload, err)
	}
}

func TestConsumeOnceUnderConcurrency(t *testing.T) {
	store, _, _ := newTokenStoreTest(t)
	ctx := context.Background()

	tok, err := store.Create(ctx, KindReset, Payload{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const callers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, err := store.Consume(ctx, KindReset, tok)
			if err != nil {
				t.Errorf("consume: %v", err)
				return
			}
			if payload != nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", wins)
	}
}

func TestTokenExpires(t *testing.T) {
	store, _, mr := newTokenStoreTest(t)
	ctx := context.Background()

	tok, err := store.Create(ctx, KindVerify, Payload{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	payload, err := store.Consume(ctx, KindVerify, tok)
	if err != nil || payload != nil {
		t.Fatalf("expired token must be absent, got (%+v, %v)", payload, err)
	}
}

func TestConsumeCorruptPayloadFailsClosed(t *testing.T) {
	store, rdb, _ := newTokenStoreTest(t)
	ctx := context.Background()

	cases := map[string]string{
		"tok-garbage":    `{broken`,
		"tok-no-email":   `{"companyId":"c1"}`,
		"tok-no-company": `{"email":"a@x.com"}`, // invite requires companyId
	}
	for tok, data := range cases {
		if err := rdb.Set(ctx, key(KindInvite, tok), data, time.Hour).Err(); err != nil {
			t.Fatalf("seed %s: %v", tok, err)
		}
	}

	for tok := range cases {
		payload, err := store.Consume(ctx, KindInvite, tok)
		if err != nil || payload != nil {
			t.Fatalf("%s: expected (nil, nil), got (%+v, %v)", tok, payload, err)
		}
		// Fail-closed still burns the entry.
		if n, _ := rdb.Exists(ctx, key(KindInvite, tok)).Result(); n != 0 {
			t.Fatalf("%s: expected key deleted after consume attempt", tok)
		}
	}
}

func TestUnknownKindPanics(t *testing.T) {
	store, _, _ := newTokenStoreTest(t)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown kind")
		}
	}()
	_, _ = store.Create(context.Background(), Kind(99), Payload{Email: "a@x.com"})
}
