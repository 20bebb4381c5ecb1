package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

func newLedger(t *testing.T) (*SessionLedger, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	return NewSessionLedger(client), mr
}

func TestSessionLedger_PutAndCurrent(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	uid := uuid.New()

	if err := ledger.Put(ctx, uid, "hash-1", 10*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := ledger.Current(ctx, uid)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != "hash-1" {
		t.Fatalf("want hash-1, got %s", got)
	}
}

func TestSessionLedger_PutOverwrites(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	uid := uuid.New()

	if err := ledger.Put(ctx, uid, "hash-1", 10*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := ledger.Put(ctx, uid, "hash-2", 10*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := ledger.Current(ctx, uid)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != "hash-2" {
		t.Fatal("rotation must replace the previous slot")
	}
}

func TestSessionLedger_MissingSlotIsRevoked(t *testing.T) {
	ledger, _ := newLedger(t)

	_, err := ledger.Current(context.Background(), uuid.New())
	if !errors.Is(err, customErrors.ErrRefreshRevoked) {
		t.Fatalf("want ErrRefreshRevoked, got %v", err)
	}
}

func TestSessionLedger_ClearIsIdempotent(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := context.Background()
	uid := uuid.New()

	if err := ledger.Put(ctx, uid, "hash-1", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := ledger.Clear(ctx, uid); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := ledger.Clear(ctx, uid); err != nil {
		t.Fatalf("second Clear: %v", err)
	}

	if _, err := ledger.Current(ctx, uid); !errors.Is(err, customErrors.ErrRefreshRevoked) {
		t.Fatalf("want ErrRefreshRevoked after Clear, got %v", err)
	}
}

func TestSessionLedger_SlotExpires(t *testing.T) {
	ledger, mr := newLedger(t)
	ctx := context.Background()
	uid := uuid.New()

	if err := ledger.Put(ctx, uid, "hash-1", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := ledger.Current(ctx, uid); !errors.Is(err, customErrors.ErrRefreshRevoked) {
		t.Fatalf("want ErrRefreshRevoked after expiry, got %v", err)
	}
}

func TestSessionLedger_NonPositiveTTLStillExpires(t *testing.T) {
	ledger, mr := newLedger(t)
	ctx := context.Background()
	uid := uuid.New()

	if err := ledger.Put(ctx, uid, "hash-1", -time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if mr.TTL(sessionKey(uid)) <= 0 {
		t.Fatal("key must carry a positive TTL")
	}
}
