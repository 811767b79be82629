package auth

import (
	"context"
	"testing"
)

func TestHashPrefix_LengthAndDeterminism(t *testing.T) {
	p1 := HashPrefix("test-key")
	p2 := HashPrefix("test-key")
	if len(p1) != 8 { t.Fatalf("len=%d", len(p1)) }
	if p1 != p2 { t.Fatalf("non-deterministic: %s vs %s", p1, p2) }
	if HashKey("a") == HashKey("b") { t.Fatalf("distinct keys hashed equal") }
}

func TestMemoryKeyStore_IssueAndValidate(t *testing.T) {
	s := NewMemoryKeyStore()
	ctx := context.Background()
	if _, err := s.Validate(ctx, ""); err != ErrMissingKey { t.Fatalf("err=%v", err) }
	ok, err := s.Validate(ctx, "k1")
	if err != nil || ok { t.Fatalf("unknown key ok=%v err=%v", ok, err) }
	if err := s.Issue(ctx, "k1", true, "owner"); err != nil { t.Fatalf("issue: %v", err) }
	ok, _ = s.Validate(ctx, "k1")
	if !ok { t.Fatalf("issued key rejected") }
	_ = s.Issue(ctx, "k1", false, "owner")
	ok, _ = s.Validate(ctx, "k1")
	if ok { t.Fatalf("deactivated key accepted") }
	if err := s.Issue(ctx, "", true, ""); err != ErrMissingKey { t.Fatalf("empty issue err=%v", err) }
	if err := s.Ping(ctx); err != nil { t.Fatalf("ping: %v", err) }
}
