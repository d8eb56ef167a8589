package orgcontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), 42)
	id, ok := OrgIDFromContext(ctx)
	if !ok || id != snowflake.ID(42) {
		t.Fatalf("expected org 42, got %v (ok=%v)", id, ok)
	}
}

func TestOrgIDMissing(t *testing.T) {
	if _, ok := OrgIDFromContext(context.Background()); ok {
		t.Fatal("expected no org id")
	}
	if _, ok := OrgIDFromContext(WithOrgID(context.Background(), 0)); ok {
		t.Fatal("expected zero org id to be rejected")
	}
	ctx := context.WithValue(context.Background(), "org_id", int64(7)) //nolint:staticcheck
	if _, ok := OrgIDFromContext(ctx); ok {
		t.Fatal("expected untyped keys to be ignored")
	}
}
