package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/idbridge/internal/federation"
	"github.com/dropDatabas3/idbridge/internal/store/core"
)

func TestResolve_UnknownKeyReturnsPlaceholder(t *testing.T) {
	s := New()

	acc, err := s.Resolve(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	// The contract is a non-nil record without the marker attribute, never a
	// nil record or a not-found error.
	if acc == nil {
		t.Fatal("expected non-nil placeholder record")
	}
	if _, ok := acc.Attributes[federation.AccountMarkerKey]; ok {
		t.Fatal("placeholder must not carry the marker attribute")
	}
	if acc.Attributes["email"] != "ghost@example.com" {
		t.Fatalf("placeholder attributes %+v", acc.Attributes)
	}
}

func TestCreateThenResolve(t *testing.T) {
	s := New()
	ctx := context.Background()

	id := federation.NormalizedIdentity{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}
	if err := s.Create(ctx, id); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	acc, err := s.Resolve(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	marker, ok := acc.Attributes[federation.AccountMarkerKey]
	if !ok || marker == "" {
		t.Fatalf("expected marker attribute, got %+v", acc.Attributes)
	}
	if marker != acc.UserID {
		t.Fatalf("marker %q != user id %q", marker, acc.UserID)
	}
	if acc.Attributes["firstname"] != "Jane" || acc.Attributes["lastname"] != "Doe" {
		t.Fatalf("attributes %+v", acc.Attributes)
	}
	if s.Len() != 1 {
		t.Fatalf("Len=%d", s.Len())
	}
}

func TestCreate_DuplicateIsConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	id := federation.NormalizedIdentity{Email: "jane@example.com"}
	if err := s.Create(ctx, id); err != nil {
		t.Fatalf("first Create err: %v", err)
	}
	if err := s.Create(ctx, id); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len=%d", s.Len())
	}
}

func TestCreate_RespectsContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Create(ctx, federation.NormalizedIdentity{Email: "x@y.co"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := s.Resolve(ctx, "x@y.co"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHooks(t *testing.T) {
	ctx := context.Background()

	s := New()
	s.CreateErr = errors.New("boom")
	if err := s.Create(ctx, federation.NormalizedIdentity{Email: "a@b.co"}); err == nil {
		t.Fatal("CreateErr hook ignored")
	}

	s = New()
	s.DropCreates = true
	if err := s.Create(ctx, federation.NormalizedIdentity{Email: "a@b.co"}); err != nil {
		t.Fatalf("DropCreates should report success, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatal("DropCreates must not write")
	}
}
