package federation

import "testing"

func TestIsExisting(t *testing.T) {
	v := NewPrincipalValidator("")

	// Non-nil placeholder records do not count as existing.
	placeholder := &Account{Attributes: map[string]string{"email": "ghost@example.com"}}
	if v.IsExisting(placeholder) {
		t.Fatal("placeholder without marker must not be existing")
	}

	if v.IsExisting(nil) {
		t.Fatal("nil account must not be existing")
	}
	if v.IsExisting(&Account{}) {
		t.Fatal("account without attributes must not be existing")
	}

	real := &Account{
		UserID:     "u-1",
		Attributes: map[string]string{AccountMarkerKey: "u-1", "email": "jane@example.com"},
	}
	if !v.IsExisting(real) {
		t.Fatal("account with marker must be existing")
	}

	// Marker presence is what matters, not its value.
	empty := &Account{Attributes: map[string]string{AccountMarkerKey: ""}}
	if !v.IsExisting(empty) {
		t.Fatal("marker with empty value still counts as present")
	}
}

func TestIsExisting_CustomMarker(t *testing.T) {
	v := NewPrincipalValidator("local_id")

	a := &Account{Attributes: map[string]string{AccountMarkerKey: "u-1"}}
	if v.IsExisting(a) {
		t.Fatal("default marker must not satisfy a custom marker")
	}
	a = &Account{Attributes: map[string]string{"local_id": "u-1"}}
	if !v.IsExisting(a) {
		t.Fatal("custom marker not honored")
	}
}

func TestAccountAttr(t *testing.T) {
	var nilAcc *Account
	if _, ok := nilAcc.Attr("email"); ok {
		t.Fatal("nil account should report absent")
	}

	a := &Account{Attributes: map[string]string{"email": "jane@example.com"}}
	got, ok := a.Attr("email")
	if !ok || got != "jane@example.com" {
		t.Fatalf("got %q/%v", got, ok)
	}
	if _, ok := a.Attr("missing"); ok {
		t.Fatal("missing attribute should report absent")
	}
}
