package auth

import "testing"

func TestServiceBasic(t *testing.T) {
	svc := New([]int64{10, 20})

	if !svc.IsAllowed(10) || !svc.IsAllowed(20) {
		t.Fatalf("configured admins not allowed")
	}
	if svc.IsAllowed(30) {
		t.Fatalf("unexpected admin")
	}
}

func TestServiceEmpty(t *testing.T) {
	svc := New(nil)
	if svc.IsAllowed(1) {
		t.Fatalf("empty allow-list must deny everyone")
	}
}
