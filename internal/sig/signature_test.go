package sig

import "testing"

func TestSignature_Param(t *testing.T) {
	s := testSignature()
	if s.ParamCount() != 3 {
		t.Fatalf("ParamCount() = %d, want 3", s.ParamCount())
	}
	p, ok := s.Param(1)
	if !ok {
		t.Fatal("Param(1) ok = false")
	}
	if p.Name != "target" {
		t.Errorf("Param(1).Name = %q, want target", p.Name)
	}
	if _, ok := s.Param(10); ok {
		t.Error("Param(10) ok = true, want false")
	}
	if _, ok := s.Param(-1); ok {
		t.Error("Param(-1) ok = true, want false")
	}
}

func TestResourceKind_String(t *testing.T) {
	tests := map[ResourceKind]string{
		ResourceKindAny:    "any",
		ResourceKindBuffer: "buffer",
		ResourceKindImage:  "image",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("ResourceKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
