package reference

import (
	"testing"

	"content_trans_api/pkg/trerr"
)

func TestParseRoundTrip(t *testing.T) {
	refs := []ProviderReference{
		{RequesterCode: "WEB", Year: 2024, Number: 1234, Version: 0, Part: 1, ServiceType: "TRA"},
		{RequesterCode: "AGRI", Year: 2025, Number: 1, Version: 3, Part: 0, ServiceType: "REV"},
	}
	for _, ref := range refs {
		got, err := Parse(ref.ToReference())
		if err != nil {
			t.Fatalf("Parse(%s): %v", ref.ToReference(), err)
		}
		if got != ref {
			t.Errorf("round trip: got %+v, want %+v", got, ref)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"too few components", "WEB/2024/1234/0/1"},
		{"too many components", "WEB/2024/1234/0/1/TRA/extra"},
		{"bad year", "WEB/20x4/1234/0/1/TRA"},
		{"bad number", "WEB/2024/12x4/0/1/TRA"},
		{"bad version", "WEB/2024/1234/x/1/TRA"},
		{"bad part", "WEB/2024/1234/0/x/TRA"},
		{"empty requester", "/2024/1234/0/1/TRA"},
		{"empty service type", "WEB/2024/1234/0/1/"},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.in); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.in)
			}
		})
	}
}

func TestMemoryRegistry(t *testing.T) {
	reg := NewMemoryRegistry()
	ref := ProviderReference{RequesterCode: "WEB", Year: 2024, Number: 7, ServiceType: "TRA"}

	if err := reg.Register("req-1", ref); err != nil {
		t.Fatalf("Register: %v", err)
	}

	id, err := reg.Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != "req-1" {
		t.Errorf("Resolve = %s, want req-1", id)
	}

	// One mapping per request, one request per reference.
	if err := reg.Register("req-1", ProviderReference{RequesterCode: "X", ServiceType: "TRA"}); err == nil {
		t.Error("second Register for the same request succeeded")
	}
	if err := reg.Register("req-2", ref); err == nil {
		t.Error("Register with an already-claimed reference succeeded")
	}
}

func TestMemoryRegistryResolveUnknown(t *testing.T) {
	reg := NewMemoryRegistry()
	_, err := reg.Resolve(ProviderReference{RequesterCode: "WEB", ServiceType: "TRA"})
	if !trerr.IsNotFound(err) {
		t.Errorf("Resolve unknown = %v, want NotFoundError", err)
	}
}

func TestLegacyCarryOver(t *testing.T) {
	reg := NewMemoryRegistry()

	legacy, ok, err := reg.LegacyCarryOver("req-1")
	if err != nil || ok || legacy != "" {
		t.Fatalf("carry-over before set: %q %v %v", legacy, ok, err)
	}

	if err := reg.SetLegacyReference("req-1", "OLD/99/1"); err != nil {
		t.Fatal(err)
	}
	legacy, ok, err = reg.LegacyCarryOver("req-1")
	if err != nil || !ok || legacy != "OLD/99/1" {
		t.Fatalf("carry-over after set: %q %v %v", legacy, ok, err)
	}
}
