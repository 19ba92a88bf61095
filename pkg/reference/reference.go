package reference

import (
	"fmt"
	"strconv"
	"strings"
)

// ProviderReference is the composite correlation key a provider assigns to
// a dossier. Opaque to the core, but required for every follow-up call to
// that provider.
type ProviderReference struct {
	RequesterCode string `json:"requester_code"`
	Year          int    `json:"year"`
	Number        int64  `json:"number"`
	Version       int    `json:"version"`
	Part          int    `json:"part"`
	ServiceType   string `json:"service_type"`
}

// ToReference produces the canonical slash-joined form used for
// correlation lookups, e.g. "WEB/2024/1234/0/1/TRA".
func (r ProviderReference) ToReference() string {
	return fmt.Sprintf("%s/%d/%d/%d/%d/%s",
		r.RequesterCode, r.Year, r.Number, r.Version, r.Part, r.ServiceType)
}

func (r ProviderReference) IsZero() bool {
	return r == ProviderReference{}
}

// Parse round-trips a canonical reference string back to its components.
func Parse(s string) (ProviderReference, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 6 {
		return ProviderReference{}, fmt.Errorf("reference %q: want 6 components, got %d", s, len(parts))
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return ProviderReference{}, fmt.Errorf("reference %q: bad year: %v", s, err)
	}
	number, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return ProviderReference{}, fmt.Errorf("reference %q: bad number: %v", s, err)
	}
	version, err := strconv.Atoi(parts[3])
	if err != nil {
		return ProviderReference{}, fmt.Errorf("reference %q: bad version: %v", s, err)
	}
	part, err := strconv.Atoi(parts[4])
	if err != nil {
		return ProviderReference{}, fmt.Errorf("reference %q: bad part: %v", s, err)
	}

	if parts[0] == "" || parts[5] == "" {
		return ProviderReference{}, fmt.Errorf("reference %q: empty requester code or service type", s)
	}

	return ProviderReference{
		RequesterCode: parts[0],
		Year:          year,
		Number:        number,
		Version:       version,
		Part:          part,
		ServiceType:   parts[5],
	}, nil
}
