package imagestore

import "testing"

func TestValidateSourceURL(t *testing.T) {
	valid := []string{
		"https://example.com/images/bicycle.png",
		"http://example.com/a.jpg",
	}
	for _, raw := range valid {
		if err := validateSourceURL(raw); err != nil {
			t.Fatalf("expected %q to be valid, got %v", raw, err)
		}
	}

	invalid := []string{
		"ftp://example.com/a.png",
		"javascript:alert(1)",
		"/relative/path.png",
		"",
	}
	for _, raw := range invalid {
		if err := validateSourceURL(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestContentTypeAllowed(t *testing.T) {
	allowed := defaultAllowedContentTypes

	if !contentTypeAllowed("image/png", allowed) {
		t.Fatal("expected image/png to be allowed")
	}
	if !contentTypeAllowed("IMAGE/JPEG", allowed) {
		t.Fatal("expected case-insensitive match")
	}
	if contentTypeAllowed("application/pdf", allowed) {
		t.Fatal("expected application/pdf to be denied")
	}
	if contentTypeAllowed("", allowed) {
		t.Fatal("expected missing content type to be denied")
	}
	if !contentTypeAllowed("image/svg+xml", []string{"image/*"}) {
		t.Fatal("expected wildcard suffix match")
	}
}
