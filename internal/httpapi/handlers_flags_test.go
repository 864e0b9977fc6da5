package httpapi

import (
	"net/http"
	"testing"
)

func TestFeatureFlagsReflectsConfig(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/feature-flags", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var flags map[string]any
	decodeBody(t, resp, &flags)
	if flags["read_only_mode"] != false {
		t.Fatalf("read_only_mode = %v, want false", flags["read_only_mode"])
	}
	if flags["auto_approval"] != false {
		t.Fatalf("auto_approval = %v, want false by default", flags["auto_approval"])
	}
}
