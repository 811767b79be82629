package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockIssuer struct {
	calls int
	last  struct {
		key    string
		active bool
		owner  string
	}
	fail bool
}

func (m *mockIssuer) Issue(_ context.Context, key string, active bool, owner string) error {
	m.calls++
	m.last.key = key
	m.last.active = active
	m.last.owner = owner
	if m.fail { return errString("fail") }
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

func TestAdmin_Unauthorized(t *testing.T) {
	mi := &mockIssuer{}
	h := NewAdminHandler(mi, "secret")
	req := httptest.NewRequest(http.MethodPost, "/admin/keys", bytes.NewReader([]byte(`{"owner":"acme"}`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized { t.Fatalf("status=%d", rec.Code) }
	if mi.calls != 0 { t.Fatalf("issuer called without token") }
}

func TestAdmin_EmptyTokenDisablesEndpoint(t *testing.T) {
	h := NewAdminHandler(&mockIssuer{}, "")
	req := httptest.NewRequest(http.MethodPost, "/admin/keys", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Admin-Token", "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized { t.Fatalf("status=%d", rec.Code) }
}

func TestAdmin_GenerateAndStore_OK(t *testing.T) {
	mi := &mockIssuer{}
	h := NewAdminHandler(mi, "secret")
	body, _ := json.Marshal(map[string]any{"owner": "acme"})
	req := httptest.NewRequest(http.MethodPost, "/admin/keys", bytes.NewReader(body))
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK { t.Fatalf("status=%d", rec.Code) }
	if mi.calls != 1 { t.Fatalf("Issue calls=%d", mi.calls) }
	if len(mi.last.key) != 64 { t.Fatalf("expected random 32-byte hex key, got %q", mi.last.key) }
	if !mi.last.active { t.Fatalf("expected active=true") }
	if mi.last.owner != "acme" { t.Fatalf("owner=%q", mi.last.owner) }
	var resp issueKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Key != mi.last.key { t.Fatalf("resp=%+v err=%v", resp, err) }
}

func TestAdmin_ExplicitInactiveKey(t *testing.T) {
	mi := &mockIssuer{}
	h := NewAdminHandler(mi, "secret")
	req := httptest.NewRequest(http.MethodPost, "/admin/keys", bytes.NewReader([]byte(`{"key":"k1","active":false}`)))
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK { t.Fatalf("status=%d", rec.Code) }
	if mi.last.key != "k1" || mi.last.active { t.Fatalf("last=%+v", mi.last) }
}

func TestAdmin_MethodNotAllowed(t *testing.T) {
	h := NewAdminHandler(&mockIssuer{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/admin/keys", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed { t.Fatalf("status=%d", rec.Code) }
}

func TestAdmin_BadJSON(t *testing.T) {
	h := NewAdminHandler(&mockIssuer{}, "secret")
	req := httptest.NewRequest(http.MethodPost, "/admin/keys", bytes.NewReader([]byte("{bad")))
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest { t.Fatalf("status=%d", rec.Code) }
}

func TestAdmin_StoreError(t *testing.T) {
	h := NewAdminHandler(&mockIssuer{fail: true}, "secret")
	req := httptest.NewRequest(http.MethodPost, "/admin/keys", bytes.NewReader([]byte(`{"owner":"acme"}`)))
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError { t.Fatalf("status=%d", rec.Code) }
}
