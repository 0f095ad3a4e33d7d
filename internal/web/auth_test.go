package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("geheim123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	ok, err := VerifyPassword("geheim123", hash)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Error("correct password must verify")
	}

	ok, err = VerifyPassword("falsch", hash)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ok {
		t.Error("wrong password must not verify")
	}
}

func TestVerifyPasswordRejectsGarbageHashes(t *testing.T) {
	for _, hash := range []string{"", "plaintext", "$md5$x$y$z", "$argon2id$v=19$broken"} {
		if ok, err := VerifyPassword("pw", hash); ok || err == nil {
			t.Errorf("hash %q: expected rejection, got ok=%v err=%v", hash, ok, err)
		}
	}
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	h1, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password must differ (random salt)")
	}
}

func writeAuthFile(t *testing.T, user, password string) string {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "auth.secret")
	if err := os.WriteFile(path, []byte(user+":"+hash+"\n"), 0o600); err != nil {
		t.Fatalf("write auth file: %v", err)
	}
	return path
}

func TestRequireAuthEnforcesCredentials(t *testing.T) {
	t.Setenv("AUTH_FILE", writeAuthFile(t, "admin", "geheim123"))

	auth, err := LoadAuth(zerolog.Nop())
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}

	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// no credentials
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate challenge")
	}

	// wrong password
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", nil)
	req.SetBasicAuth("admin", "falsch")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong password, got %d", rec.Code)
	}

	// correct credentials
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/scrape", nil)
	req.SetBasicAuth("admin", "geheim123")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 with correct credentials, got %d", rec.Code)
	}
}

func TestRequireAuthDisabledWithoutAuthFile(t *testing.T) {
	t.Setenv("AUTH_FILE", filepath.Join(t.TempDir(), "missing.secret"))

	auth, err := LoadAuth(zerolog.Nop())
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}

	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("missing auth file disables the guard, expected 204, got %d", rec.Code)
	}
}

func TestLoadAuthRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.secret")
	if err := os.WriteFile(path, []byte("no-colon-here\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AUTH_FILE", path)

	if _, err := LoadAuth(zerolog.Nop()); err == nil {
		t.Error("expected error for malformed auth file")
	}
}
