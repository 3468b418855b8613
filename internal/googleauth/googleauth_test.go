package googleauth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const installedCredentials = `{"installed":{"client_id":"id.apps.googleusercontent.com","project_id":"p","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","client_secret":"secret","redirect_uris":["http://localhost"]}}`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(installedCredentials), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" || len(cfg.Scopes) != len(Scopes) {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	file := TokenFile{Path: filepath.Join(t.TempDir(), "token.json")}

	if _, err := file.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := file.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}); err != nil {
		t.Fatalf("save: %v", err)
	}

	tok, err := file.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tok.AccessToken != "a" || tok.RefreshToken != "r" || !tok.Expiry.Equal(expiry) {
		t.Fatalf("unexpected token %+v", tok)
	}
}

func TestPersistingSourceSavesRefreshedToken(t *testing.T) {
	file := TokenFile{Path: filepath.Join(t.TempDir(), "token.json")}
	src := &persistingSource{
		base:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "new", RefreshToken: "r"}),
		file:   file,
		last:   "old",
		logger: zap.NewNop(),
	}

	if _, err := src.Token(); err != nil {
		t.Fatalf("token: %v", err)
	}

	stored, err := file.Load()
	if err != nil {
		t.Fatalf("expected refreshed token to be saved: %v", err)
	}
	if stored.AccessToken != "new" {
		t.Fatalf("unexpected stored token %+v", stored)
	}
}

func TestTokenSourceRequiresToken(t *testing.T) {
	cfg := &oauth2.Config{}
	_, err := TokenSource(context.Background(), cfg, TokenFile{Path: filepath.Join(t.TempDir(), "none.json")}, nil)
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestParseCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare code", input: " 4/0AbCd ", want: "4/0AbCd"},
		{name: "redirect url", input: "http://localhost/?state=s1&code=4/xyz&scope=gmail", want: "4/xyz"},
		{name: "state mismatch", input: "http://localhost/?state=other&code=4/xyz", wantErr: true},
		{name: "empty", input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCode(tt.input, "s1")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %q, got %q (%v)", tt.want, got, err)
			}
		})
	}
}

func TestAuthURLRequestsOfflineAccess(t *testing.T) {
	cfg := &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth"}}
	u := AuthURL(cfg, "state-1")
	for _, want := range []string{"access_type=offline", "state=state-1", "prompt=consent"} {
		if !strings.Contains(u, want) {
			t.Fatalf("expected %q in %s", want, u)
		}
	}
}
