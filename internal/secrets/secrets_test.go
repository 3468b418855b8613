package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/vault/api"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr bool
	}{
		{name: "inline", src: Source{Value: " inline "}, want: "inline"},
		{name: "file wins", src: Source{Value: "inline", File: keyFile}, want: "from-file"},
		{name: "empty file", src: Source{File: emptyFile}, wantErr: true},
		{name: "missing file", src: Source{File: filepath.Join(dir, "nope")}, wantErr: true},
		{name: "nothing", src: Source{Name: "gemini api key"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %q, got %q (%v)", tt.want, got, err)
			}
		})
	}
}

type fakeKV struct {
	secrets map[string]*api.KVSecret
	paths   []string
}

func (f *fakeKV) Get(_ context.Context, path string) (*api.KVSecret, error) {
	f.paths = append(f.paths, path)
	s, ok := f.secrets[path]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return s, nil
}

func TestResolverReadsVault(t *testing.T) {
	kv := &fakeKV{secrets: map[string]*api.KVSecret{
		"job-assistant/db": {Data: map[string]interface{}{"url": " postgres://u:p@db/jobs ", "port": 5432}},
	}}
	r := &Resolver{kv: kv}

	got, err := r.Load(context.Background(), Source{Name: "database url", VaultPath: "job-assistant/db", VaultKey: "url", Value: "ignored"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "postgres://u:p@db/jobs" {
		t.Fatalf("unexpected value %q", got)
	}

	if _, err := r.Load(context.Background(), Source{VaultPath: "job-assistant/db", VaultKey: "port"}); err == nil {
		t.Fatal("expected error for non-string value")
	}
	if _, err := r.Load(context.Background(), Source{VaultPath: "job-assistant/db"}); err == nil {
		t.Fatal("expected error for missing default key")
	}
	if _, err := r.Load(context.Background(), Source{VaultPath: "missing"}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestResolverWithoutVault(t *testing.T) {
	r, err := NewResolver(VaultConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.Load(context.Background(), Source{Value: "inline"})
	if err != nil || got != "inline" {
		t.Fatalf("expected inline secret, got %q (%v)", got, err)
	}
	if _, err := r.Load(context.Background(), Source{VaultPath: "a/b"}); err == nil {
		t.Fatal("expected error when vault is not configured")
	}
}

func TestNewResolverRequiresToken(t *testing.T) {
	if _, err := NewResolver(VaultConfig{Address: "http://127.0.0.1:8200"}, nil); err == nil {
		t.Fatal("expected error without vault token")
	}
}
