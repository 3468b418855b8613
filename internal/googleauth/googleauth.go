package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/spigell/job-assistant/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdocs "google.golang.org/api/docs/v1"
	"google.golang.org/api/gmail/v1"
)

// ErrNoToken means the consent flow has not been completed yet.
var ErrNoToken = errors.New("google token not found")

// Scopes covers reading and marking alert emails and reading the resume document.
var Scopes = []string{
	gmail.GmailModifyScope,
	gdocs.DocumentsReadonlyScope,
}

// LoadConfig reads OAuth client credentials downloaded from the Google console.
func LoadConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsFile == "" {
		return nil, errors.New("google credentials file is not configured")
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading google credentials %q: %w", credentialsFile, err)
	}
	if len(scopes) == 0 {
		scopes = Scopes
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials %q: %w", credentialsFile, err)
	}
	return cfg, nil
}

// TokenFile stores the OAuth token as JSON.
type TokenFile struct {
	Path string
}

func (f TokenFile) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w at %q", ErrNoToken, f.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading token %q: %w", f.Path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing token %q: %w", f.Path, err)
	}
	return &tok, nil
}

func (f TokenFile) Save(tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("token is required")
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return utils.WriteFileAtomic(f.Path, data, 0o600)
}

// TokenSource returns a source that refreshes the stored token and writes
// refreshed tokens back to file.
func TokenSource(ctx context.Context, cfg *oauth2.Config, file TokenFile, logger *zap.Logger) (oauth2.TokenSource, error) {
	tok, err := file.Load()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &persistingSource{
		base:   cfg.TokenSource(ctx, tok),
		file:   file,
		last:   tok.AccessToken,
		logger: logger,
	}, nil
}

type persistingSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	file   TokenFile
	last   string
	logger *zap.Logger
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.file.Save(tok); err != nil {
			p.logger.Warn("saving refreshed google token", zap.Error(err))
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}

// AuthURL is the consent page the operator has to open.
func AuthURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ParseCode accepts either the bare authorization code or the full URL the
// browser was redirected to.
func ParseCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("authorization code is empty")
	}
	if !strings.Contains(input, "code=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parsing redirect url: %w", err)
	}
	q := u.Query()
	if got := q.Get("state"); state != "" && got != "" && got != state {
		return "", errors.New("state mismatch in redirect url")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect url has no code")
	}
	return code, nil
}

// Exchange trades the authorization code for a token and stores it.
func Exchange(ctx context.Context, cfg *oauth2.Config, code string, file TokenFile) (*oauth2.Token, error) {
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := file.Save(tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return tok, nil
}
