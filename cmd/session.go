package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spigell/job-assistant/internal/ai"
	"github.com/spigell/job-assistant/internal/ai/gemini"
	"github.com/spigell/job-assistant/internal/ai/ollama"
	"github.com/spigell/job-assistant/internal/document"
	"github.com/spigell/job-assistant/internal/googleauth"
	"github.com/spigell/job-assistant/internal/logger"
	"github.com/spigell/job-assistant/internal/metrics"
	"github.com/spigell/job-assistant/internal/pipeline"
	"github.com/spigell/job-assistant/internal/profile"
	"github.com/spigell/job-assistant/internal/research"
	"github.com/spigell/job-assistant/internal/secrets"
	"github.com/spigell/job-assistant/internal/store"
	"github.com/spigell/job-assistant/internal/store/filestore"
	"github.com/spigell/job-assistant/internal/store/pgstore"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const redacted = "<redacted>"

// session holds what a single CLI invocation builds. Collaborators are
// created on demand so a verb only needs the configuration it uses.
type session struct {
	ctx     context.Context
	stop    context.CancelFunc
	config  *Config
	logger  *zap.Logger
	secrets *secrets.Resolver
	metrics *metrics.Recorder
	closers []func() error

	tokens oauth2.TokenSource
}

func newSession(command string) *session {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	base, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	zlog, _ := logger.WithRun(base, command)

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		zlog.Fatal("config is required")
	}

	zlog.Info("starting the job-assistant", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redact(config), "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	resolver, err := secrets.NewResolver(config.Vault, zlog)
	if err != nil {
		zlog.Fatal("configuring vault",
			zap.Error(err),
			zap.String("hint", "set vault.address (VAULT_ADDR) and vault.token-file (VAULT_TOKEN_FILE) or unset vault.address"),
		)
	}

	return &session{
		ctx:     ctx,
		stop:    stop,
		config:  config,
		logger:  zlog,
		secrets: resolver,
		metrics: metrics.New(),
	}
}

func redact(config *Config) *Config {
	c := *config
	if c.Vault.Token != "" {
		c.Vault.Token = redacted
	}
	if c.Storage != nil && c.Storage.DatabaseURL != "" {
		storage := *c.Storage
		storage.DatabaseURL = redacted
		c.Storage = &storage
	}
	return &c
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("closing resources", zap.Error(err))
		}
	}
	s.logger.Sync()
	s.stop()
}

func (s *session) fatal(msg string, err error, hint string) {
	fields := []zap.Field{zap.Error(err)}
	if hint != "" {
		fields = append(fields, zap.String("hint", hint))
	}
	s.logger.Fatal(msg, fields...)
}

func (s *session) openStore() store.Store {
	cfg := s.config.Storage

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		st, err := filestore.New(cfg.DataDir, s.logger)
		if err != nil {
			s.fatal("opening file storage", err, "check storage.data-dir or DATA_DIR")
		}
		s.closers = append(s.closers, st.Close)
		return st
	case "postgres", "postgresql":
		url, err := s.secrets.Load(s.ctx, secrets.Source{
			Name:      "database url",
			Value:     cfg.DatabaseURL,
			File:      cfg.DatabaseURLFile,
			VaultPath: cfg.DatabaseURLVault,
		})
		if err != nil {
			s.fatal("loading database url", err, "set storage.database-url (DATABASE_URL), storage.database-url-file or storage.database-url-vault-path")
		}

		db, err := pgstore.Connect(s.ctx, url)
		if err != nil {
			s.fatal("connecting to postgres", err, "check that the database in DATABASE_URL is reachable")
		}
		if err := pgstore.Migrate(s.ctx, db); err != nil {
			db.Close()
			s.fatal("migrating postgres schema", err, "")
		}

		st := pgstore.New(db, s.logger)
		s.closers = append(s.closers, st.Close)
		return st
	default:
		s.fatal("opening storage", fmt.Errorf("unknown storage driver %q", cfg.Driver), "storage.driver (STORAGE_DRIVER) must be file or postgres")
	}
	return nil
}

// llm returns the configured model behind a circuit breaker.
func (s *session) llm() *ai.Structured {
	cfg := s.config.AI

	gen, provider, err := s.newGenerator()
	if err != nil {
		s.fatal("building ai provider", err, "set ai.provider (AI_PROVIDER) to ollama or gemini")
	}

	aiLogger := logger.WithCommonFields(s.logger, provider, gen.Model())
	breaker := ai.NewBreaker(gen, ai.BreakerConfig{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}, aiLogger)

	return ai.NewStructured(breaker, aiLogger, cfg.MaxLogLength)
}

func (s *session) newGenerator() (ai.Generator, string, error) {
	cfg := s.config.AI
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", "ollama":
		gen, err := ollama.NewGenerator(cfg.Ollama.BaseURL, cfg.Ollama.Model)
		if err != nil {
			return nil, provider, err
		}
		return gen, "ollama", nil
	case "gemini":
		apiKey, err := s.secrets.Load(s.ctx, secrets.Source{
			Name:      "gemini api key",
			File:      cfg.Gemini.APIKeyFile,
			VaultPath: cfg.Gemini.APIKeyVault,
		})
		if err != nil {
			return nil, provider, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		genLogger := logger.WithCommonFields(s.logger, provider, cfg.Gemini.Model).
			With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

		gen, err := gemini.NewGenerator(s.ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
		if err != nil {
			return nil, provider, err
		}
		return gen, provider, nil
	default:
		return nil, provider, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func (s *session) googleConfig() *oauth2.Config {
	cfg, err := googleauth.LoadConfig(s.config.Google.CredentialsFile, googleauth.Scopes...)
	if err != nil {
		s.fatal("loading google credentials", err, "download the OAuth client file and set google.credentials-file or GMAIL_CREDENTIALS_PATH")
	}
	return cfg
}

func (s *session) tokenFile() googleauth.TokenFile {
	return googleauth.TokenFile{Path: s.config.Google.TokenFile}
}

func (s *session) tokenSource() oauth2.TokenSource {
	if s.tokens != nil {
		return s.tokens
	}

	ts, err := googleauth.TokenSource(s.ctx, s.googleConfig(), s.tokenFile(), s.logger)
	if err != nil {
		hint := "check google.token-file or GOOGLE_TOKEN_FILE"
		if errors.Is(err, googleauth.ErrNoToken) {
			hint = "run `" + app + " auth` once to grant access"
		}
		s.fatal("loading google token", err, hint)
	}
	s.tokens = ts
	return ts
}

func (s *session) profileLoader(st store.Store, llm *ai.Structured) *profile.Loader {
	cfg := s.config.Resume

	var (
		source profile.TextSource
		ref    string
	)
	switch {
	case cfg.DocumentID != "":
		docs, err := document.NewGoogleDocs(s.ctx, s.tokenSource())
		if err != nil {
			s.fatal("creating google docs client", err, "")
		}
		source, ref = docs, cfg.DocumentID
	case cfg.File != "":
		source, ref = document.Files{}, cfg.File
	default:
		s.fatal("resume source is required", errors.New("resume is not configured"),
			"set resume.document-id (GOOGLE_DRIVE_RESUME_ID) or resume.file (RESUME_FILE)")
	}

	builder := profile.NewBuilder(source, ref, llm, s.logger)
	return profile.NewLoader(st, builder, s.config.Preferences, cfg.CacheTTL, s.logger)
}

func (s *session) loadProfile(st store.Store, llm *ai.Structured) *profile.Snapshot {
	snap, err := s.profileLoader(st, llm).Load(s.ctx, true)
	if err != nil {
		s.fatal("loading resume profile", err, "check that the resume document is shared with the authorised account")
	}
	if snap.Unparsed {
		s.logger.Warn("resume profile could not be parsed, scores will be flagged for review",
			zap.String("parse_error", snap.ParseError),
			zap.String("hint", "run `"+app+" refresh-resume` after fixing the resume or the model"),
		)
	}
	return snap
}

func (s *session) researcher(llm *ai.Structured) *research.Researcher {
	cfg := s.config.Research
	client := &http.Client{Timeout: cfg.Timeout}

	var cache research.Cache = research.NopCache{}
	if cfg.RedisURL != "" {
		rdb, err := research.NewRedisClient(s.ctx, cfg.RedisURL)
		if err != nil {
			s.logger.Warn("research cache disabled", zap.Error(err))
		} else {
			s.closers = append(s.closers, rdb.Close)
			cache = research.NewRedisCache(rdb, cfg.CacheTTL)
		}
	}

	return research.New(
		research.NewDuckDuckGo(client, ""),
		research.NewFetcher(client, cfg.RequestsPerSecond, 0),
		cache,
		llm,
		cfg.MaxURLs,
		s.logger,
	)
}

func (s *session) newPipeline(deps pipeline.Deps) *pipeline.Pipeline {
	deps.Metrics = s.metrics
	deps.Logger = s.logger

	p, err := pipeline.New(pipeline.Config{
		MaxEmails:             s.config.Mail.MaxResults,
		Location:              s.config.Location,
		ResearchThreshold:     s.config.Thresholds.Research,
		NotificationThreshold: s.config.Thresholds.Notification,
		Filters:               s.config.Filters,
	}, deps)
	if err != nil {
		s.fatal("preparing pipeline", err, "check the filters section of the config")
	}
	return p
}

// finish logs per-item failures and exports metrics. A batch error that is
// not an interruption is fatal.
func (s *session) finish(report *pipeline.Report, err error) {
	if report != nil {
		for _, itemErr := range report.Errors {
			s.logger.Warn("item failed", zap.String("stage", report.Stage), zap.Error(itemErr))
		}
	}

	if err := s.metrics.WriteTextfile(s.config.Metrics.Textfile); err != nil {
		s.logger.Warn("writing metrics textfile", zap.Error(err))
	}

	switch {
	case err == nil:
	case s.ctx.Err() != nil:
		s.logger.Warn("interrupted", zap.Error(err))
	default:
		s.fatal("batch failed", err, "")
	}
}
