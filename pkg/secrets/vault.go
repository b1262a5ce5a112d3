// Package secrets loads deployment secrets (API keys, database passwords)
// from a Vault KV engine into the process environment before config.Load
// reads it.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/geosight/dashboard/pkg/retry"
	"github.com/rs/zerolog/log"
)

// ErrIncomplete is returned when Vault is enabled without an address, token
// or path.
var ErrIncomplete = errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")

type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	// Overwrite lets Vault values replace variables that are already set
	Overwrite bool
	// Keys restricts which secrets are exported. Empty exports all.
	Keys []string

	HTTPClient *http.Client
	Retry      retry.Config
}

type VaultResult struct {
	Enabled bool
	Path    string
	Loaded  int
	Skipped int
}

// LoadVaultConfigFromEnv reads VAULT_* variables. pathOverride wins over
// VAULT_PATH when set.
func LoadVaultConfigFromEnv(pathOverride string) VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     envOr("VAULT_MOUNT", "secret"),
		Path:      pathOverride,
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if cfg.Path == "" {
		cfg.Path = os.Getenv("VAULT_PATH")
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		cfg.KVVersion = v
	}
	if ms, err := strconv.Atoi(os.Getenv("VAULT_TIMEOUT_MS")); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	for _, k := range strings.Split(os.Getenv("VAULT_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			cfg.Keys = append(cfg.Keys, k)
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ApplyVaultSecrets fetches the configured secret and exports every field
// as an environment variable. Names are upper-cased with dashes turned into
// underscores, so "gemini-api-key" becomes GEMINI_API_KEY.
func ApplyVaultSecrets(ctx context.Context, cfg VaultConfig) (VaultResult, error) {
	res := VaultResult{Enabled: cfg.Enabled, Path: cfg.Path}
	if !cfg.Enabled {
		return res, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return res, ErrIncomplete
	}

	values, err := Fetch(ctx, cfg)
	if err != nil {
		return res, err
	}

	allowed := make(map[string]bool, len(cfg.Keys))
	for _, k := range cfg.Keys {
		allowed[envName(k)] = true
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := envName(name)
		if len(allowed) > 0 && !allowed[key] {
			continue
		}
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped++
			continue
		}
		if err := os.Setenv(key, values[name]); err != nil {
			return res, fmt.Errorf("failed to export %s: %w", key, err)
		}
		res.Loaded++
	}
	return res, nil
}

func envName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

// kvResponse covers both engine versions: v1 puts fields in data, v2 nests
// them in data.data next to metadata.
type kvResponse struct {
	Data json.RawMessage `json:"data"`
}

type kvV2Data struct {
	Data map[string]interface{} `json:"data"`
}

// Fetch reads one secret and returns its fields as strings. Transport
// failures and 5xx answers are retried.
func Fetch(ctx context.Context, cfg VaultConfig) (map[string]string, error) {
	endpoint, err := secretURL(cfg)
	if err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.Config{
			MaxAttempts:     3,
			InitialDelay:    200 * time.Millisecond,
			MaxDelay:        2 * time.Second,
			BackoffFactor:   2.0,
			MaxTotalTimeout: 15 * time.Second,
		}
	}

	var body kvResponse
	err = retry.DoWithLog(ctx, retryCfg, "vault", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("X-Vault-Token", cfg.Token)
		if cfg.Namespace != "" {
			req.Header.Set("X-Vault-Namespace", cfg.Namespace)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("vault returned status %d", resp.StatusCode)
		case resp.StatusCode == http.StatusNotFound:
			return retry.Permanent(fmt.Errorf("vault secret %s/%s not found", cfg.Mount, cfg.Path))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return retry.Permanent(fmt.Errorf("vault fetch failed: %s", resp.Status))
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode vault response: %w", err))
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("Vault request failed, retrying")
	})
	if err != nil {
		return nil, err
	}

	fields, err := decodeFields(body.Data, cfg.KVVersion)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = stringify(v)
	}
	return out, nil
}

func secretURL(cfg VaultConfig) (string, error) {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.Trim(cfg.Path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if cfg.KVVersion == 1 {
		return addr + "/v1/" + mount + "/" + path, nil
	}
	return addr + "/v1/" + mount + "/data/" + path, nil
}

func decodeFields(raw json.RawMessage, kvVersion int) (map[string]interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("vault response missing data for KV v%d", kvVersion)
	}
	if kvVersion == 1 {
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("invalid KV v1 data: %w", err)
		}
		return fields, nil
	}

	var v2 kvV2Data
	if err := json.Unmarshal(raw, &v2); err != nil {
		return nil, fmt.Errorf("invalid KV v2 data: %w", err)
	}
	if v2.Data == nil {
		return nil, errors.New("vault response missing data for KV v2")
	}
	return v2.Data, nil
}

// stringify renders JSON scalars as their plain text and anything nested
// as compact JSON.
func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
