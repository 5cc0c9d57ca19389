// Package config loads the process-wide settings the tool loop and the
// built-in tools consume: API credentials, model selection, the web-search
// provider preference, the web_fetch URL-prefix allowlist, and the debug
// levels. Settings come from the environment first, with an optional JSON
// file layered underneath, found by walking from the working directory up
// to $HOME and accepted only when owner-read/write-only.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultConfigFilename is the JSON file looked up in the working
// directory, its parents up to $HOME, and finally $HOME itself.
const DefaultConfigFilename = ".aicli.json"

// Config is the resolved settings set. Environment variables win over the
// config file; the file only fills fields the environment left empty.
type Config struct {
	APIKey  string `json:"openai_api_key,omitempty"`
	BaseURL string `json:"openai_base_url,omitempty"`
	Model   string `json:"model,omitempty"`

	SearchProvider string `json:"search_provider,omitempty"` // auto|google_cse|brave
	GoogleAPIKey   string `json:"google_api_key,omitempty"`
	GoogleCX       string `json:"google_cse_cx,omitempty"`
	BraveAPIKey    string `json:"brave_api_key,omitempty"`

	WebFetchPrefixes       []string `json:"web_fetch_prefixes,omitempty"`
	DebugWebFetchAllowlist bool     `json:"-"`

	// Debug levels: 0 silent, 1 summaries, 2 truncated bodies, 3+ verbose.
	DebugAPI          int `json:"-"`
	DebugFunctionCall int `json:"-"`
}

// FromEnv builds a Config from the environment alone.
func FromEnv() Config {
	return Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("AICLI_MODEL"),

		SearchProvider: os.Getenv("AICLI_SEARCH_PROVIDER"),
		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		GoogleCX:       os.Getenv("GOOGLE_CSE_CX"),
		BraveAPIKey:    os.Getenv("BRAVE_API_KEY"),

		WebFetchPrefixes:       ParsePrefixes(os.Getenv("AICLI_WEB_FETCH_PREFIXES")),
		DebugWebFetchAllowlist: os.Getenv("AICLI_DEBUG_WEB_FETCH_ALLOWLIST") != "",

		DebugAPI:          envInt("AICLI_DEBUG_API"),
		DebugFunctionCall: envInt("AICLI_DEBUG_FUNCTION_CALL"),
	}
}

func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParsePrefixes splits AICLI_WEB_FETCH_PREFIXES on commas and whitespace,
// dropping empty entries.
func ParsePrefixes(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Load resolves the full configuration: environment first, then the
// nearest secure config file for any fields the environment left empty.
// A missing or insecure file is not an error; the environment alone is a
// complete configuration.
func Load() (Config, error) {
	cfg := FromEnv()

	path, found := FindConfigFile()
	if !found {
		return cfg, nil
	}
	fileCfg, err := ReadConfigFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	cfg.merge(fileCfg)
	return cfg, nil
}

// merge fills empty fields of cfg from file-sourced values. Environment
// always wins.
func (c *Config) merge(file Config) {
	if c.APIKey == "" {
		c.APIKey = file.APIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = file.BaseURL
	}
	if c.Model == "" {
		c.Model = file.Model
	}
	if c.SearchProvider == "" {
		c.SearchProvider = file.SearchProvider
	}
	if c.GoogleAPIKey == "" {
		c.GoogleAPIKey = file.GoogleAPIKey
	}
	if c.GoogleCX == "" {
		c.GoogleCX = file.GoogleCX
	}
	if c.BraveAPIKey == "" {
		c.BraveAPIKey = file.BraveAPIKey
	}
	if len(c.WebFetchPrefixes) == 0 {
		c.WebFetchPrefixes = file.WebFetchPrefixes
	}
}

// ReadConfigFile parses one JSON config file. The file is capped at 1 MiB,
// like every other whole-file read in this codebase.
func ReadConfigFile(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.Size() > 1<<20 {
		return Config{}, fmt.Errorf("config file too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	return cfg, nil
}

// FindConfigFile walks from the working directory up to $HOME (inclusive)
// looking for DefaultConfigFilename, then falls back to $HOME itself when
// the working directory lives outside $HOME. Only a regular file with no
// group/other access is accepted — the file may hold API keys.
func FindConfigFile() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", false
	}
	cwd, err := os.Getwd()
	if err != nil {
		return findInDir(home)
	}
	cwd, err = filepath.EvalSymlinks(cwd)
	if err != nil || !pathIsUnder(cwd, home) {
		return findInDir(home)
	}

	for dir := cwd; ; {
		if path, ok := findInDir(dir); ok {
			return path, true
		}
		if dir == home || dir == "/" {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir || !pathIsUnder(parent, home) {
			break
		}
		dir = parent
	}
	return findInDir(home)
}

func findInDir(dir string) (string, bool) {
	path := filepath.Join(dir, DefaultConfigFilename)
	if !isSecureConfigPath(path) {
		return "", false
	}
	return path, true
}

func isSecureConfigPath(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	// Reject any group/other access; the file may hold secrets.
	return info.Mode().Perm()&0o077 == 0
}

func pathIsUnder(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
