// Package config discovers and loads the single psmux config file (spec
// §6): a sequence of tmux-conf-style command lines fed to source-file, plus
// an optional YAML "options" block for operators who prefer declaring
// server-scope option defaults without writing set-option lines by hand.
//
// Grounded on the teacher's internal/config/config.go: a home-directory
// discovery order (~/.psmux.conf, ~/.psmuxrc, ~/.tmux.conf,
// ~/.config/psmux/psmux.conf) with a temp-dir fallback when the home
// directory cannot be resolved, the same atomic temp-file-plus-rename write with Windows rename retry, and
// the same shell allowlist validation, adapted from a flat GUI-settings
// struct to the line-oriented config spec §6 describes.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle
	// quickly; a short linear backoff covers that without stalling startup.
	renameRetryBaseDelay = 10 * time.Millisecond
)

// allowedShells is the set of permitted shell executables (matched by base
// name, case-insensitive), used to validate a config-supplied "shell" or
// default-shell option before it ever reaches exec.Command.
var allowedShells = map[string]struct{}{
	"powershell.exe": {},
	"pwsh.exe":       {},
	"cmd.exe":        {},
	"bash.exe":       {},
	"wsl.exe":        {},
}

// Config is the parsed result of the discovered config file: a default
// shell, a flat table of bootstrap server-scope options (from an optional
// YAML "options:" block), and the ordered tmux-conf command lines to feed
// through source-file.
type Config struct {
	Shell   string
	Options map[string]string
	Lines   []string
}

// yamlShape is what Load tries to parse the file as first: a YAML document
// with an optional "shell"/"options" map and a "lines" array of further
// commands. Real ~/.tmux.conf files are not YAML and fail this unmarshal;
// Load falls back to treating the whole file as plain command lines.
type yamlShape struct {
	Shell   string            `yaml:"shell"`
	Options map[string]string `yaml:"options"`
	Lines   []string          `yaml:"lines"`
}

// defaultConfigDirFn/userHomeDirFn are test seams.
var defaultConfigDirFn = defaultConfigDir
var userHomeDirFn = os.UserHomeDir

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath()/ResolveConfigPath() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// candidateNames is the config-file discovery order spec §6 names.
var candidateNames = []string{".psmux.conf", ".psmuxrc", ".tmux.conf"}

// ResolveConfigPath implements spec §6's discovery: ~/.psmux.conf,
// ~/.psmuxrc, ~/.tmux.conf, or ~/.config/psmux/psmux.conf, in that order,
// returning the first that exists. If none exist, returns the first
// candidate (~/.psmux.conf) as the path a future EnsureFile/Save should
// create.
func ResolveConfigPath() (string, error) {
	home, err := userHomeDirFn()
	if err != nil {
		slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
		recordDefaultPathWarning("Config path fallback: failed to resolve home directory; using temp directory.")
		home = os.TempDir()
	}
	xdgPath := filepath.Join(home, ".config", "psmux", "psmux.conf")
	candidates := make([]string, 0, len(candidateNames)+1)
	for _, name := range candidateNames {
		candidates = append(candidates, filepath.Join(home, name))
	}
	candidates = append(candidates, xdgPath)

	for _, c := range candidates {
		if info, statErr := os.Stat(c); statErr == nil && !info.IsDir() {
			return c, nil
		}
	}
	return candidates[0], nil
}

// DefaultConfig returns the config applied when no file is found.
func DefaultConfig() Config {
	return Config{
		Shell:   "powershell.exe",
		Options: map[string]string{},
	}
}

// Load reads path (a tmux-conf-style file, or the YAML variant yamlShape
// describes). A missing file yields DefaultConfig with no error -- spec §6
// makes config ingestion optional, never fatal to server startup.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	var shaped yamlShape
	if err := yaml.Unmarshal(raw, &shaped); err == nil && looksLikeYAMLShape(shaped) {
		if shaped.Shell != "" {
			if err := validateShell(shaped.Shell); err != nil {
				slog.Warn("[WARN-CONFIG] ignoring invalid shell", "shell", shaped.Shell, "error", err)
			} else {
				cfg.Shell = shaped.Shell
			}
		}
		if shaped.Options != nil {
			cfg.Options = shaped.Options
		}
		cfg.Lines = filterLines(shaped.Lines)
		return cfg, nil
	}

	cfg.Lines = filterLines(strings.Split(string(raw), "\n"))
	return cfg, nil
}

// looksLikeYAMLShape distinguishes "this file genuinely is the YAML
// variant" from "yaml.Unmarshal silently accepted plain tmux-conf text as
// a zero-value struct" (a bare scalar document, or a mapping that yaml
// happens to tolerate, both unmarshal without error but carry none of
// yamlShape's fields).
func looksLikeYAMLShape(s yamlShape) bool {
	return s.Shell != "" || len(s.Options) > 0 || len(s.Lines) > 0
}

// filterLines drops blank lines and "#"-prefixed comments, trimming
// surrounding whitespace, matching tmux.conf conventions.
func filterLines(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// EnsureFile loads path, writing a default file there first if none exists.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// AllowedShellList returns the permitted shell executable names, sorted.
func AllowedShellList() []string {
	shells := make([]string, 0, len(allowedShells))
	for s := range allowedShells {
		shells = append(shells, s)
	}
	sortStrings(shells)
	return shells
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Save atomically writes cfg back to path in the YAML variant shape, using
// a temp-file-plus-rename so a crash mid-write never leaves a truncated
// config file behind.
func Save(path string, cfg Config) error {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return err
	}
	if cfg.Shell != "" {
		if err := validateShell(cfg.Shell); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}
	raw, err := yaml.Marshal(yamlShape{Shell: cfg.Shell, Options: cfg.Options, Lines: cfg.Lines})
	if err != nil {
		return fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path)
	return nil
}

// atomicWrite writes data using temp-file + rename to avoid partial writes,
// retrying the rename on Windows to tolerate transient antivirus/indexer
// file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// validateConfigPath normalizes path and enforces that writes stay inside
// the resolved config directory, preventing a malformed path from escaping
// it via "..".
func validateConfigPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}

	expectedDir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absoluteExpectedDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteExpectedDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
	}
	return absolutePath, nil
}

func defaultConfigDir() (string, error) {
	home, err := userHomeDirFn()
	if err != nil {
		return "", err
	}
	return home, nil
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// It also rejects Windows cross-drive escapes because filepath.Rel returns
// an absolute path when roots differ.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}

// validateShell ensures a configured shell is safe for process creation: no
// null bytes, base name on the allowlist, and (for absolute paths) the
// executable must exist.
func validateShell(shell string) error {
	shell = strings.TrimSpace(shell)
	if shell == "" {
		return errors.New("shell is required")
	}
	if strings.ContainsRune(shell, '\x00') {
		return errors.New("shell contains invalid null byte")
	}

	baseName := strings.ToLower(filepath.Base(shell))
	if _, ok := allowedShells[baseName]; !ok {
		return fmt.Errorf("shell %q is not in the allowlist", shell)
	}

	if filepath.IsAbs(shell) {
		info, err := os.Stat(shell)
		if err != nil {
			return fmt.Errorf("shell path does not exist: %w", err)
		}
		if info.IsDir() {
			return errors.New("shell path cannot be a directory")
		}
		return nil
	}
	if strings.Contains(shell, `\`) || strings.Contains(shell, "/") {
		return errors.New("shell must be executable name or absolute path")
	}
	return nil
}

// ValidateShell exposes validateShell to callers outside the package (the
// options store, when default-shell is set via set-option).
func ValidateShell(shell string) error { return validateShell(shell) }

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
