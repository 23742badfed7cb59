// Package register adds the libindex MCP server to a Claude configuration file.
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lexandro/libindex-mcp/library"
)

// Scopes accepted by Register.
const (
	ScopeProject = "project"
	ScopeUser    = "user"
)

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Options describes one registration.
type Options struct {
	Scope string
	// Directory receives .mcp.json for project scope. Defaults to ".".
	Directory string
	// LibraryRoot is passed to the server as --root. Defaults to Directory for
	// project scope and the working directory for user scope.
	LibraryRoot string
	ServerName  string
	// BinaryPath defaults to the running executable.
	BinaryPath string
	// ServerArgs are appended after the serve command.
	ServerArgs []string
}

// Register writes the server entry and returns the config file it updated.
func Register(options Options) (string, error) {
	if options.Scope != ScopeProject && options.Scope != ScopeUser {
		return "", fmt.Errorf("unknown scope %q (must be %q or %q)", options.Scope, ScopeProject, ScopeUser)
	}
	if options.Directory == "" {
		options.Directory = "."
	}
	if options.ServerName == "" {
		options.ServerName = "libindex"
	}

	binaryPath := options.BinaryPath
	if binaryPath == "" {
		detected, err := detectBinaryPath()
		if err != nil {
			return "", err
		}
		binaryPath = detected
	}

	root, err := libraryRoot(options)
	if err != nil {
		return "", err
	}

	configPath, err := resolveConfigPath(options.Scope, options.Directory)
	if err != nil {
		return "", err
	}

	serverArgs := append([]string{"serve", "--root", root}, options.ServerArgs...)
	if err := writeConfig(configPath, options.ServerName, buildEntry(binaryPath, serverArgs)); err != nil {
		return "", err
	}
	return configPath, nil
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

func libraryRoot(options Options) (string, error) {
	root := options.LibraryRoot
	if root == "" && options.Scope == ScopeProject {
		root = options.Directory
	}
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving library root %s: %w", root, err)
	}
	return absRoot, nil
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope string, directory string) (string, error) {
	if scope == ScopeProject {
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

func buildEntry(binaryPath string, serverArgs []string) mcpServerEntry {
	if runtime.GOOS == "windows" {
		args := []string{"/C", binaryPath}
		args = append(args, serverArgs...)
		return mcpServerEntry{
			Command: "cmd",
			Args:    args,
		}
	}
	return mcpServerEntry{
		Command: binaryPath,
		Args:    serverArgs,
	}
}

// writeConfig adds or replaces one entry under mcpServers, keeping every other key.
func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	config := map[string]interface{}{
		"mcpServers": map[string]interface{}{},
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"]
	if !ok {
		servers = map[string]interface{}{}
		config["mcpServers"] = servers
	}

	serversMap, ok := servers.(map[string]interface{})
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return library.WriteFileAtomic(configPath, append(output, '\n'))
}
