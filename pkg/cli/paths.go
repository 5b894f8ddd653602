package cli

import (
	"os"
	"path/filepath"
)

// DefaultConfigFile is the config file name inside the app directory.
const DefaultConfigFile = "config.yaml"

// Paths provides access to the app's directory structure.
type Paths struct {
	// AppName is the application name
	AppName string

	// ConfigDir is the user's configuration root
	ConfigDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppName: appName, ConfigDir: dir}, nil
}

// AppDir returns the app-specific directory (<config>/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.ConfigDir, p.AppName)
}

// ConfigFile returns the config file path (<config>/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// CacheDir returns the cache directory (<config>/<app>/cache)
func (p *Paths) CacheDir() string {
	return filepath.Join(p.AppDir(), "cache")
}

// EnsureAppDir creates the app directory if it doesn't exist
func (p *Paths) EnsureAppDir() error {
	return os.MkdirAll(p.AppDir(), 0755)
}
