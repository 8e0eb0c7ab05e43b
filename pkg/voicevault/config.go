package voicevault

import "github.com/himanishpuri/VoiceVault/pkg/voicevault/fingerprint"

type Config struct {
	DBPath    string
	UploadDir string
	TempDir   string
	Coeffs    int
	Logger    Logger
	Catalog   Catalog
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithUploadDir(dir string) Option {
	return func(c *Config) {
		c.UploadDir = dir
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithCoeffs(n int) Option {
	return func(c *Config) {
		c.Coeffs = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithCatalog(catalog Catalog) Option {
	return func(c *Config) {
		c.Catalog = catalog
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:    "voicevault.sqlite3",
		UploadDir: "uploads",
		TempDir:   "/tmp",
		Coeffs:    fingerprint.DefaultCoeffs,
	}
}
