// Package config loads the YAML configuration of the recipes binaries.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jacentio/recipes/internal/catalog/dynamo"
	"github.com/jacentio/recipes/internal/images"
)

// Catalog storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverDynamo = "dynamo"
)

// Image blob store drivers.
const (
	ImagesMemory = "memory"
	ImagesS3     = "s3"
)

// Server configures the backend API binary.
type Server struct {
	// Listen is the HTTP listen address. Default: ":8080"
	Listen string `yaml:"listen"`

	// Driver selects the catalog storage: memory, sqlite or dynamo. Default: memory
	Driver string `yaml:"driver"`

	SQLite SQLite        `yaml:"sqlite"`
	Dynamo dynamo.Config `yaml:"dynamo"`

	// CreateTables creates missing DynamoDB tables on startup.
	CreateTables bool `yaml:"createTables"`

	Images Images `yaml:"images"`
	CORS   CORS   `yaml:"cors"`
	Log    Log    `yaml:"log"`
}

// SQLite configures the sqlite driver.
type SQLite struct {
	// Path is the database file. Default: "recipes.db"
	Path string `yaml:"path"`
}

// Images configures the image blob store.
type Images struct {
	// Driver is memory or s3. Default: memory
	Driver string          `yaml:"driver"`
	S3     images.S3Config `yaml:"s3"`
}

// CORS lists the origins allowed to call the API from a browser.
type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Log configures the process logger.
type Log struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`
}

// Admin configures the admin UI binary.
type Admin struct {
	// Listen is the HTTP listen address. Default: ":9000"
	Listen string `yaml:"listen"`

	// Backend is the base URL of the API. Default: "http://localhost:8080"
	Backend string `yaml:"backend"`

	// RequestTimeout bounds each API call. Default: 10s
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// SessionIdle is how long an unused admin session is kept. Default: 30m
	SessionIdle time.Duration `yaml:"sessionIdle"`

	Log Log `yaml:"log"`
}

// DefaultServer returns a configuration that runs entirely in memory.
func DefaultServer() Server {
	return Server{
		Listen: ":8080",
		Driver: DriverMemory,
		SQLite: SQLite{Path: "recipes.db"},
		Dynamo: dynamo.DefaultConfig(),
		Images: Images{Driver: ImagesMemory},
		CORS:   CORS{AllowedOrigins: []string{"*"}},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// DefaultAdmin returns a configuration pointing at a local backend.
func DefaultAdmin() Admin {
	return Admin{
		Listen:         ":9000",
		Backend:        "http://localhost:8080",
		RequestTimeout: 10 * time.Second,
		SessionIdle:    30 * time.Minute,
		Log:            Log{Level: "info", Format: "text"},
	}
}

// LoadServer reads path over DefaultServer. An empty path returns the defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := load(path, &cfg); err != nil {
		return Server{}, err
	}
	if err := cfg.validate(); err != nil {
		return Server{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadAdmin reads path over DefaultAdmin. An empty path returns the defaults.
func LoadAdmin(path string) (Admin, error) {
	cfg := DefaultAdmin()
	if err := load(path, &cfg); err != nil {
		return Admin{}, err
	}
	if err := cfg.validate(); err != nil {
		return Admin{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func load(path string, out any) error {
	if path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Unmarshal(content, out)
}

// Unmarshal decodes YAML into out, rejecting unknown keys. An empty document
// leaves out untouched.
func Unmarshal(content []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Server) validate() error {
	switch c.Driver {
	case DriverMemory, DriverSQLite, DriverDynamo:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	switch c.Images.Driver {
	case ImagesMemory:
	case ImagesS3:
		if c.Images.S3.Bucket == "" {
			return errors.New("images.s3.bucket is required")
		}
	default:
		return fmt.Errorf("unknown images driver %q", c.Images.Driver)
	}
	if c.Driver == DriverSQLite && c.SQLite.Path == "" {
		return errors.New("sqlite.path is required")
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	return c.Log.validate()
}

func (c *Admin) validate() error {
	if c.Backend == "" {
		return errors.New("backend is required")
	}
	if c.Listen == "" {
		c.Listen = ":9000"
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}
	if c.SessionIdle <= 0 {
		c.SessionIdle = 30 * time.Minute
	}
	return c.Log.validate()
}
