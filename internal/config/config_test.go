package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jacentio/recipes/internal/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadServer_Defaults(t *testing.T) {
	cfg, err := config.LoadServer("")
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.Listen != ":8080" || cfg.Driver != config.DriverMemory || cfg.Images.Driver != config.ImagesMemory {
		t.Errorf("LoadServer(\"\") = %+v", cfg)
	}
	if cfg.Dynamo.AuthorsTable != "recipes_authors" {
		t.Errorf("Dynamo.AuthorsTable = %q", cfg.Dynamo.AuthorsTable)
	}
}

func TestLoadServer_File(t *testing.T) {
	path := writeFile(t, `
listen: ":9090"
driver: dynamo
createTables: true
dynamo:
  endpoint: http://localhost:8000
  recipesTable: dev_recipes
  store:
    numShards: 8
images:
  driver: s3
  s3:
    bucket: pictures
    pathStyle: true
cors:
  allowedOrigins: ["http://localhost:9000"]
log:
  level: debug
  format: json
`)
	cfg, err := config.LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}

	if cfg.Listen != ":9090" || cfg.Driver != config.DriverDynamo || !cfg.CreateTables {
		t.Errorf("top level = %+v", cfg)
	}
	if cfg.Dynamo.Endpoint != "http://localhost:8000" || cfg.Dynamo.RecipesTable != "dev_recipes" {
		t.Errorf("Dynamo = %+v", cfg.Dynamo)
	}
	// unset keys keep their defaults
	if cfg.Dynamo.AuthorsTable != "recipes_authors" || !cfg.Dynamo.Store.InlineCascade {
		t.Errorf("Dynamo defaults lost: %+v", cfg.Dynamo)
	}
	if cfg.Dynamo.Store.NumShards != 8 {
		t.Errorf("NumShards = %d, want 8", cfg.Dynamo.Store.NumShards)
	}
	if cfg.Images.S3.Bucket != "pictures" || !cfg.Images.S3.PathStyle {
		t.Errorf("Images = %+v", cfg.Images)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:9000" {
		t.Errorf("CORS = %+v", cfg.CORS)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadServer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown driver", "driver: postgres\n", "unknown driver"},
		{"unknown key", "listne: \":1\"\n", "listne"},
		{"s3 without bucket", "images:\n  driver: s3\n", "bucket"},
		{"unknown images driver", "images:\n  driver: disk\n", "images driver"},
		{"bad log level", "log:\n  level: loud\n", "log level"},
		{"bad log format", "log:\n  format: xml\n", "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadServer(writeFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadServer() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadServer_MissingFile(t *testing.T) {
	if _, err := config.LoadServer(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadServer() error = nil, want error")
	}
}

func TestLoadAdmin(t *testing.T) {
	path := writeFile(t, `
backend: http://api.internal:8080
requestTimeout: 3s
sessionIdle: 0s
`)
	cfg, err := config.LoadAdmin(path)
	if err != nil {
		t.Fatalf("LoadAdmin() error = %v", err)
	}
	if cfg.Backend != "http://api.internal:8080" || cfg.RequestTimeout != 3*time.Second {
		t.Errorf("LoadAdmin() = %+v", cfg)
	}
	if cfg.SessionIdle != 30*time.Minute {
		t.Errorf("SessionIdle = %v, want default 30m", cfg.SessionIdle)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q, want :9000", cfg.Listen)
	}

	if _, err := config.LoadAdmin(writeFile(t, "backend: \"\"\n")); err == nil {
		t.Error("LoadAdmin(empty backend) error = nil, want error")
	}
}

func TestUnmarshal_EmptyDocument(t *testing.T) {
	cfg := config.DefaultAdmin()
	if err := config.Unmarshal(nil, &cfg); err != nil {
		t.Fatalf("Unmarshal(nil) error = %v", err)
	}
	if cfg != config.DefaultAdmin() {
		t.Errorf("Unmarshal(nil) changed config: %+v", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		log    config.Log
		want   string
		wantOK bool
	}{
		{"json", config.Log{Level: "info", Format: "json"}, `"msg":"hello"`, true},
		{"text", config.Log{Level: "debug", Format: "text"}, "msg=hello", true},
		{"filtered", config.Log{Level: "error", Format: "text"}, "", true},
		{"bad level", config.Log{Level: "chatty"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := config.NewLogger(&buf, tt.log)
			if (err == nil) != tt.wantOK {
				t.Fatalf("NewLogger() error = %v, wantOK %v", err, tt.wantOK)
			}
			if err != nil {
				return
			}
			logger.Info("hello")
			if tt.want == "" && buf.Len() != 0 {
				t.Errorf("output = %q, want none", buf.String())
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want containing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestCascadeFromEnv(t *testing.T) {
	env := map[string]string{
		"RECIPES_REGION":             "eu-west-1",
		"RECIPES_RELATIONSHIP_TABLE": "prod_relationships",
		"RECIPES_NUM_SHARDS":         "16",
		"RECIPES_BATCH_FAILURES":     "false",
	}
	cfg, err := config.CascadeFromEnv(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("CascadeFromEnv() error = %v", err)
	}
	if cfg.Dynamo.Region != "eu-west-1" || cfg.Dynamo.Store.RelationshipTable != "prod_relationships" {
		t.Errorf("Dynamo = %+v", cfg.Dynamo)
	}
	if cfg.Dynamo.Store.NumShards != 16 || cfg.Batch {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}

	bad := map[string]string{"RECIPES_NUM_SHARDS": "many"}
	if _, err := config.CascadeFromEnv(func(k string) string { return bad[k] }); err == nil {
		t.Error("CascadeFromEnv(bad shards) error = nil, want error")
	}
}
