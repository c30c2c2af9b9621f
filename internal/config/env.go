package config

import (
	"fmt"
	"strconv"

	"github.com/jacentio/recipes/internal/catalog/dynamo"
)

// Cascade configures the stream handler Lambda, which has no config file.
type Cascade struct {
	Dynamo dynamo.Config
	Log    Log

	// Batch reports failed records individually instead of failing the invocation.
	Batch bool
}

// CascadeFromEnv reads RECIPES_* variables through getenv, usually os.Getenv.
//
//	RECIPES_REGION, RECIPES_DYNAMO_ENDPOINT
//	RECIPES_RELATIONSHIP_TABLE, RECIPES_NUM_SHARDS
//	RECIPES_BATCH_FAILURES=true|false (default true)
//	RECIPES_LOG_LEVEL, RECIPES_LOG_FORMAT (default json)
func CascadeFromEnv(getenv func(string) string) (Cascade, error) {
	cfg := Cascade{
		Dynamo: dynamo.DefaultConfig(),
		Log:    Log{Level: "info", Format: "json"},
		Batch:  true,
	}

	if v := getenv("RECIPES_REGION"); v != "" {
		cfg.Dynamo.Region = v
	}
	if v := getenv("RECIPES_DYNAMO_ENDPOINT"); v != "" {
		cfg.Dynamo.Endpoint = v
	}
	if v := getenv("RECIPES_RELATIONSHIP_TABLE"); v != "" {
		cfg.Dynamo.Store.RelationshipTable = v
	}
	if v := getenv("RECIPES_NUM_SHARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Cascade{}, fmt.Errorf("RECIPES_NUM_SHARDS: %w", err)
		}
		cfg.Dynamo.Store.NumShards = n
	}
	if v := getenv("RECIPES_BATCH_FAILURES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Cascade{}, fmt.Errorf("RECIPES_BATCH_FAILURES: %w", err)
		}
		cfg.Batch = b
	}
	if v := getenv("RECIPES_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("RECIPES_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if err := cfg.Log.validate(); err != nil {
		return Cascade{}, err
	}
	return cfg, nil
}
