//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
//
// RECIPES_E2E_ENDPOINT points the tests at DynamoDB Local; RECIPES_E2E_PROFILE
// selects a shared AWS profile otherwise.
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/internal/catalog/catalogtest"
	"github.com/jacentio/recipes/internal/catalog/dynamo"
	"github.com/jacentio/recipes/model"
	"github.com/jacentio/recipes/stream"
)

// Table names are unique per test run to avoid conflicts.
const tablePrefix = "recipes-e2e-test"

var (
	testID    string
	ddbClient *dynamodb.Client
	tables    []string
)

func tableConfig(suffix string) dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Endpoint = os.Getenv("RECIPES_E2E_ENDPOINT")
	cfg.Profile = os.Getenv("RECIPES_E2E_PROFILE")
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Region = region
	}
	if cfg.Endpoint != "" {
		cfg.AccessKeyID, cfg.SecretAccessKey = "local", "local"
	}
	name := func(table string) string { return fmt.Sprintf("%s-%s-%s-%s", tablePrefix, testID, suffix, table) }
	cfg.AuthorsTable = name("authors")
	cfg.RecipesTable = name("recipes")
	cfg.IngredientsTable = name("ingredients")
	cfg.Store.RelationshipTable = name("relationships")
	cfg.Store.SequenceTable = name("sequences")
	return cfg
}

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	fmt.Printf("Test ID: %s\n", testID)

	ctx := context.Background()
	client, err := dynamo.NewClient(ctx, tableConfig("setup"))
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}
	ddbClient = client

	code := m.Run()

	deleteTables(ctx)
	os.Exit(code)
}

// provision creates a fresh table set and returns its configuration.
func provision(t *testing.T, suffix string) dynamo.Config {
	t.Helper()
	cfg := tableConfig(suffix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := dynamo.EnsureTables(ctx, ddbClient, cfg); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	tables = append(tables, dynamo.TableNames(cfg)...)
	return cfg
}

func deleteTables(ctx context.Context) {
	fmt.Println("Deleting test tables...")
	for _, name := range tables {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(name),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", name, err)
		}
	}
	fmt.Println("Tables deleted")
}

// --- Contract ---

func TestContract(t *testing.T) {
	n := 0
	catalogtest.Run(t, func(t *testing.T) catalog.Backend {
		n++
		return dynamo.New(ddbClient, provision(t, strconv.Itoa(n)), nil)
	})
}

// --- Stream Cascade ---

// TestStreamCascade deletes with inline cascades off and replays the stream
// record DynamoDB would emit for the expired recipe.
func TestStreamCascade(t *testing.T) {
	ctx := context.Background()
	cfg := provision(t, "stream")
	cfg.Store.InlineCascade = false
	db := dynamo.New(ddbClient, cfg, nil)

	r, err := db.Recipes().Insert(ctx, model.Recipe{Title: "bread"})
	if err != nil {
		t.Fatalf("insert recipe: %v", err)
	}
	i, err := db.Ingredients().Insert(ctx, model.Ingredient{Name: "flour", Recipe: &model.Recipe{ID: r.ID}})
	if err != nil {
		t.Fatalf("insert ingredient: %v", err)
	}

	if err := db.Recipes().Delete(ctx, r.ID, true); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	// without the stream the ingredient is still visible
	if _, err := db.Ingredients().Get(ctx, i.ID); err != nil {
		t.Fatalf("expected ingredient before the stream runs, got %v", err)
	}

	ttl := strconv.FormatInt(time.Now().Unix(), 10)
	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{{
		EventID:   "1",
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			SequenceNumber: "1",
			OldImage:       map[string]events.DynamoDBAttributeValue{},
			NewImage: map[string]events.DynamoDBAttributeValue{
				"entity_ref": events.NewStringAttribute("recipe#" + strconv.FormatInt(r.ID, 10)),
				"ttl":        events.NewNumberAttribute(ttl),
			},
		},
	}}}

	h := stream.NewHandler(db.Store(), nil)
	if err := h.HandleCascadeDelete(ctx, event); err != nil {
		t.Fatalf("HandleCascadeDelete failed: %v", err)
	}

	if _, err := db.Ingredients().Get(ctx, i.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ingredient to be expired by the cascade, got %v", err)
	}
}

// --- Concurrency ---

func TestConcurrentReplace_OneWins(t *testing.T) {
	ctx := context.Background()
	db := dynamo.New(ddbClient, provision(t, "race"), nil)

	a, err := db.Authors().Insert(ctx, model.Author{Name: "julia"})
	if err != nil {
		t.Fatalf("insert author: %v", err)
	}

	errs := make(chan error, 8)
	for n := 0; n < 8; n++ {
		go func(n int) {
			_, err := db.Authors().Replace(ctx, model.Author{ID: a.ID, Name: fmt.Sprintf("julia-%d", n)})
			errs <- err
		}(n)
	}

	ok := 0
	for n := 0; n < 8; n++ {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, catalog.ErrConcurrentModification):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok == 0 {
		t.Error("expected at least one replace to succeed")
	}
}
