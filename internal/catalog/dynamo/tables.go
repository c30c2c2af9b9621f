package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/recipes/store"
)

// TableAPI is the subset of the DynamoDB client used to provision tables.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	UpdateTimeToLive(ctx context.Context, params *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// TableNames lists every table the backend uses: the three entity tables,
// then the relationship and sequence tables.
func TableNames(cfg Config) []string {
	cfg.validate()
	def := store.DefaultConfig()
	rel, seq := cfg.Store.RelationshipTable, cfg.Store.SequenceTable
	if rel == "" {
		rel = def.RelationshipTable
	}
	if seq == "" {
		seq = def.SequenceTable
	}
	return []string{cfg.AuthorsTable, cfg.RecipesTable, cfg.IngredientsTable, rel, seq}
}

// EnsureTables creates any missing table and waits until all are active.
// Entity tables stream old and new images for the cascade handler and expire
// items by their ttl attribute.
func EnsureTables(ctx context.Context, client TableAPI, cfg Config) error {
	names := TableNames(cfg)
	entityTables := names[:3]
	relationshipTable, sequenceTable := names[3], names[4]

	for _, name := range entityTables {
		err := createIfMissing(ctx, client, &dynamodb.CreateTableInput{
			TableName: aws.String(name),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeN},
			},
			BillingMode: types.BillingModePayPerRequest,
			StreamSpecification: &types.StreamSpecification{
				StreamEnabled:  aws.Bool(true),
				StreamViewType: types.StreamViewTypeNewAndOldImages,
			},
		}, true)
		if err != nil {
			return err
		}
	}

	err := createIfMissing(ctx, client, &dynamodb.CreateTableInput{
		TableName: aws.String(relationshipTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("child_ref"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("child_ref"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	}, true)
	if err != nil {
		return err
	}

	err = createIfMissing(ctx, client, &dynamodb.CreateTableInput{
		TableName: aws.String(sequenceTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("entity_type"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("entity_type"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	}, false)
	if err != nil {
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	for _, name := range names {
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", name, err)
		}
	}
	return nil
}

func createIfMissing(ctx context.Context, client TableAPI, in *dynamodb.CreateTableInput, ttl bool) error {
	name := aws.ToString(in.TableName)
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", name, err)
	}

	if _, err := client.CreateTable(ctx, in); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if !ttl {
		return nil
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", name, err)
	}
	_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: in.TableName,
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("ttl"),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("enable ttl on %s: %w", name, err)
	}
	return nil
}
