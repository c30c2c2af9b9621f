package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/recipes/internal/shard"
)

// Store provides DynamoDB operations with hierarchical entity support.
type Store struct {
	client   DynamoDBAPI
	config   Config
	registry *Registry
	now      func() time.Time
}

// New creates a new Store instance.
func New(client DynamoDBAPI, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// NewWithRegistry creates a new Store instance with a relationship registry.
func NewWithRegistry(client DynamoDBAPI, config Config, registry *Registry) *Store {
	s := New(client, config)
	s.registry = registry
	return s
}

// SetRegistry sets the relationship registry used for orphan checks.
func (s *Store) SetRegistry(registry *Registry) {
	s.registry = registry
}

// Registry returns the relationship registry, or nil if not set.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// relationshipPK computes the sharded partition key for a relationship record.
func (s *Store) relationshipPK(parentRef, childRef string) string {
	return shard.RelationshipPK(parentRef, childRef, s.config.NumShards)
}

// managedAttrs are maintained by the store and never taken from caller items on update.
var managedAttrs = map[string]bool{
	"id":         true,
	"entity_ref": true,
	"parent_ref": true,
	"version":    true,
	"created_at": true,
	"updated_at": true,
	"ttl":        true,
}

// Create creates a new entity with parent validation.
func (s *Store) Create(ctx context.Context, entity Entity, item map[string]types.AttributeValue) error {
	items := []types.TransactWriteItem{}
	now := s.now()
	nowISO := now.UTC().Format(time.RFC3339)

	// Track item indices for error mapping
	parentCheckIndex := -1
	entityPutIndex := -1

	var parentRef string
	if checker, ok := entity.(ParentChecker); ok {
		parentRef = checker.ParentRef()
		if check := checker.ParentCheck(); check != nil {
			parentCheckIndex = len(items)
			items = append(items, s.parentConditionCheck(check, now.Unix()))
		}
	}

	item["entity_ref"] = &types.AttributeValueMemberS{Value: entity.EntityRef()}
	item["version"] = &types.AttributeValueMemberN{Value: "1"}
	item["created_at"] = &types.AttributeValueMemberS{Value: nowISO}
	item["updated_at"] = &types.AttributeValueMemberS{Value: nowISO}
	if parentRef != "" {
		item["parent_ref"] = &types.AttributeValueMemberS{Value: parentRef}
	}

	entityPutIndex = len(items)
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(entity.TableName()),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		},
	})

	if parentRef != "" {
		items = append(items, s.relationshipPut(entity, parentRef))
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})

	return mapTransactionError(err, parentCheckIndex, entityPutIndex, ErrAlreadyExists)
}

// Get retrieves an entity by key, returning ErrNotFound if deleted or missing.
func (s *Store) Get(ctx context.Context, table string, key PK) (*Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	if isDeletedAt(result.Item, s.now().Unix()) {
		return nil, ErrNotFound
	}

	return unmarshalItem(result.Item), nil
}

// Scan returns every active entity in table.
func (s *Store) Scan(ctx context.Context, table string) ([]*Item, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(table),
		FilterExpression:          aws.String(TTLFilterExpr()),
		ExpressionAttributeNames:  TTLFilterNames(),
		ExpressionAttributeValues: TTLFilterValues(s.now().Unix()),
	})

	var items []*Item
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			items = append(items, unmarshalItem(raw))
		}
	}
	return items, nil
}

// Update replaces the caller attributes of an entity with optimistic locking.
// If the entity implements ParentChecker and its parent changed, the
// relationship record is moved and the new parent validated in one transaction.
func (s *Store) Update(ctx context.Context, entity Entity, item map[string]types.AttributeValue, expectedVersion int64) error {
	pc, hasParent := entity.(ParentChecker)
	if !hasParent {
		return s.updateSimple(ctx, entity, item, expectedVersion)
	}

	current, err := s.Get(ctx, entity.TableName(), entity.GetKey())
	if err != nil {
		return err
	}
	if current.ParentRef == pc.ParentRef() {
		return s.updateSimple(ctx, entity, item, expectedVersion)
	}
	return s.updateWithReparent(ctx, entity, item, expectedVersion, current.ParentRef, pc)
}

// updateExpression collects the SET clauses for caller attributes plus the managed fields.
type updateExpression struct {
	set    []string
	remove []string
	names  map[string]string
	values map[string]types.AttributeValue
}

func (s *Store) newUpdateExpression(item map[string]types.AttributeValue, expectedVersion int64) *updateExpression {
	u := &updateExpression{
		names: map[string]string{
			"#updated_at": "updated_at",
			"#version":    "version",
			"#ttl":        "ttl",
		},
		values: map[string]types.AttributeValue{
			":updated_at":       &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
			":one":              &types.AttributeValueMemberN{Value: "1"},
			":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		},
	}

	i := 0
	for k, v := range item {
		if managedAttrs[k] {
			continue
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		u.names[nameKey] = k
		u.values[valueKey] = v
		u.set = append(u.set, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	u.set = append(u.set, "#updated_at = :updated_at", "#version = #version + :one")
	return u
}

func (u *updateExpression) String() string {
	expr := "SET " + strings.Join(u.set, ", ")
	if len(u.remove) > 0 {
		expr += " REMOVE " + strings.Join(u.remove, ", ")
	}
	return expr
}

const versionCondition = "#version = :expected_version AND attribute_not_exists(#ttl)"

// updateSimple performs an update that leaves the relationship table untouched.
func (s *Store) updateSimple(ctx context.Context, entity Entity, item map[string]types.AttributeValue, expectedVersion int64) error {
	u := s.newUpdateExpression(item, expectedVersion)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(entity.TableName()),
		Key:                       entity.GetKey(),
		UpdateExpression:          aws.String(u.String()),
		ConditionExpression:       aws.String(versionCondition),
		ExpressionAttributeNames:  u.names,
		ExpressionAttributeValues: u.values,
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return err
	}
	return nil
}

// updateWithReparent moves an entity from oldParentRef to its new parent.
func (s *Store) updateWithReparent(ctx context.Context, entity Entity, item map[string]types.AttributeValue, expectedVersion int64, oldParentRef string, pc ParentChecker) error {
	items := []types.TransactWriteItem{}
	newParentRef := pc.ParentRef()
	parentCheckIndex := -1

	if check := pc.ParentCheck(); check != nil && newParentRef != "" {
		parentCheckIndex = len(items)
		items = append(items, s.parentConditionCheck(check, s.now().Unix()))
	}

	if oldParentRef != "" {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.config.RelationshipTable),
				Key: map[string]types.AttributeValue{
					"pk":        &types.AttributeValueMemberS{Value: s.relationshipPK(oldParentRef, entity.EntityRef())},
					"child_ref": &types.AttributeValueMemberS{Value: entity.EntityRef()},
				},
			},
		})
	}
	if newParentRef != "" {
		items = append(items, s.relationshipPut(entity, newParentRef))
	}

	u := s.newUpdateExpression(item, expectedVersion)
	u.names["#parent_ref"] = "parent_ref"
	if newParentRef != "" {
		u.values[":parent_ref"] = &types.AttributeValueMemberS{Value: newParentRef}
		u.set = append(u.set, "#parent_ref = :parent_ref")
	} else {
		u.remove = append(u.remove, "#parent_ref")
	}

	entityUpdateIndex := len(items)
	items = append(items, types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(entity.TableName()),
			Key:                       entity.GetKey(),
			UpdateExpression:          aws.String(u.String()),
			ConditionExpression:       aws.String(versionCondition),
			ExpressionAttributeNames:  u.names,
			ExpressionAttributeValues: u.values,
		},
	})

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})

	return mapTransactionError(err, parentCheckIndex, entityUpdateIndex, ErrConcurrentModification)
}

// DeleteOptions configures delete behavior.
type DeleteOptions struct {
	// Cascade enables cascading delete of children via TTL.
	Cascade bool

	// OrphanProtect fails the delete if active children exist.
	OrphanProtect bool
}

// Delete deletes an entity by setting its TTL. The entity's own relationship
// record expires with it so the parent can be deleted afterwards.
func (s *Store) Delete(ctx context.Context, entity Entity, opts DeleteOptions) error {
	if opts.OrphanProtect && !opts.Cascade && s.mayHaveChildren(entity.EntityType()) {
		hasChildren, err := s.HasActiveChildren(ctx, entity.EntityRef())
		if err != nil {
			return err
		}
		if hasChildren {
			return ErrHasChildren
		}
	}

	ttl := s.now().Unix()
	if err := s.SetTTLByKey(ctx, entity.TableName(), entity.GetKey(), ttl); err != nil {
		return err
	}

	if pc, ok := entity.(ParentChecker); ok && pc.ParentRef() != "" {
		if err := s.SetRelationshipTTL(ctx, entity.EntityRef(), pc.ParentRef(), ttl); err != nil {
			return fmt.Errorf("expire relationship: %w", err)
		}
	}

	if opts.Cascade && s.config.InlineCascade {
		return s.cascade(ctx, entity.EntityRef(), ttl)
	}
	return nil
}

func (s *Store) mayHaveChildren(entityType string) bool {
	if s.registry == nil {
		return true
	}
	return s.registry.HasChildren(entityType)
}

// cascade propagates ttl to every descendant of parentRef.
func (s *Store) cascade(ctx context.Context, parentRef string, ttl int64) error {
	children, err := s.QueryAllChildren(ctx, parentRef)
	if err != nil {
		return fmt.Errorf("query children of %s: %w", parentRef, err)
	}
	for _, child := range children {
		if err := s.SetTTLByKey(ctx, child.TableName, child.Key, ttl); err != nil {
			return fmt.Errorf("cascade %s: %w", child.Ref, err)
		}
		if err := s.SetRelationshipTTL(ctx, child.Ref, parentRef, ttl); err != nil {
			return fmt.Errorf("cascade %s: %w", child.Ref, err)
		}
		if err := s.cascade(ctx, child.Ref, ttl); err != nil {
			return err
		}
	}
	return nil
}

// HasActiveChildren checks if an entity has any active (non-deleted) children.
func (s *Store) HasActiveChildren(ctx context.Context, entityRef string) (bool, error) {
	now := s.now().Unix()
	keys := shard.Keys(entityRef, s.config.NumShards)
	numShards := len(keys)

	if numShards == 1 {
		return s.hasActiveChildrenInShard(ctx, keys[0], now)
	}

	// Multi-shard fan-out with early cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan bool, 1)
	errs := make(chan error, numShards)
	var wg sync.WaitGroup

	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			default:
			}

			has, err := s.hasActiveChildrenInShard(ctx, key, now)
			if err != nil {
				errs <- err
				return
			}
			if has {
				select {
				case found <- true:
					cancel()
				default:
				}
			}
		}(key)
	}

	go func() {
		wg.Wait()
		close(found)
		close(errs)
	}()

	select {
	case ok := <-found:
		if ok {
			return true, nil
		}
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			return false, err
		}
	}

	for err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return false, err
		}
	}
	for ok := range found {
		if ok {
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) hasActiveChildrenInShard(ctx context.Context, shardPK string, now int64) (bool, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(s.config.RelationshipTable),
		KeyConditionExpression:   aws.String("pk = :pk"),
		FilterExpression:         aws.String(TTLFilterExpr()),
		ExpressionAttributeNames: TTLFilterNames(),
		ExpressionAttributeValues: mergeExprValues(TTLFilterValues(now), map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shardPK},
		}),
	})
	if err != nil {
		return false, err
	}
	return len(result.Items) > 0, nil
}

// QueryAllChildren returns all children of an entity (including deleted ones).
// This is used by cascade delete to propagate TTL to all children.
func (s *Store) QueryAllChildren(ctx context.Context, parentRef string) ([]ChildRef, error) {
	keys := shard.Keys(parentRef, s.config.NumShards)
	numShards := len(keys)

	if numShards == 1 {
		return s.queryChildrenInShard(ctx, keys[0])
	}

	var mu sync.Mutex
	var allChildren []ChildRef
	var wg sync.WaitGroup
	errs := make(chan error, numShards)

	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()

			children, err := s.queryChildrenInShard(ctx, key)
			if err != nil {
				errs <- fmt.Errorf("shard %s: %w", key, err)
				return
			}

			mu.Lock()
			allChildren = append(allChildren, children...)
			mu.Unlock()
		}(key)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return allChildren, nil
}

func (s *Store) queryChildrenInShard(ctx context.Context, shardPK string) ([]ChildRef, error) {
	var children []ChildRef

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.RelationshipTable),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shardPK},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			children = append(children, unmarshalChildRef(item, shardPK))
		}
	}

	return children, nil
}

// SetTTLByKey marks an existing entity for deletion at ttl and bumps its version
// so in-flight updates fail. Already-deleted entities are left untouched.
func (s *Store) SetTTLByKey(ctx context.Context, table string, key PK, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 key,
		UpdateExpression:    aws.String("SET #ttl = :ttl, #version = #version + :one"),
		ConditionExpression: aws.String("attribute_exists(id) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl":     "ttl",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}

// SetRelationshipTTL sets TTL on a relationship record.
func (s *Store) SetRelationshipTTL(ctx context.Context, childRef, parentRef string, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.config.RelationshipTable),
		Key: map[string]types.AttributeValue{
			"pk":        &types.AttributeValueMemberS{Value: s.relationshipPK(parentRef, childRef)},
			"child_ref": &types.AttributeValueMemberS{Value: childRef},
		},
		UpdateExpression:    aws.String("SET #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_exists(pk) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
		},
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}

func (s *Store) parentConditionCheck(check *ConditionCheck, now int64) types.TransactWriteItem {
	condExpr := check.ConditionExpr
	if condExpr == "" {
		condExpr = ParentExistsCondition()
	}
	return types.TransactWriteItem{
		ConditionCheck: &types.ConditionCheck{
			TableName:                 aws.String(check.TableName),
			Key:                       check.Key,
			ConditionExpression:       aws.String(condExpr),
			ExpressionAttributeNames:  mergeExprNames(TTLFilterNames()),
			ExpressionAttributeValues: TTLFilterValues(now),
		},
	}
}

func (s *Store) relationshipPut(entity Entity, parentRef string) types.TransactWriteItem {
	childRef := entity.EntityRef()
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.config.RelationshipTable),
			Item: map[string]types.AttributeValue{
				"pk":          &types.AttributeValueMemberS{Value: s.relationshipPK(parentRef, childRef)},
				"child_ref":   &types.AttributeValueMemberS{Value: childRef},
				"parent_ref":  &types.AttributeValueMemberS{Value: parentRef},
				"child_table": &types.AttributeValueMemberS{Value: entity.TableName()},
				"child_key":   &types.AttributeValueMemberM{Value: entity.GetKey()},
			},
		},
	}
}

// mapTransactionError maps a cancelled transaction to a sentinel by the index of
// the item whose condition failed. A failure on entityIndex maps to entityErr.
func mapTransactionError(err error, parentCheckIndex, entityIndex int, entityErr error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			switch i {
			case parentCheckIndex:
				return ErrParentNotFound
			case entityIndex:
				return entityErr
			}
		}
	}

	return err
}

// unmarshalItem converts a DynamoDB item to an Item struct.
func unmarshalItem(raw map[string]types.AttributeValue) *Item {
	item := &Item{Raw: raw}

	if v, ok := raw["version"].(*types.AttributeValueMemberN); ok {
		item.Version, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	if v, ok := raw["created_at"].(*types.AttributeValueMemberS); ok {
		item.CreatedAt = v.Value
	}
	if v, ok := raw["updated_at"].(*types.AttributeValueMemberS); ok {
		item.UpdatedAt = v.Value
	}
	if v, ok := raw["entity_ref"].(*types.AttributeValueMemberS); ok {
		item.EntityRef = v.Value
	}
	if v, ok := raw["parent_ref"].(*types.AttributeValueMemberS); ok {
		item.ParentRef = v.Value
	}

	return item
}

// unmarshalChildRef converts a relationship item to a ChildRef.
func unmarshalChildRef(item map[string]types.AttributeValue, shardPK string) ChildRef {
	ref := ChildRef{ShardPK: shardPK}

	if v, ok := item["child_ref"].(*types.AttributeValueMemberS); ok {
		ref.Ref = v.Value
	}
	if v, ok := item["child_table"].(*types.AttributeValueMemberS); ok {
		ref.TableName = v.Value
	}
	if v, ok := item["child_key"].(*types.AttributeValueMemberM); ok {
		ref.Key = v.Value
	}

	return ref
}
