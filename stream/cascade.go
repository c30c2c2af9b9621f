// Package stream propagates soft deletes through the recipe hierarchy from
// DynamoDB Streams. Deleting an author expires its recipes, and each expired
// recipe in turn expires its ingredients when its own stream record arrives.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/recipes/store"
)

// Cascader is the part of *store.Store the handler drives.
type Cascader interface {
	QueryAllChildren(ctx context.Context, parentRef string) ([]store.ChildRef, error)
	SetTTLByKey(ctx context.Context, table string, key store.PK, ttl int64) error
	SetRelationshipTTL(ctx context.Context, childRef, parentRef string, ttl int64) error
}

var _ Cascader = (*store.Store)(nil)

// Handler processes DynamoDB stream events for cascade deletes.
type Handler struct {
	store  Cascader
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s Cascader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleCascadeDelete processes DynamoDB stream events to propagate TTL to children.
// The first failing record aborts the batch so Lambda retries it.
func (h *Handler) HandleCascadeDelete(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// HandleBatch is the partial batch response variant of HandleCascadeDelete.
// Records after the first failure are reported too, since stream order must be kept.
func (h *Handler) HandleBatch(ctx context.Context, event events.DynamoDBEvent) (events.DynamoDBEventResponse, error) {
	var resp events.DynamoDBEventResponse
	failed := false
	for _, record := range event.Records {
		if !failed {
			if err := h.processRecord(ctx, record); err != nil {
				h.logger.Error("failed to process record",
					"eventID", record.EventID,
					"error", err,
				)
				failed = true
			}
		}
		if failed {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.DynamoDBBatchItemFailure{
				ItemIdentifier: record.Change.SequenceNumber,
			})
		}
	}
	return resp, nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "MODIFY" {
		return nil
	}

	oldTTL := getNumberAttr(record.Change.OldImage, "ttl")
	newTTL := getNumberAttr(record.Change.NewImage, "ttl")

	// only the transition from live to expired
	if oldTTL != 0 || newTTL == 0 {
		return nil
	}

	entityRef := getStringAttr(record.Change.NewImage, "entity_ref")
	if entityRef == "" {
		return nil
	}
	parentRef := getStringAttr(record.Change.NewImage, "parent_ref")

	h.logger.Info("processing cascade delete",
		"entity", entityRef,
		"parent", parentRef,
		"ttl", newTTL,
	)

	// includes already-expired children; TTL updates are idempotent
	children, err := h.store.QueryAllChildren(ctx, entityRef)
	if err != nil {
		return fmt.Errorf("query children: %w", err)
	}

	var errs []error
	for _, child := range children {
		if err := h.store.SetTTLByKey(ctx, child.TableName, child.Key, newTTL); err != nil {
			h.logger.Warn("failed to set TTL on child",
				"child", child.Ref,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("expire %s: %w", child.Ref, err))
		}
	}

	if parentRef != "" {
		if err := h.store.SetRelationshipTTL(ctx, entityRef, parentRef, newTTL); err != nil {
			h.logger.Warn("failed to set relationship TTL",
				"entity", entityRef,
				"parent", parentRef,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("expire relationship of %s: %w", entityRef, err))
		}
	}

	h.logger.Info("cascade delete completed",
		"entity", entityRef,
		"children", len(children),
		"failures", len(errs),
	)

	return errors.Join(errs...)
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
