package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/recipes/store"
	"github.com/jacentio/recipes/stream"
)

type ttlCall struct {
	table string
	id    string
	ttl   int64
}

type relCall struct {
	child  string
	parent string
	ttl    int64
}

type fakeCascader struct {
	children map[string][]store.ChildRef
	queryErr error
	ttlErr   error

	queried []string
	ttls    []ttlCall
	rels    []relCall
}

func (f *fakeCascader) QueryAllChildren(_ context.Context, parentRef string) ([]store.ChildRef, error) {
	f.queried = append(f.queried, parentRef)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.children[parentRef], nil
}

func (f *fakeCascader) SetTTLByKey(_ context.Context, table string, key store.PK, ttl int64) error {
	id := ""
	if v, ok := key["id"].(*types.AttributeValueMemberN); ok {
		id = v.Value
	}
	f.ttls = append(f.ttls, ttlCall{table: table, id: id, ttl: ttl})
	return f.ttlErr
}

func (f *fakeCascader) SetRelationshipTTL(_ context.Context, childRef, parentRef string, ttl int64) error {
	f.rels = append(f.rels, relCall{child: childRef, parent: parentRef, ttl: ttl})
	return nil
}

func modifyRecord(seq, entityRef, parentRef string, oldTTL, newTTL string) events.DynamoDBEventRecord {
	newImage := map[string]events.DynamoDBAttributeValue{
		"entity_ref": events.NewStringAttribute(entityRef),
	}
	if parentRef != "" {
		newImage["parent_ref"] = events.NewStringAttribute(parentRef)
	}
	if newTTL != "" {
		newImage["ttl"] = events.NewNumberAttribute(newTTL)
	}
	oldImage := map[string]events.DynamoDBAttributeValue{}
	if oldTTL != "" {
		oldImage["ttl"] = events.NewNumberAttribute(oldTTL)
	}
	return events.DynamoDBEventRecord{
		EventID:   "evt-" + seq,
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			SequenceNumber: seq,
			OldImage:       oldImage,
			NewImage:       newImage,
		},
	}
}

func TestNewHandler(t *testing.T) {
	if h := stream.NewHandler(nil, nil); h == nil {
		t.Fatal("expected non-nil Handler")
	}
}

func TestHandleCascadeDelete_EmptyEvent(t *testing.T) {
	f := &fakeCascader{}
	h := stream.NewHandler(f, nil)

	if err := h.HandleCascadeDelete(context.Background(), events.DynamoDBEvent{}); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if len(f.queried) != 0 {
		t.Error("expected no queries")
	}
}

func TestHandleCascadeDelete_Ignored(t *testing.T) {
	insert := modifyRecord("1", "author#1", "", "", "1700000000")
	insert.EventName = "INSERT"
	remove := modifyRecord("2", "author#1", "", "", "1700000000")
	remove.EventName = "REMOVE"

	tests := []struct {
		name   string
		record events.DynamoDBEventRecord
	}{
		{"insert", insert},
		{"remove", remove},
		{"modify without ttl", modifyRecord("3", "author#1", "", "", "")},
		{"ttl already set", modifyRecord("4", "author#1", "", "1600000000", "1700000000")},
		{"zero ttl", modifyRecord("5", "author#1", "", "", "0")},
		{"no entity ref", modifyRecord("6", "", "", "", "1700000000")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCascader{}
			h := stream.NewHandler(f, nil)

			err := h.HandleCascadeDelete(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{tt.record}})
			if err != nil {
				t.Errorf("expected nil error, got %v", err)
			}
			if len(f.queried) != 0 {
				t.Errorf("expected record to be skipped, got queries %v", f.queried)
			}
		})
	}
}

func TestHandleCascadeDelete_RecipeExpiresIngredients(t *testing.T) {
	f := &fakeCascader{children: map[string][]store.ChildRef{
		"recipe#5": {
			{Ref: "ingredient#12", TableName: "ingredients", Key: store.NumericKey(12)},
			{Ref: "ingredient#13", TableName: "ingredients", Key: store.NumericKey(13)},
		},
	}}
	h := stream.NewHandler(f, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		modifyRecord("1", "recipe#5", "author#1", "", "1700000000"),
	}}
	if err := h.HandleCascadeDelete(context.Background(), event); err != nil {
		t.Fatalf("HandleCascadeDelete failed: %v", err)
	}

	if len(f.ttls) != 2 {
		t.Fatalf("expected 2 child TTL updates, got %d", len(f.ttls))
	}
	for i, want := range []string{"12", "13"} {
		if f.ttls[i].table != "ingredients" || f.ttls[i].id != want || f.ttls[i].ttl != 1700000000 {
			t.Errorf("unexpected TTL call %+v", f.ttls[i])
		}
	}
	if len(f.rels) != 1 || f.rels[0].child != "recipe#5" || f.rels[0].parent != "author#1" {
		t.Errorf("expected recipe relationship to be expired, got %+v", f.rels)
	}
}

func TestHandleCascadeDelete_RootEntityHasNoRelationship(t *testing.T) {
	f := &fakeCascader{}
	h := stream.NewHandler(f, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		modifyRecord("1", "author#1", "", "", "1700000000"),
	}}
	if err := h.HandleCascadeDelete(context.Background(), event); err != nil {
		t.Fatalf("HandleCascadeDelete failed: %v", err)
	}
	if len(f.queried) != 1 || f.queried[0] != "author#1" {
		t.Errorf("expected children of author#1 to be queried, got %v", f.queried)
	}
	if len(f.rels) != 0 {
		t.Errorf("expected no relationship update, got %+v", f.rels)
	}
}

func TestHandleCascadeDelete_QueryError(t *testing.T) {
	boom := errors.New("throttled")
	f := &fakeCascader{queryErr: boom}
	h := stream.NewHandler(f, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		modifyRecord("1", "author#1", "", "", "1700000000"),
		modifyRecord("2", "author#2", "", "", "1700000000"),
	}}
	err := h.HandleCascadeDelete(context.Background(), event)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
	if len(f.queried) != 1 {
		t.Errorf("expected processing to stop at the first failure, got %d queries", len(f.queried))
	}
}

func TestHandleCascadeDelete_ChildFailureIsReported(t *testing.T) {
	boom := errors.New("throttled")
	f := &fakeCascader{
		ttlErr: boom,
		children: map[string][]store.ChildRef{
			"author#1": {{Ref: "recipe#5", TableName: "recipes", Key: store.NumericKey(5)}},
		},
	}
	h := stream.NewHandler(f, nil)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		modifyRecord("1", "author#1", "", "", "1700000000"),
	}}
	if err := h.HandleCascadeDelete(context.Background(), event); !errors.Is(err, boom) {
		t.Errorf("expected child error to surface, got %v", err)
	}
}

func TestHandleBatch(t *testing.T) {
	f := &fakeCascader{queryErr: errors.New("throttled")}
	h := stream.NewHandler(f, nil)

	skipped := modifyRecord("1", "author#1", "", "", "")
	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		skipped,
		modifyRecord("2", "author#2", "", "", "1700000000"),
		modifyRecord("3", "author#3", "", "", "1700000000"),
	}}

	resp, err := h.HandleBatch(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleBatch failed: %v", err)
	}
	if len(resp.BatchItemFailures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(resp.BatchItemFailures))
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "2" || resp.BatchItemFailures[1].ItemIdentifier != "3" {
		t.Errorf("unexpected failures %+v", resp.BatchItemFailures)
	}
	if len(f.queried) != 1 {
		t.Errorf("expected records after the failure to be left for retry, got %d queries", len(f.queried))
	}
}

func TestHandleBatch_AllSucceed(t *testing.T) {
	h := stream.NewHandler(&fakeCascader{}, nil)

	resp, err := h.HandleBatch(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		modifyRecord("1", "recipe#5", "", "", "1700000000"),
	}})
	if err != nil {
		t.Fatalf("HandleBatch failed: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Errorf("expected no failures, got %+v", resp.BatchItemFailures)
	}
}
