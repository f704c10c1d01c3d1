package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"calclik-event-scanner/internal/models"
)

// EventStore persists extracted events a user chose to keep, in a single
// DynamoDB table keyed PK=DOMAIN#<domain>, SK=EVENT#<id>. The extraction
// pipeline itself owns no persisted state; this store exists for the
// server and lambda commands.
type EventStore struct {
	client *dynamodb.Client
	table  string
}

// SavedEvent is the stored shape of an event candidate.
type SavedEvent struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`

	models.EventCandidate

	Domain  string    `dynamodbav:"domain" json:"domain"`
	ScanID  string    `dynamodbav:"scan_id" json:"scan_id"`
	SavedAt time.Time `dynamodbav:"saved_at" json:"saved_at"`
}

// NewEventStore creates an event store for the given table.
func NewEventStore(ctx context.Context, table string) (*EventStore, error) {
	if table == "" {
		return nil, fmt.Errorf("events table not configured")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EventStore{
		client: dynamodb.NewFromConfig(cfg),
		table:  table,
	}, nil
}

// NewEventStoreWithClient creates an event store around an existing client.
func NewEventStoreWithClient(client *dynamodb.Client, table string) *EventStore {
	return &EventStore{client: client, table: table}
}

// SaveEvent stores one extracted event under its source domain.
func (s *EventStore) SaveEvent(ctx context.Context, event models.EventCandidate, scanID string) error {
	domain := models.ExtractDomain(event.SourceURL)
	if domain == "" {
		domain = "unknown"
	}

	saved := SavedEvent{
		PK:             "DOMAIN#" + domain,
		SK:             "EVENT#" + event.ID,
		EventCandidate: event,
		Domain:         domain,
		ScanID:         scanID,
		SavedAt:        time.Now(),
	}

	item, err := attributevalue.MarshalMap(saved)
	if err != nil {
		return fmt.Errorf("failed to marshal saved event: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	return nil
}

// GetEvent retrieves one saved event by domain and event ID.
func (s *EventStore) GetEvent(ctx context.Context, domain, eventID string) (*SavedEvent, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "DOMAIN#" + domain},
			"SK": &types.AttributeValueMemberS{Value: "EVENT#" + eventID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("event not found: %s/%s", domain, eventID)
	}

	var saved SavedEvent
	if err := attributevalue.UnmarshalMap(result.Item, &saved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saved event: %w", err)
	}

	return &saved, nil
}

// ListEventsByDomain returns every saved event for one source domain.
func (s *EventStore) ListEventsByDomain(ctx context.Context, domain string) ([]SavedEvent, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "DOMAIN#" + domain},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query events for %s: %w", domain, err)
	}

	events := make([]SavedEvent, 0, len(result.Items))
	for _, item := range result.Items {
		var saved SavedEvent
		if err := attributevalue.UnmarshalMap(item, &saved); err != nil {
			return nil, fmt.Errorf("failed to unmarshal saved event: %w", err)
		}
		events = append(events, saved)
	}

	return events, nil
}

// DeleteEvent removes one saved event.
func (s *EventStore) DeleteEvent(ctx context.Context, domain, eventID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "DOMAIN#" + domain},
			"SK": &types.AttributeValueMemberS{Value: "EVENT#" + eventID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}
