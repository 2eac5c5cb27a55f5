package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-nosql/internal/domain"
)

// SlugRepo manages the global handle namespace. One item per slug string;
// the partition key is the slug itself, so a lookup answers "who owns this
// handle" in a single read.
type SlugRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSlugRepo(client *dynamodb.Client, tableName string) *SlugRepo {
	return &SlugRepo{client: client, tableName: tableName}
}

func (r *SlugRepo) Get(ctx context.Context, slug string) (*domain.SlugReservation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("slug", slug),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("slug not reserved: %w", domain.ErrNotFound)
	}
	var res domain.SlugReservation
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Claim reserves slug for ownerID with a single conditional write: the put
// succeeds only when no reservation exists or the caller already owns it.
// Two racing claimants cannot both win; the loser's write fails the
// condition and surfaces as ErrConflict.
func (r *SlugRepo) Claim(ctx context.Context, slug, ownerID string) error {
	item, err := attributevalue.MarshalMap(&domain.SlugReservation{
		Slug:      slug,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal reservation: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(slug) OR owner_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("slug %q already taken: %w", slug, domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *SlugRepo) Delete(ctx context.Context, slug string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("slug", slug),
	})
	return err
}
