package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-nosql/internal/domain"
)

// ListingRepo provides typed DynamoDB operations for the listings table.
type ListingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewListingRepo(client *dynamodb.Client, tableName string) *ListingRepo {
	return &ListingRepo{client: client, tableName: tableName}
}

func (r *ListingRepo) Put(ctx context.Context, l *domain.Listing) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ListingRepo) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("listing_id", listingID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("listing not found: %w", domain.ErrNotFound)
	}
	var l domain.Listing
	if err := attributevalue.UnmarshalMap(out.Item, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepo) Update(ctx context.Context, listingID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("listing_id", listingID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

func (r *ListingRepo) SoftDelete(ctx context.Context, listingID string) error {
	return r.Update(ctx, listingID, map[string]interface{}{fieldEnable: false})
}

// QueryByOwner returns a page of the owner's listings via the owner_id GSI,
// newest first. cursor is a base64 listing_id from the previous page.
func (r *ListingRepo) QueryByOwner(ctx context.Context, ownerID string, limit int32, cursor string) ([]domain.Listing, string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-created_at-index"),
		KeyConditionExpression: aws.String("owner_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: ownerID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	}
	if cursor != "" {
		start, err := r.startKeyFromCursor(ctx, ownerID, cursor)
		if err != nil {
			return nil, "", err
		}
		input.ExclusiveStartKey = start
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var listings []domain.Listing
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &listings); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["listing_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return listings, nextCursor, nil
}

// QueryIDsByOwner returns one page of listing ids for a propagation sweep.
// Order comes from the GSI and is stable across pages; that is all the
// sweep requires of it.
func (r *ListingRepo) QueryIDsByOwner(ctx context.Context, ownerID string, limit int32, cursor string) ([]string, string, error) {
	if limit > maxBatchWrite {
		return nil, "", fmt.Errorf("page of %d exceeds max atomic batch of %d: %w", limit, maxBatchWrite, domain.ErrBadRequest)
	}
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-created_at-index"),
		KeyConditionExpression: aws.String("owner_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: ownerID},
		},
		ProjectionExpression: aws.String("listing_id, created_at"),
		Limit:                aws.Int32(limit),
	}
	if cursor != "" {
		start, err := r.startKeyFromCursor(ctx, ownerID, cursor)
		if err != nil {
			return nil, "", err
		}
		input.ExclusiveStartKey = start
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", err
	}
	ids := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		if v, ok := item["listing_id"].(*types.AttributeValueMemberS); ok {
			ids = append(ids, v.Value)
		}
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["listing_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return ids, nextCursor, nil
}

// UpdateOwnerSlugPage rewrites the denormalized owner_slug on every listing
// in ids within a single transaction: the page commits all-or-nothing.
func (r *ListingRepo) UpdateOwnerSlugPage(ctx context.Context, ids []string, newSlug string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > maxBatchWrite {
		return fmt.Errorf("page of %d exceeds max atomic batch of %d: %w", len(ids), maxBatchWrite, domain.ErrBadRequest)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	items := make([]types.TransactWriteItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:        aws.String(r.tableName),
				Key:              strKey("listing_id", id),
				UpdateExpression: aws.String("SET owner_slug = :s, updated_at = :t"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":s": &types.AttributeValueMemberS{Value: newSlug},
					":t": &types.AttributeValueMemberS{Value: now},
				},
			},
		})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return err
}

// ScanPage returns a page of enabled listings for the public marketplace.
// category filters when non-empty. cursor is a base64 listing_id.
func (r *ListingRepo) ScanPage(ctx context.Context, category string, limit int32, cursor string) ([]domain.Listing, string, error) {
	filter := "enable = :t"
	values := map[string]types.AttributeValue{
		":t": &types.AttributeValueMemberBOOL{Value: true},
	}
	if category != "" {
		filter += " AND category = :c"
		values[":c"] = &types.AttributeValueMemberS{Value: category}
	}
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
		Limit:                     aws.Int32(limit),
	}
	if cursor != "" {
		listingID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("listing_id", listingID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var listings []domain.Listing
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &listings); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["listing_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return listings, nextCursor, nil
}

// startKeyFromCursor rebuilds the GSI ExclusiveStartKey for an owner query.
// The GSI key needs owner_id + created_at + the table key, so the cursor's
// listing is re-read to recover its created_at.
func (r *ListingRepo) startKeyFromCursor(ctx context.Context, ownerID, cursor string) (map[string]types.AttributeValue, error) {
	listingID, err := decodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
	}
	l, err := r.Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
	}
	createdAt, err := attributevalue.Marshal(l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{
		"owner_id":   &types.AttributeValueMemberS{Value: ownerID},
		"listing_id": &types.AttributeValueMemberS{Value: listingID},
		"created_at": createdAt,
	}, nil
}
