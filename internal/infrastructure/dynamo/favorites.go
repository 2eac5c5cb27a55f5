package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-market-nosql/internal/domain"
)

// FavoriteRepo manages saved listings. PK: user_id, SK: listing_id.
type FavoriteRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewFavoriteRepo(client *dynamodb.Client, tableName string) *FavoriteRepo {
	return &FavoriteRepo{client: client, tableName: tableName}
}

func (r *FavoriteRepo) Put(ctx context.Context, f *domain.Favorite) error {
	item, err := attributevalue.MarshalMap(f)
	if err != nil {
		return fmt.Errorf("marshal favorite: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, listingID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "listing_id", listingID),
	})
	return err
}

func (r *FavoriteRepo) ListByUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var favorites []domain.Favorite
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}
