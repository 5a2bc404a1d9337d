package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"deusvent/models"
)

// dynamoBatchSize is the DynamoDB limit of requests in one batch write.
const dynamoBatchSize = 25

// DynamoAPI is the subset of the DynamoDB client used by DynamoStorage.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoStorage keeps entities in a DynamoDB table with a string "pk"
// partition key and a string "sk" sort key.
type DynamoStorage struct {
	client DynamoAPI
	table  string
}

var _ Storage = (*DynamoStorage)(nil)

// NewDynamoStorage creates a storage using the default AWS configuration
// chain (environment, shared profile, instance role).
func NewDynamoStorage(ctx context.Context, table string) (*DynamoStorage, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewDynamoStorageWithClient(dynamodb.NewFromConfig(cfg), table), nil
}

// NewDynamoStorageWithClient creates a storage on top of an existing client.
func NewDynamoStorageWithClient(client DynamoAPI, table string) *DynamoStorage {
	return &DynamoStorage{client: client, table: table}
}

func (s *DynamoStorage) Write(ctx context.Context, e models.Entity) error {
	key := e.Key()
	item := models.Item{}
	e.MarshalItem(item)
	av := toAttributeValues(item)
	av["pk"] = &types.AttributeValueMemberS{Value: key.UserID.String()}
	av["sk"] = &types.AttributeValueMemberS{Value: models.SortKey(e.EntityType(), key.EntityID)}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

func (s *DynamoStorage) Read(ctx context.Context, key models.Key, entityType string) (models.Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       dynamoKey(key.UserID.String(), models.SortKey(entityType, key.EntityID)),
	})
	if err != nil {
		return nil, &IOError{Op: "read", Err: err}
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return fromAttributeValues(out.Item)
}

func (s *DynamoStorage) Find(ctx context.Context, userID models.UserID, entityType string) ([]Record, error) {
	var out []Record
	err := s.query(ctx, userID.String(), entityType+"_", false, func(av map[string]types.AttributeValue) error {
		sk, err := stringAttribute(av, "sk")
		if err != nil {
			return err
		}
		item, err := fromAttributeValues(av)
		if err != nil {
			return err
		}
		rec, err := recordFromItem(userID, entityType, sk, item)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

func (s *DynamoStorage) Delete(ctx context.Context, userID models.UserID, entityType, entityID string) (int, error) {
	if err := validateDelete(entityType, entityID); err != nil {
		return 0, err
	}
	pk := userID.String()
	prefix, exact := deletePrefix(entityType, entityID)
	if exact {
		out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:    aws.String(s.table),
			Key:          dynamoKey(pk, prefix),
			ReturnValues: types.ReturnValueAllOld,
		})
		if err != nil {
			return 0, &IOError{Op: "delete", Err: err}
		}
		if len(out.Attributes) == 0 {
			return 0, nil
		}
		return 1, nil
	}

	// DynamoDB can't delete by partition or sort key prefix, so keys are
	// queried first and removed in batches.
	deleted := 0
	var chunk []types.WriteRequest
	err := s.query(ctx, pk, prefix, true, func(av map[string]types.AttributeValue) error {
		sk, err := stringAttribute(av, "sk")
		if err != nil {
			return err
		}
		chunk = append(chunk, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: dynamoKey(pk, sk)},
		})
		if len(chunk) == dynamoBatchSize {
			if err := s.batchDelete(ctx, chunk); err != nil {
				return err
			}
			deleted += len(chunk)
			chunk = nil
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}
	if len(chunk) > 0 {
		if err := s.batchDelete(ctx, chunk); err != nil {
			return deleted, err
		}
		deleted += len(chunk)
	}
	return deleted, nil
}

func (s *DynamoStorage) query(ctx context.Context, pk, skPrefix string, keysOnly bool, fn func(map[string]types.AttributeValue) error) error {
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
	}
	condition := "pk = :pk"
	if skPrefix != "" {
		values[":sk"] = &types.AttributeValueMemberS{Value: skPrefix}
		condition += " AND begins_with(sk, :sk)"
	}
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    aws.String(condition),
		ExpressionAttributeValues: values,
	}
	if keysOnly {
		in.Select = types.SelectSpecificAttributes
		in.ProjectionExpression = aws.String("pk, sk")
	}
	p := dynamodb.NewQueryPaginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return &IOError{Op: "query", Err: err}
		}
		for _, av := range page.Items {
			if err := fn(av); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *DynamoStorage) batchDelete(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.table: requests}
	for attempt := 0; len(pending[s.table]) > 0; attempt++ {
		if attempt == 5 {
			return &IOError{Op: "delete", Err: fmt.Errorf("%d keys left unprocessed", len(pending[s.table]))}
		}
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return &IOError{Op: "delete", Err: err}
		}
		pending = out.UnprocessedItems
	}
	return nil
}

func dynamoKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

func toAttributeValues(item models.Item) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item)+2)
	for name, attr := range item {
		switch {
		case attr.S != nil:
			out[name] = &types.AttributeValueMemberS{Value: *attr.S}
		case attr.N != nil:
			out[name] = &types.AttributeValueMemberN{Value: *attr.N}
		}
	}
	return out
}

// fromAttributeValues converts a DynamoDB item without its key attributes.
func fromAttributeValues(av map[string]types.AttributeValue) (models.Item, error) {
	item := make(models.Item, len(av))
	for name, v := range av {
		if name == "pk" || name == "sk" {
			continue
		}
		switch tv := v.(type) {
		case *types.AttributeValueMemberS:
			item.SetString(name, tv.Value)
		case *types.AttributeValueMemberN:
			value := tv.Value
			item[name] = models.Attribute{N: &value}
		default:
			return nil, &ValidationError{Msg: fmt.Sprintf("%s attribute has unsupported type %T", name, v)}
		}
	}
	return item, nil
}

func stringAttribute(av map[string]types.AttributeValue, name string) (string, error) {
	v, ok := av[name]
	if !ok {
		return "", &ValidationError{Msg: name + " attribute should exist"}
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", &ValidationError{Msg: name + " attribute should be of type string"}
	}
	return s.Value, nil
}
