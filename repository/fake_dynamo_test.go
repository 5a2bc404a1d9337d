package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo serves the calls DynamoStorage makes from memory. Queries
// return pages of fakePageSize items to exercise pagination.
type fakeDynamo struct {
	mu         sync.Mutex
	items      map[string]map[string]map[string]types.AttributeValue
	batchSizes []int
}

const fakePageSize = 10

var _ DynamoAPI = (*fakeDynamo)(nil)

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]map[string]types.AttributeValue{}}
}

func attrString(av map[string]types.AttributeValue, name string) string {
	if s, ok := av[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, sk := attrString(in.Item, "pk"), attrString(in.Item, "sk")
	if f.items[pk] == nil {
		f.items[pk] = map[string]map[string]types.AttributeValue{}
	}
	f.items[pk][sk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.items[attrString(in.Key, "pk")][attrString(in.Key, "sk")]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, sk := attrString(in.Key, "pk"), attrString(in.Key, "sk")
	old := f.items[pk][sk]
	delete(f.items[pk], sk)
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := attrString(in.ExpressionAttributeValues, ":pk")
	prefix := attrString(in.ExpressionAttributeValues, ":sk")
	start := attrString(in.ExclusiveStartKey, "sk")

	var keys []string
	for sk := range f.items[pk] {
		if strings.HasPrefix(sk, prefix) && (start == "" || sk > start) {
			keys = append(keys, sk)
		}
	}
	sort.Strings(keys)

	out := &dynamodb.QueryOutput{}
	for i, sk := range keys {
		if i == fakePageSize {
			last := f.items[pk][keys[i-1]]
			out.LastEvaluatedKey = map[string]types.AttributeValue{"pk": last["pk"], "sk": last["sk"]}
			break
		}
		out.Items = append(out.Items, f.items[pk][sk])
	}
	return out, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, requests := range in.RequestItems {
		f.batchSizes = append(f.batchSizes, len(requests))
		for _, r := range requests {
			if r.DeleteRequest != nil {
				delete(f.items[attrString(r.DeleteRequest.Key, "pk")], attrString(r.DeleteRequest.Key, "sk"))
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}
