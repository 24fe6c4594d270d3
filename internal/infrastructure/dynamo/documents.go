package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-verify-bot/internal/domain"
)

// keyAttr is the partition key of every document table.
const keyAttr = "id"

// API is the subset of the DynamoDB client the document store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DocumentStore stores each collection in its own table keyed by "id".
type DocumentStore struct {
	client API
	tables map[string]string
}

// NewDocumentStore maps collection names to table names.
func NewDocumentStore(client API, tables map[string]string) *DocumentStore {
	return &DocumentStore{client: client, tables: tables}
}

func (s *DocumentStore) table(collection string) (string, error) {
	t, ok := s.tables[collection]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", collection)
	}
	return t, nil
}

// FindAll scans the whole table into out, which must point to a slice.
func (s *DocumentStore) FindAll(ctx context.Context, collection string, out interface{}) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	var items []map[string]types.AttributeValue
	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{TableName: aws.String(table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, page.Items...)
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return nil
}

func (s *DocumentStore) FindByID(ctx context.Context, collection, id string, out interface{}) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       strKey(keyAttr, id),
	})
	if err != nil {
		return err
	}
	if res.Item == nil {
		return fmt.Errorf("%s %s: %w", collection, id, domain.ErrNotFound)
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}

// Insert writes doc, replacing any document with the same id.
func (s *DocumentStore) Insert(ctx context.Context, collection string, doc interface{}) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	if _, ok := item[keyAttr]; !ok {
		return fmt.Errorf("%s document has no %q attribute: %w", collection, keyAttr, domain.ErrBadRequest)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

// Update sets the patched attributes on an existing document.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	fields := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		if k != keyAttr {
			fields[k] = v
		}
	}
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = keyAttr
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       strKey(keyAttr, id),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%s %s: %w", collection, id, domain.ErrNotFound)
	}
	return err
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       strKey(keyAttr, id),
	})
	return err
}
