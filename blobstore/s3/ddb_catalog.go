package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/nblast/catalog"
)

var _ catalog.Catalog = (*DDBCatalog)(nil)

// ErrConcurrentModification is returned when another writer published the
// same version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DDBCatalog keeps the current-table pointer in DynamoDB. Each publication is
// a new item with a monotonically increasing version, written with a
// conditional put, so racing writers cannot both claim one version.
//
// Table schema:
//   - Partition key: base_uri (string) - the location tables are published under
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name nblast-tables \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCatalog struct {
	client    DDBClient
	tableName string
	baseURI   string
}

// NewDDBCatalog creates a catalog from the default AWS credential chain.
func NewDDBCatalog(ctx context.Context, tableName, baseURI string, optFns ...Option) (*DDBCatalog, error) {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}
	cfg, err := loadConfig(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(do *dynamodb.Options) {
		if o.endpoint != "" {
			do.BaseEndpoint = aws.String(o.endpoint)
		}
	})
	return NewDDBCatalogWithClient(client, tableName, baseURI), nil
}

// NewDDBCatalogWithClient creates a catalog over an existing client.
func NewDDBCatalogWithClient(client DDBClient, tableName, baseURI string) *DDBCatalog {
	return &DDBCatalog{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Current implements catalog.Catalog.
func (c *DDBCatalog) Current(ctx context.Context) (catalog.Entry, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: c.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return catalog.Entry{}, catalog.ErrNoCurrent
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return catalog.Entry{}, errors.New("invalid version attribute in DynamoDB")
	}
	nameAttr, ok := item["table_name"].(*types.AttributeValueMemberS)
	if !ok {
		return catalog.Entry{}, errors.New("invalid table_name attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("failed to parse version: %w", err)
	}
	return catalog.Entry{Version: version, Name: nameAttr.Value}, nil
}

// Publish implements catalog.Catalog.
func (c *DDBCatalog) Publish(ctx context.Context, name string) (catalog.Entry, error) {
	cur, err := c.Current(ctx)
	if err != nil && !errors.Is(err, catalog.ErrNoCurrent) {
		return catalog.Entry{}, err
	}

	next := catalog.Entry{Version: cur.Version + 1, Name: name}

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":   &types.AttributeValueMemberS{Value: c.baseURI},
			"version":    &types.AttributeValueMemberN{Value: strconv.FormatUint(next.Version, 10)},
			"table_name": &types.AttributeValueMemberS{Value: name},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return catalog.Entry{}, ErrConcurrentModification
		}
		return catalog.Entry{}, fmt.Errorf("failed to publish version to DynamoDB: %w", err)
	}
	return next, nil
}
