package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// mockDynamo is an in-memory stand-in for DynamoDB covering the
// operations the handlers exercise: conditional puts, transactions,
// conditional updates and filtered scans.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{
			"idempotency": {},
			"orders":      {},
			"products":    {},
		},
	}
}

// keyAttr maps a table to its partition key attribute. Records can carry
// both order_id and idempotency_key, so the table decides which one keys it.
func keyAttr(table string) string {
	switch table {
	case "idempotency":
		return "idempotency_key"
	case "products":
		return "product_id"
	default:
		return "order_id"
	}
}

func pkOf(table string, item map[string]types.AttributeValue) string {
	if v, ok := item[keyAttr(table)].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := pkOf(*params.TableName, params.Item)
	table := m.tables[*params.TableName]
	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_not_exists") {
		if _, exists := table[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	table[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := pkOf(*params.TableName, params.Key)
	item, ok := m.tables[*params.TableName][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := pkOf(*params.TableName, params.Key)
	item, ok := m.tables[*params.TableName][pk]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "#s = :expected" {
		cur, _ := item["status"].(*types.AttributeValueMemberS)
		want := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
		if cur == nil || cur.Value != want.Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	for expr, attr := range map[string]string{
		":new": "status", ":done": "status", ":failed": "status",
		":rb": "response_body", ":rs": "response_status",
		":n": "note", ":ua": "updated_at",
	} {
		if v, ok := params.ExpressionAttributeValues[expr]; ok {
			item[attr] = v
		}
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := pkOf(*params.TableName, params.Key)
	table := m.tables[*params.TableName]
	item, existed := table[pk]
	delete(table, pk)
	out := &dyn.DeleteItemOutput{}
	if existed && params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = item
	}
	return out, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, item := range m.tables[*params.TableName] {
		if params.FilterExpression != nil && !matchesFilter(item, params) {
			continue
		}
		items = append(items, item)
	}
	return &dyn.ScanOutput{Items: items}, nil
}

func matchesFilter(item map[string]types.AttributeValue, params *dyn.ScanInput) bool {
	var attr, placeholder string
	switch *params.FilterExpression {
	case "user_id = :u":
		attr, placeholder = "user_id", ":u"
	case "#s = :s":
		attr, placeholder = "status", ":s"
	case "category = :c":
		attr, placeholder = "category", ":c"
	default:
		return false
	}
	got, ok := item[attr].(*types.AttributeValueMemberS)
	want := params.ExpressionAttributeValues[placeholder].(*types.AttributeValueMemberS)
	return ok && got.Value == want.Value
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// check all conditions first; all-or-nothing
	for _, ti := range params.TransactItems {
		if ti.Put == nil {
			continue
		}
		if ti.Put.ConditionExpression != nil && strings.Contains(*ti.Put.ConditionExpression, "attribute_not_exists") {
			pk := pkOf(*ti.Put.TableName, ti.Put.Item)
			if _, exists := m.tables[*ti.Put.TableName][pk]; exists {
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	for _, ti := range params.TransactItems {
		if ti.Put == nil {
			continue
		}
		pk := pkOf(*ti.Put.TableName, ti.Put.Item)
		m.tables[*ti.Put.TableName][pk] = ti.Put.Item
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

// mockSQS records sent bodies and can be scripted to fail.
type mockSQS struct {
	mu     sync.Mutex
	sent   []string
	failOn bool
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn {
		return nil, errors.New("queue unavailable")
	}
	m.sent = append(m.sent, *params.MessageBody)
	return &sqs.SendMessageOutput{}, nil
}
