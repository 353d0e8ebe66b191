// Package ddb maps searchable documents to and from the DynamoDB table that
// feeds the search indexes. Items use the layout
//
//	pk     document ID
//	sk     index name
//	object document fields
package ddb

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// Document is a searchable document as stored in the table.
type Document struct {
	ID     string         `dynamodbav:"pk"`
	Index  string         `dynamodbav:"sk"`
	Fields map[string]any `dynamodbav:"object,omitempty"`
}

// Object returns the fields as an Algolia object keyed by objectID.
func (d Document) Object() map[string]any {
	obj := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		obj[k] = v
	}
	obj["objectID"] = d.ID
	return obj
}

// MarshalDocument converts a document into a DynamoDB item.
func MarshalDocument(d Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal document %s", d.ID)
	}
	return item, nil
}

// UnmarshalDocument converts a DynamoDB item into a document.
func UnmarshalDocument(item map[string]types.AttributeValue) (Document, error) {
	var d Document
	if err := attributevalue.UnmarshalMap(item, &d); err != nil {
		return Document{}, errors.Wrap(err, "failed to unmarshal document")
	}
	return d, nil
}

// UnmarshalStreamImage converts a stream image (NewImage, OldImage or Keys)
// into a document.
func UnmarshalStreamImage(image map[string]events.DynamoDBAttributeValue) (Document, error) {
	return UnmarshalDocument(FromStreamMap(image))
}

// FromStreamMap converts stream attribute values into SDK attribute values.
func FromStreamMap(m map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	if m == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(m))
	for k, v := range m {
		out[k] = FromStreamValue(v)
	}
	return out
}

// FromStreamValue converts one stream attribute value.
func FromStreamValue(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		items := v.List()
		list := make([]types.AttributeValue, len(items))
		for i, item := range items {
			list[i] = FromStreamValue(item)
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: FromStreamMap(v.Map())}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}
