package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redditnobility/backend/internal/domain"
)

// OTPRepo stores one-time login codes. Rows carry an expires_at epoch that
// the table TTL reaps; GetByCode still checks expiry because TTL deletion is
// lazy.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, otp *domain.OTP) error {
	item, err := attributevalue.MarshalMap(otp)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) GetByCode(ctx context.Context, code string) (*domain.OTP, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("code", code),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp: %w", domain.ErrNotFound)
	}
	var otp domain.OTP
	if err := attributevalue.UnmarshalMap(out.Item, &otp); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *OTPRepo) Delete(ctx context.Context, code string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("code", code),
	})
	return err
}
