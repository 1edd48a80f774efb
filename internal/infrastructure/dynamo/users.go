package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redditnobility/backend/internal/domain"
)

// Attribute names used in partial update maps.
const (
	fieldStatus        = "status"
	fieldStatusChanged = "status_changed"
	fieldReviewer      = "reviewer"
	fieldTitle         = "title"
	fieldProperties    = "properties"
	fieldPasswordHash  = "password_hash"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("username-index"),
		KeyConditionExpression:    aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": "username"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: username}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByStatus returns all users in the given status, ordered by creation
// time ascending. The status-index GSI keys on status with created as the
// range key, so the query comes back in first-discovered-first order without
// a client-side sort.
func (r *UserRepo) ListByStatus(ctx context.Context, status domain.Status) ([]domain.User, error) {
	var users []domain.User
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String("status-index"),
			KeyConditionExpression:    aws.String("#s = :s"),
			ExpressionAttributeNames:  map[string]string{"#s": fieldStatus},
			ExpressionAttributeValues: map[string]types.AttributeValue{":s": &types.AttributeValueMemberS{Value: string(status)}},
			ScanIndexForward:          aws.Bool(true),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.User
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		users = append(users, page...)
		if out.LastEvaluatedKey == nil {
			return users, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// UpdateStatus records a review decision: status, when it changed and who
// made the call, as one update.
func (r *UserRepo) UpdateStatus(ctx context.Context, userID int64, status domain.Status, reviewer string, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{
		fieldStatus:        string(status),
		fieldStatusChanged: at.Unix(),
		fieldReviewer:      reviewer,
	})
}

func (r *UserRepo) UpdateTitle(ctx context.Context, userID int64, title string) error {
	return r.update(ctx, userID, map[string]interface{}{fieldTitle: title})
}

func (r *UserRepo) UpdateProperties(ctx context.Context, userID int64, props domain.UserProperties) error {
	return r.update(ctx, userID, map[string]interface{}{fieldProperties: props})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.update(ctx, userID, map[string]interface{}{fieldPasswordHash: passwordHash})
}

// Delete removes a user record entirely. Used when the upstream identity is
// confirmed gone; there is nothing worth keeping.
func (r *UserRepo) Delete(ctx context.Context, userID int64) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("user_id", userID),
	})
	return err
}

func (r *UserRepo) update(ctx context.Context, userID int64, updates map[string]interface{}) error {
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       numKey("user_id", userID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// CountDiscovered counts users created at or after since. discoverer narrows
// the count to one submitter; empty counts everyone. A zero since counts all
// time.
func (r *UserRepo) CountDiscovered(ctx context.Context, discoverer string, since time.Time) (int64, error) {
	filter := "#c >= :since"
	names := map[string]string{"#c": "created"}
	values := map[string]types.AttributeValue{
		":since": timeAttr(since),
	}
	if discoverer != "" {
		filter += " AND #d = :d"
		names["#d"] = "discoverer"
		values[":d"] = &types.AttributeValueMemberS{Value: discoverer}
	}
	return r.count(ctx, filter, names, values)
}

// CountReviewed counts users whose status left Found at or after since.
// reviewer narrows the count to one moderator; empty counts everyone.
func (r *UserRepo) CountReviewed(ctx context.Context, reviewer string, since time.Time) (int64, error) {
	filter := "#s <> :found AND #sc >= :since"
	names := map[string]string{"#s": fieldStatus, "#sc": fieldStatusChanged}
	values := map[string]types.AttributeValue{
		":found": &types.AttributeValueMemberS{Value: string(domain.StatusFound)},
		":since": timeAttr(since),
	}
	if reviewer != "" {
		filter += " AND #r = :r"
		names["#r"] = fieldReviewer
		values[":r"] = &types.AttributeValueMemberS{Value: reviewer}
	}
	return r.count(ctx, filter, names, values)
}

func (r *UserRepo) count(ctx context.Context, filter string, names map[string]string, values map[string]types.AttributeValue) (int64, error) {
	var total int64
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			Select:                    types.SelectCount,
			FilterExpression:          aws.String(filter),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, err
		}
		total += int64(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// timeAttr marshals a time the same way the unixtime-tagged struct fields are
// stored: a numeric epoch-seconds attribute. Numeric comparison avoids the
// lexicographic pitfalls of RFC3339 strings, whose variable-width fractions
// misorder timestamps inside the same second.
func timeAttr(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}
