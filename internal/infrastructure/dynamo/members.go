package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-member-api/internal/domain"
)

// MemberRepo provides typed DynamoDB operations for the members table.
//
// Email uniqueness is kept in a separate guard table keyed by email. Every
// write that claims or releases an email touches both tables in one
// transaction. Soft-deleted members release their email and are invisible to
// every lookup; their user id may be claimed again by a new sign-up.
type MemberRepo struct {
	client      *dynamodb.Client
	tableName   string
	emailsTable string
}

func NewMemberRepo(client *dynamodb.Client, tableName, emailsTable string) *MemberRepo {
	return &MemberRepo{client: client, tableName: tableName, emailsTable: emailsTable}
}

// emailGuard is one row of the email uniqueness table.
type emailGuard struct {
	Email  string `dynamodbav:"email"`
	UserID string `dynamodbav:"user_id"`
}

func (r *MemberRepo) FindByID(ctx context.Context, userID string) (*domain.Member, error) {
	m, err := r.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.IsDeleted() {
		return nil, fmt.Errorf("member %s: %w", userID, domain.ErrNotFound)
	}
	return m, nil
}

func (r *MemberRepo) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	g, err := r.guard(ctx, email)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("member with email %s: %w", email, domain.ErrNotFound)
	}
	return r.FindByID(ctx, g.UserID)
}

func (r *MemberRepo) ExistsByID(ctx context.Context, userID string) (bool, error) {
	m, err := r.get(ctx, userID)
	if err != nil {
		return false, err
	}
	return m != nil && !m.IsDeleted(), nil
}

func (r *MemberRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	g, err := r.guard(ctx, email)
	if err != nil {
		return false, err
	}
	return g != nil, nil
}

// Create inserts a new member and claims its email. Returns
// domain.ErrDuplicateConstraint when the user id or the email is taken.
func (r *MemberRepo) Create(ctx context.Context, m *domain.Member) error {
	items, err := r.createItems(m)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return fmt.Errorf("create member %s: %w", m.UserID, mapConditionErr(err))
	}
	return nil
}

// Save persists the mutable fields of an existing member, moving the email
// guard when the email changed and releasing it when the member was deleted.
func (r *MemberRepo) Save(ctx context.Context, m *domain.Member) error {
	prev, err := r.get(ctx, m.UserID)
	if err != nil {
		return err
	}
	if prev == nil || prev.IsDeleted() {
		return fmt.Errorf("member %s: %w", m.UserID, domain.ErrNotFound)
	}
	items, err := r.saveItems(prev.Email, m)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return fmt.Errorf("save member %s: %w", m.UserID, mapConditionErr(err))
	}
	return nil
}

func (r *MemberRepo) createItems(m *domain.Member) ([]types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return nil, fmt.Errorf("marshal member: %w", err)
	}
	guard, err := attributevalue.MarshalMap(emailGuard{Email: m.Email, UserID: m.UserID})
	if err != nil {
		return nil, fmt.Errorf("marshal email guard: %w", err)
	}
	return []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#id) OR attribute_exists(#del)"),
			ExpressionAttributeNames: map[string]string{"#id": fieldUserID, "#del": fieldDeletedAt},
		}},
		{Put: &types.Put{
			TableName:                aws.String(r.emailsTable),
			Item:                     guard,
			ConditionExpression:      aws.String("attribute_not_exists(#e)"),
			ExpressionAttributeNames: map[string]string{"#e": fieldEmail},
		}},
	}, nil
}

func (r *MemberRepo) saveItems(prevEmail string, m *domain.Member) ([]types.TransactWriteItem, error) {
	updates := map[string]interface{}{
		fieldEmail:        m.Email,
		fieldPasswordHash: m.PasswordHash,
		fieldRoles:        m.Roles,
		fieldProvider:     m.Provider,
		fieldUpdatedAt:    m.UpdatedAt,
	}
	if m.DeletedAt != nil {
		updates[fieldDeletedAt] = *m.DeletedAt
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	ue.Names["#id"] = fieldUserID
	items := []types.TransactWriteItem{
		{Update: &types.Update{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey(fieldUserID, m.UserID),
			UpdateExpression:          aws.String(ue.Expr),
			ConditionExpression:       aws.String("attribute_exists(#id)"),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		}},
	}

	release := m.IsDeleted() || prevEmail != m.Email
	if release {
		items = append(items, types.TransactWriteItem{Delete: &types.Delete{
			TableName:                 aws.String(r.emailsTable),
			Key:                       strKey(fieldEmail, prevEmail),
			ConditionExpression:       aws.String("#uid = :uid"),
			ExpressionAttributeNames:  map[string]string{"#uid": fieldUserID},
			ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: m.UserID}},
		}})
	}
	if !m.IsDeleted() && prevEmail != m.Email {
		guard, err := attributevalue.MarshalMap(emailGuard{Email: m.Email, UserID: m.UserID})
		if err != nil {
			return nil, fmt.Errorf("marshal email guard: %w", err)
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(r.emailsTable),
			Item:                     guard,
			ConditionExpression:      aws.String("attribute_not_exists(#e)"),
			ExpressionAttributeNames: map[string]string{"#e": fieldEmail},
		}})
	}
	return items, nil
}

// get returns the raw row including soft-deleted members, or nil when absent.
func (r *MemberRepo) get(ctx context.Context, userID string) (*domain.Member, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", userID, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var m domain.Member
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal member: %w", err)
	}
	return &m, nil
}

func (r *MemberRepo) guard(ctx context.Context, email string) (*emailGuard, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.emailsTable),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get email guard: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var g emailGuard
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return nil, fmt.Errorf("unmarshal email guard: %w", err)
	}
	return &g, nil
}
