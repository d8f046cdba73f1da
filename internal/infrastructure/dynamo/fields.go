package dynamo

// DynamoDB attribute names used in key, condition and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID       = "user_id"
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldRoles        = "roles"
	fieldProvider     = "provider"
	fieldDeletedAt    = "deleted_at"
	fieldUpdatedAt    = "updated_at"
)
