package domain

import "time"

// User is a community member discovered on Reddit. It is created in Found
// status by the discovery flow and moves to Approved or Denied when a
// moderator records a review decision.
type User struct {
	ID            int64           `json:"id" dynamodbav:"user_id"`
	Username      string          `json:"username" dynamodbav:"username"`
	PasswordHash  string          `json:"-" dynamodbav:"password_hash"`
	Status        Status          `json:"status" dynamodbav:"status"`
	StatusChanged time.Time       `json:"status_changed" dynamodbav:"status_changed,unixtime"`
	Reviewer      string          `json:"reviewer" dynamodbav:"reviewer"`
	Discoverer    string          `json:"discoverer" dynamodbav:"discoverer"`
	Title         string          `json:"title" dynamodbav:"title"`
	Properties    UserProperties  `json:"properties" dynamodbav:"properties"`
	Permissions   UserPermissions `json:"permissions" dynamodbav:"permissions"`
	Created       time.Time       `json:"created" dynamodbav:"created,unixtime"`
}

// UserProperties are the self-service profile fields a user or moderator may
// change after creation.
type UserProperties struct {
	Avatar      string `json:"avatar,omitempty" dynamodbav:"avatar"`
	Description string `json:"description,omitempty" dynamodbav:"description"`
}

// UserPermissions are capability flags, not roles. A user may hold any
// combination.
type UserPermissions struct {
	Admin      bool `json:"admin" dynamodbav:"admin"`
	Moderator  bool `json:"moderator" dynamodbav:"moderator"`
	Submit     bool `json:"submit" dynamodbav:"submit"`
	ReviewUser bool `json:"review_user" dynamodbav:"review_user"`
	Login      bool `json:"login" dynamodbav:"login"`
}

// OTP is a single-use login code delivered to the user by Reddit private
// message. Expired rows are reaped by the DynamoDB table TTL.
type OTP struct {
	Code      string    `json:"-" dynamodbav:"code"`
	UserID    int64     `json:"-" dynamodbav:"user_id"`
	ExpiresAt int64     `json:"-" dynamodbav:"expires_at"`
	Created   time.Time `json:"-" dynamodbav:"created"`
}

// SubmitUserRequest is the discovery submission payload.
type SubmitUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

// UpdatePropertyRequest changes a single profile property.
type UpdatePropertyRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"max=1024"`
}

// ChangePasswordRequest changes the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}
