package requests

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question       string  `json:"question" validate:"required"`
	ConversationID *string `json:"conversation_id,omitempty"`
}

// CreateConversationRequest is the optional body of POST /api/v1/conversations.
type CreateConversationRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=255"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest accepts the OAuth2 password form fields, or the same names as JSON.
type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// UpdateUserRequest is a partial update; omitted fields stay unchanged.
type UpdateUserRequest struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
	IsVerified  *bool   `json:"is_verified,omitempty"`
}
