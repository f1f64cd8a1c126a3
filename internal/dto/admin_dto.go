package dto

import "github.com/ngimbabet/predictions-backend/internal/livesync"

type SubscriptionRequest struct {
	Tier    string `json:"tier"`
	Billing string `json:"billing,omitempty"`
}

type UserListResponse struct {
	Users []livesync.UserEntry `json:"users"`
	Total int                  `json:"total"`
}
