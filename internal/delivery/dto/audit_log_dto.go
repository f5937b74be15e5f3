package dto

import (
	"time"

	"go-healthcare-practice/internal/domain/entity"

	"github.com/google/uuid"
)

type AuditLogListRequest struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

// Response DTOs

type AuditLogResponse struct {
	ID           int64        `json:"id"`
	UserID       *uuid.UUID   `json:"user_id,omitempty"`
	User         *UserSummary `json:"user,omitempty"`
	Action       string       `json:"action"`
	ResourceType string       `json:"resource_type"`
	ResourceID   string       `json:"resource_id,omitempty"`
	Description  string       `json:"description"`
	IPAddress    string       `json:"ip_address,omitempty"`
	UserAgent    string       `json:"user_agent,omitempty"`
	Metadata     entity.JSON  `json:"metadata,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
}
