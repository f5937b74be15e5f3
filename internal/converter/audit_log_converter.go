package converter

import (
	"go-healthcare-practice/internal/delivery/dto"
	"go-healthcare-practice/internal/domain/entity"
)

func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	if log == nil {
		return nil
	}

	return &dto.AuditLogResponse{
		ID:           log.ID,
		UserID:       log.UserID,
		User:         UserToSummary(log.User),
		Action:       log.Action,
		ResourceType: log.ResourceType,
		ResourceID:   log.ResourceID,
		Description:  log.Description,
		IPAddress:    log.IPAddress,
		UserAgent:    log.UserAgent,
		Metadata:     log.Metadata,
		CreatedAt:    log.CreatedAt,
	}
}

func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, len(logs))
	for i := range logs {
		responses[i] = *AuditLogToResponse(&logs[i])
	}
	return responses
}
