package services

import (
	"github.com/google/uuid"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/logger"
	"gorm.io/gorm"
)

type ActivityEntry struct {
	UserID       uuid.UUID
	ActorID      uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	ResourceName string
	Message      string
}

// ActivityService writes feed rows off the request path through a
// buffered queue. A full queue drops the entry rather than blocking
// the handler.
type ActivityService struct {
	DB    *gorm.DB
	queue chan models.Activity
}

func NewActivityService(db *gorm.DB) *ActivityService {
	s := &ActivityService{
		DB:    db,
		queue: make(chan models.Activity, 1000),
	}
	go s.processQueue()
	return s
}

func (s *ActivityService) RecordAsync(entry ActivityEntry) {
	if entry.UserID == entry.ActorID {
		return // never notify users about their own actions
	}

	row := models.Activity{
		UserID:       entry.UserID,
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Message:      entry.Message,
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("activity_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

func (s *ActivityService) processQueue() {
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("activity_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}
