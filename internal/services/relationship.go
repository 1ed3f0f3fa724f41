package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/projecthub/backend/internal/models"
	"gorm.io/gorm"
)

// RelationshipService maintains symmetric friendship edges and the
// pending friend-request state between users. Friendship rows always
// come in mirrored pairs; every multi-row mutation runs in a single
// transaction so one side can never be committed without the other.
type RelationshipService struct {
	DB *gorm.DB
}

func NewRelationshipService(db *gorm.DB) *RelationshipService {
	return &RelationshipService{DB: db}
}

const (
	OutcomeSent          = "sent"
	OutcomeBecameFriends = "became_friends"
)

type RequestOutcome struct {
	Status  string                `json:"status"`
	Request *models.FriendRequest `json:"request"`
}

type ResolveAction string

const (
	ResolveAccept ResolveAction = "accept"
	ResolveReject ResolveAction = "reject"
)

func (s *RelationshipService) SendRequest(ctx context.Context, fromID, toID uuid.UUID) (*RequestOutcome, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}

	outcome := &RequestOutcome{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.First(&target, "id = ?", toID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var edge models.Friendship
		err := tx.Where(
			"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			fromID, toID, toID, fromID,
		).First(&edge).Error
		if err == nil {
			return ErrAlreadyFriends
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Mutual-interest shortcut: the target already asked us, so
		// accept their request instead of stacking a second one.
		var reverse models.FriendRequest
		err = tx.Where(
			"sender_id = ? AND receiver_id = ? AND status = ?",
			toID, fromID, models.FriendRequestPending,
		).First(&reverse).Error
		if err == nil {
			if err := tx.Model(&reverse).Update("status", models.FriendRequestAccepted).Error; err != nil {
				return err
			}
			if err := befriend(tx, fromID, toID); err != nil {
				return err
			}
			reverse.Status = models.FriendRequestAccepted
			outcome.Status = OutcomeBecameFriends
			outcome.Request = &reverse
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var pending models.FriendRequest
		err = tx.Where(
			"sender_id = ? AND receiver_id = ? AND status = ?",
			fromID, toID, models.FriendRequestPending,
		).First(&pending).Error
		if err == nil {
			return ErrDuplicateRequest
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		request := models.FriendRequest{
			SenderID:   fromID,
			ReceiverID: toID,
			Status:     models.FriendRequestPending,
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		outcome.Status = OutcomeSent
		outcome.Request = &request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// ResolveRequest accepts or rejects a pending request addressed to
// ownerID. Resolved requests are terminal: a second resolve attempt
// fails with ErrRequestNotFound because the lookup filters on pending.
func (s *RelationshipService) ResolveRequest(ctx context.Context, ownerID, requestID uuid.UUID, action ResolveAction) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(
			"id = ? AND receiver_id = ? AND status = ?",
			requestID, ownerID, models.FriendRequestPending,
		).First(&request).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}

		status := models.FriendRequestRejected
		if action == ResolveAccept {
			status = models.FriendRequestAccepted
		}
		if err := tx.Model(&request).Update("status", status).Error; err != nil {
			return err
		}
		request.Status = status

		if action == ResolveAccept {
			return befriend(tx, ownerID, request.SenderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// RemoveFriend deletes both directions of the edge. Removing an edge
// that does not exist succeeds silently.
func (s *RelationshipService) RemoveFriend(ctx context.Context, aID, bID uuid.UUID) error {
	return s.DB.WithContext(ctx).Where(
		"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		aID, bID, bID, aID,
	).Delete(&models.Friendship{}).Error
}

func (s *RelationshipService) AreFriends(ctx context.Context, aID, bID uuid.UUID) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", aID, bID).
		Count(&count).Error
	return count > 0, err
}

func (s *RelationshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var friends []models.User
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Order("users.username ASC").
		Find(&friends).Error
	return friends, err
}

func (s *RelationshipService) ListPendingRequests(ctx context.Context, ownerID uuid.UUID) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.DB.WithContext(ctx).Preload("Sender").
		Where("receiver_id = ? AND status = ?", ownerID, models.FriendRequestPending).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

// befriend inserts both directions of the edge, skipping rows that
// already exist.
func befriend(tx *gorm.DB, aID, bID uuid.UUID) error {
	pairs := [][2]uuid.UUID{{aID, bID}, {bID, aID}}
	for _, pair := range pairs {
		var edge models.Friendship
		err := tx.Where("user_id = ? AND friend_id = ?", pair[0], pair[1]).
			FirstOrCreate(&edge, models.Friendship{UserID: pair[0], FriendID: pair[1]}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
