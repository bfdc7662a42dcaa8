package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/observability"
	"stream-chat-service/internal/repositories"
	"stream-chat-service/internal/spam"
	"stream-chat-service/internal/telemetry"
)

// Rejection reasons sent privately to blocked senders.
const (
	reasonAccessRevoked = "ACCESS_REVOKED"
	reasonTemporaryMute = "ACCESS_RESTRICTED (TEMPORARY_MUTE)"
)

// RecentMessagesLimit is how many persisted messages the read surface
// returns per room.
const RecentMessagesLimit = 50

// Broadcaster fans events out to a room, best effort.
type Broadcaster interface {
	BroadcastRoom(roomID string, event models.RoomEvent)
}

// Recipient receives private events; the sending connection satisfies it.
type Recipient interface {
	Send(event models.RoomEvent) bool
}

// Service runs the inbound message pipeline: admission control, history
// update, classification, enforcement, persistence and fan-out.
//
// Delivery is fail-closed: a message is durably stored before any fan-out,
// and a persistence failure delivers nothing.
type Service struct {
	messages   repositories.MessageRepository
	users      repositories.UserRepository
	moderation repositories.ModerationRepository
	history    spam.HistoryStore
	blocklist  spam.Blocklist
	detector   *spam.Detector
	rooms      Broadcaster
	audit      *telemetry.AuditEmitter
}

// NewService wires the pipeline.
func NewService(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	moderation repositories.ModerationRepository,
	history spam.HistoryStore,
	blocklist spam.Blocklist,
	detector *spam.Detector,
	rooms Broadcaster,
	audit *telemetry.AuditEmitter,
) *Service {
	return &Service{
		messages:   messages,
		users:      users,
		moderation: moderation,
		history:    history,
		blocklist:  blocklist,
		detector:   detector,
		rooms:      rooms,
		audit:      audit,
	}
}

// ProcessMessage runs one inbound chat message through the pipeline.
func (s *Service) ProcessMessage(ctx context.Context, sender Recipient, p models.SendMessagePayload) {
	blocked, err := s.blocklist.IsBlocked(ctx, p.UserID)
	if err != nil {
		log.Printf("blocklist check failed for %s: %v", p.UserID, err)
	}
	if !blocked {
		persistent, err := s.users.IsBlocked(ctx, p.UserID)
		if err != nil {
			log.Printf("persistent block check failed for %s: %v", p.UserID, err)
		}
		blocked = persistent
	}
	if blocked {
		// Blocked senders never touch rate history or the classifier.
		sender.Send(models.RoomEvent{
			Type:    models.EventBlocked,
			Payload: models.BlockedPayload{Reason: reasonAccessRevoked},
		})
		return
	}

	prior, err := s.history.Append(ctx, p.UserID, p.Content)
	if err != nil {
		log.Printf("rate history append failed for %s: %v", p.UserID, err)
	}

	verdict := s.detector.Detect(p.Content, prior)
	if verdict.Spam {
		s.enforce(ctx, sender, p, verdict.Reason)
		return
	}

	msg, err := s.messages.CreateMessage(ctx, p.RoomID, p.UserID, p.Username, p.Content, roleOrDefault(p.Role))
	if err != nil {
		log.Printf("message persist failed for %s: %v", p.UserID, err)
		sender.Send(models.RoomEvent{
			Type:    models.EventError,
			Payload: models.ErrorPayload{Message: "message could not be stored"},
		})
		return
	}

	s.rooms.BroadcastRoom(p.RoomID, models.RoomEvent{Type: models.EventReceiveMessage, Payload: msg})
}

func (s *Service) enforce(ctx context.Context, sender Recipient, p models.SendMessagePayload, reason string) {
	duration := int(spam.MuteDuration.Seconds())

	if err := s.blocklist.Block(ctx, p.UserID, spam.MuteDuration); err != nil {
		log.Printf("blocklist set failed for %s: %v", p.UserID, err)
	}
	if err := s.users.SetBlocked(ctx, p.UserID, true); err != nil {
		log.Printf("persistent block set failed for %s: %v", p.UserID, err)
	}

	detail := fmt.Sprintf("Spam detected: %s. Muted for 5 minutes.", p.Content)
	if _, err := s.moderation.CreateLog(ctx, models.ModerationLog{
		UserID: p.UserID,
		Reason: reason,
		Action: models.ActionTemporaryMute,
		Detail: detail,
	}); err != nil {
		log.Printf("moderation log failed for %s: %v", p.UserID, err)
	}

	s.audit.Emit(ctx, "WARN", fmt.Sprintf("muted %s for 5 minutes due to %s", p.Username, reason), p.UserID)
	observability.IncSpamVerdict(reason)

	// The room learns who was muted and why, never the content.
	s.rooms.BroadcastRoom(p.RoomID, models.RoomEvent{
		Type: models.EventUserBlocked,
		Payload: models.UserBlockedPayload{
			UserID:   p.UserID,
			Username: p.Username,
			Reason:   reason,
			Duration: duration,
		},
	})
	sender.Send(models.RoomEvent{
		Type:    models.EventBlocked,
		Payload: models.BlockedPayload{Reason: reason, Duration: duration},
	})
	log.Printf("[moderation] muted %s for 5 minutes due to %s", p.Username, reason)
}

// DeleteMessage retracts a message by id, moderator role only. The
// retraction notice fans out even when the id was unknown; clients treat an
// unknown id as a no-op.
func (s *Service) DeleteMessage(ctx context.Context, sender Recipient, role string, p models.DeleteMessagePayload) {
	if role != models.RoleModerator {
		sender.Send(models.RoomEvent{
			Type:    models.EventError,
			Payload: models.ErrorPayload{Message: "moderator role required"},
		})
		return
	}

	if err := s.messages.DeleteMessage(ctx, p.MessageID); err != nil && !errors.Is(err, repositories.ErrMessageNotFound) {
		sender.Send(models.RoomEvent{
			Type:    models.EventError,
			Payload: models.ErrorPayload{Message: "message could not be deleted"},
		})
		return
	}

	s.rooms.BroadcastRoom(p.RoomID, models.RoomEvent{
		Type:    models.EventMessageDeleted,
		Payload: models.MessageDeletedPayload{MessageID: p.MessageID},
	})
}

// Reaction broadcasts an ephemeral reaction; nothing is persisted.
func (s *Service) Reaction(p models.ReactionPayload) {
	s.rooms.BroadcastRoom(p.RoomID, models.RoomEvent{
		Type:    models.EventReceiveReaction,
		Payload: models.ReactionEventPayload{Emoji: p.Emoji, ID: uuid.NewString()},
	})
}

// CheckBlockStatus tells the asking connection privately whether the user is
// currently muted.
func (s *Service) CheckBlockStatus(ctx context.Context, sender Recipient, userID string) {
	blocked, err := s.blocklist.IsBlocked(ctx, userID)
	if err != nil {
		log.Printf("blocklist check failed for %s: %v", userID, err)
		return
	}
	if blocked {
		sender.Send(models.RoomEvent{
			Type:    models.EventBlocked,
			Payload: models.BlockedPayload{Reason: reasonTemporaryMute},
		})
	}
}

func roleOrDefault(role string) string {
	if role == "" {
		return models.RoleViewer
	}
	return role
}
