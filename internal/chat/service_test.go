package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stream-chat-service/internal/mocks"
	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
	"stream-chat-service/internal/spam"
	"stream-chat-service/internal/telemetry"
)

type pipelineFixture struct {
	messages   *mocks.MessageRepositoryMock
	users      *mocks.UserRepositoryMock
	moderation *mocks.ModerationRepositoryMock
	history    *mocks.HistoryStoreMock
	blocklist  *mocks.BlocklistMock
	rooms      *mocks.BroadcasterMock
	sender     *mocks.RecipientMock
	service    *Service
	now        time.Time
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		messages:   new(mocks.MessageRepositoryMock),
		users:      new(mocks.UserRepositoryMock),
		moderation: new(mocks.ModerationRepositoryMock),
		history:    new(mocks.HistoryStoreMock),
		blocklist:  new(mocks.BlocklistMock),
		rooms:      new(mocks.BroadcasterMock),
		sender:     new(mocks.RecipientMock),
		now:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	detector := spam.NewDetector(func() time.Time { return f.now })
	f.service = NewService(f.messages, f.users, f.moderation, f.history, f.blocklist, detector, f.rooms, nil)
	return f
}

func (f *pipelineFixture) allowSend(userID string) {
	f.blocklist.On("IsBlocked", mock.Anything, userID).Return(false, nil).Once()
	f.users.On("IsBlocked", mock.Anything, userID).Return(false, nil).Once()
}

// withHistory sets up the Append result: the sender's prior entries, all
// stamped one second before the current clock.
func (f *pipelineFixture) withHistory(userID, candidate string, prior ...string) {
	entries := make([]spam.Entry, 0, len(prior))
	for _, content := range prior {
		entries = append(entries, spam.Entry{Content: content, Timestamp: f.now.Add(-time.Second)})
	}
	f.history.On("Append", mock.Anything, userID, candidate).Return(entries, nil).Once()
}

func payload() models.SendMessagePayload {
	return models.SendMessagePayload{
		UserID:   "u1",
		Username: "alice",
		Content:  "hello room",
		RoomID:   "room1",
		Role:     models.RoleViewer,
	}
}

func TestProcessMessageDelivered(t *testing.T) {
	f := newPipelineFixture()
	p := payload()
	f.allowSend(p.UserID)
	f.withHistory(p.UserID, p.Content)

	stored := models.Message{ID: 7, RoomID: p.RoomID, UserID: p.UserID, Content: p.Content}
	f.messages.On("CreateMessage", mock.Anything, p.RoomID, p.UserID, p.Username, p.Content, models.RoleViewer).
		Return(stored, nil).Once()
	f.rooms.On("BroadcastRoom", p.RoomID, mock.MatchedBy(func(ev models.RoomEvent) bool {
		return ev.Type == models.EventReceiveMessage
	})).Once()

	f.service.ProcessMessage(context.Background(), f.sender, p)

	assert.Empty(t, f.sender.Events)
	f.messages.AssertExpectations(t)
	f.rooms.AssertExpectations(t)
}

func TestProcessMessageEphemeralBlockShortCircuits(t *testing.T) {
	f := newPipelineFixture()
	p := payload()
	f.blocklist.On("IsBlocked", mock.Anything, p.UserID).Return(true, nil).Once()

	f.service.ProcessMessage(context.Background(), f.sender, p)

	require.Len(t, f.sender.Events, 1)
	assert.Equal(t, models.EventBlocked, f.sender.Events[0].Type)
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
	f.rooms.AssertNotCalled(t, "BroadcastRoom", mock.Anything, mock.Anything)
}

func TestProcessMessagePersistentFlagBlocks(t *testing.T) {
	f := newPipelineFixture()
	p := payload()
	f.blocklist.On("IsBlocked", mock.Anything, p.UserID).Return(false, nil).Once()
	f.users.On("IsBlocked", mock.Anything, p.UserID).Return(true, nil).Once()

	f.service.ProcessMessage(context.Background(), f.sender, p)

	require.Len(t, f.sender.Events, 1)
	assert.Equal(t, models.EventBlocked, f.sender.Events[0].Type)
	f.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessageSpamEnforced(t *testing.T) {
	f := newPipelineFixture()
	p := payload()
	f.allowSend(p.UserID)
	f.withHistory(p.UserID, p.Content, p.Content, p.Content, p.Content)

	f.blocklist.On("Block", mock.Anything, p.UserID, spam.MuteDuration).Return(nil).Once()
	f.users.On("SetBlocked", mock.Anything, p.UserID, true).Return(nil).Once()
	f.moderation.On("CreateLog", mock.Anything, mock.MatchedBy(func(l models.ModerationLog) bool {
		return l.UserID == p.UserID &&
			l.Reason == spam.ReasonRepetitiveContent &&
			l.Action == models.ActionTemporaryMute &&
			strings.Contains(l.Detail, p.Content)
	})).Return(models.ModerationLog{ID: 1}, nil).Once()
	f.rooms.On("BroadcastRoom", p.RoomID, mock.MatchedBy(func(ev models.RoomEvent) bool {
		payload, ok := ev.Payload.(models.UserBlockedPayload)
		return ev.Type == models.EventUserBlocked && ok && payload.UserID == p.UserID
	})).Once()

	f.service.ProcessMessage(context.Background(), f.sender, p)

	require.Len(t, f.sender.Events, 1)
	assert.Equal(t, models.EventBlocked, f.sender.Events[0].Type)
	blocked, ok := f.sender.Events[0].Payload.(models.BlockedPayload)
	require.True(t, ok)
	assert.Equal(t, spam.ReasonRepetitiveContent, blocked.Reason)
	assert.Equal(t, 300, blocked.Duration)

	f.messages.AssertNotCalled(t, "CreateMessage",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.blocklist.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.moderation.AssertExpectations(t)
	f.rooms.AssertExpectations(t)
}

func TestProcessMessageSpamEmitsAudit(t *testing.T) {
	f := newPipelineFixture()
	publisher := new(mocks.PublisherMock)
	audit := telemetry.NewAuditEmitter(publisher, "moderation.audit", "stream-chat-service", "test")
	detector := spam.NewDetector(func() time.Time { return f.now })
	f.service = NewService(f.messages, f.users, f.moderation, f.history, f.blocklist, detector, f.rooms, audit)

	p := payload()
	f.allowSend(p.UserID)
	f.withHistory(p.UserID, p.Content, p.Content, p.Content, p.Content)
	f.blocklist.On("Block", mock.Anything, p.UserID, spam.MuteDuration).Return(nil).Once()
	f.users.On("SetBlocked", mock.Anything, p.UserID, true).Return(nil).Once()
	f.moderation.On("CreateLog", mock.Anything, mock.Anything).Return(models.ModerationLog{ID: 1}, nil).Once()
	f.rooms.On("BroadcastRoom", p.RoomID, mock.Anything).Once()
	publisher.On("Publish", mock.Anything, "moderation.audit", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok &&
			envelope.EventType == "moderation_audit" &&
			envelope.UserID == p.UserID &&
			envelope.Payload.Level == "WARN"
	})).Return(nil).Once()

	f.service.ProcessMessage(context.Background(), f.sender, p)

	publisher.AssertExpectations(t)
}

func TestProcessMessagePersistFailureDeliversNothing(t *testing.T) {
	f := newPipelineFixture()
	p := payload()
	f.allowSend(p.UserID)
	f.withHistory(p.UserID, p.Content)
	f.messages.On("CreateMessage", mock.Anything, p.RoomID, p.UserID, p.Username, p.Content, models.RoleViewer).
		Return(models.Message{}, assert.AnError).Once()

	f.service.ProcessMessage(context.Background(), f.sender, p)

	require.Len(t, f.sender.Events, 1)
	assert.Equal(t, models.EventError, f.sender.Events[0].Type)
	f.rooms.AssertNotCalled(t, "BroadcastRoom", mock.Anything, mock.Anything)
}

func TestDeleteMessageRequiresModerator(t *testing.T) {
	f := newPipelineFixture()

	f.service.DeleteMessage(context.Background(), f.sender, models.RoleViewer,
		models.DeleteMessagePayload{MessageID: 5, RoomID: "room1"})

	require.Len(t, f.sender.Events, 1)
	assert.Equal(t, models.EventError, f.sender.Events[0].Type)
	f.messages.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)
	f.rooms.AssertNotCalled(t, "BroadcastRoom", mock.Anything, mock.Anything)
}

func TestDeleteMessageFansOutRetraction(t *testing.T) {
	f := newPipelineFixture()
	f.messages.On("DeleteMessage", mock.Anything, 5).Return(nil).Once()
	f.rooms.On("BroadcastRoom", "room1", mock.MatchedBy(func(ev models.RoomEvent) bool {
		payload, ok := ev.Payload.(models.MessageDeletedPayload)
		return ev.Type == models.EventMessageDeleted && ok && payload.MessageID == 5
	})).Once()

	f.service.DeleteMessage(context.Background(), f.sender, models.RoleModerator,
		models.DeleteMessagePayload{MessageID: 5, RoomID: "room1"})

	assert.Empty(t, f.sender.Events)
	f.rooms.AssertExpectations(t)
}

func TestDeleteMessageUnknownIDStillFansOut(t *testing.T) {
	f := newPipelineFixture()
	f.messages.On("DeleteMessage", mock.Anything, 99).Return(repositories.ErrMessageNotFound).Once()
	f.rooms.On("BroadcastRoom", "room1", mock.MatchedBy(func(ev models.RoomEvent) bool {
		return ev.Type == models.EventMessageDeleted
	})).Once()

	f.service.DeleteMessage(context.Background(), f.sender, models.RoleModerator,
		models.DeleteMessagePayload{MessageID: 99, RoomID: "room1"})

	assert.Empty(t, f.sender.Events)
	f.rooms.AssertExpectations(t)
}

func TestDeleteMessageRepoError(t *testing.T) {
	f := newPipelineFixture()
	f.messages.On("DeleteMessage", mock.Anything, 5).Return(assert.AnError).Once()

	f.service.DeleteMessage(context.Background(), f.sender, models.RoleModerator,
		models.DeleteMessagePayload{MessageID: 5, RoomID: "room1"})

	require.Len(t, f.sender.Events, 1)
	assert.Equal(t, models.EventError, f.sender.Events[0].Type)
	f.rooms.AssertNotCalled(t, "BroadcastRoom", mock.Anything, mock.Anything)
}

func TestReactionBroadcastsEphemeralEvent(t *testing.T) {
	f := newPipelineFixture()
	f.rooms.On("BroadcastRoom", "room1", mock.MatchedBy(func(ev models.RoomEvent) bool {
		payload, ok := ev.Payload.(models.ReactionEventPayload)
		return ev.Type == models.EventReceiveReaction && ok && payload.Emoji == "🔥" && payload.ID != ""
	})).Once()

	f.service.Reaction(models.ReactionPayload{Emoji: "🔥", RoomID: "room1"})

	f.rooms.AssertExpectations(t)
}

func TestCheckBlockStatusBlocked(t *testing.T) {
	f := newPipelineFixture()
	f.blocklist.On("IsBlocked", mock.Anything, "u1").Return(true, nil).Once()

	f.service.CheckBlockStatus(context.Background(), f.sender, "u1")

	require.Len(t, f.sender.Events, 1)
	assert.Equal(t, models.EventBlocked, f.sender.Events[0].Type)
}

func TestCheckBlockStatusNotBlocked(t *testing.T) {
	f := newPipelineFixture()
	f.blocklist.On("IsBlocked", mock.Anything, "u1").Return(false, nil).Once()

	f.service.CheckBlockStatus(context.Background(), f.sender, "u1")

	assert.Empty(t, f.sender.Events)
}
