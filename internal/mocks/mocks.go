package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/spam"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, userID, username, content, role string) (models.Message, error) {
	args := m.Called(ctx, roomID, userID, username, content, role)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetRecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) IsBlocked(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	args := m.Called(ctx, userID, blocked)
	return args.Error(0)
}

func (m *UserRepositoryMock) CountBlocked(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type ModerationRepositoryMock struct {
	mock.Mock
}

func (m *ModerationRepositoryMock) CreateLog(ctx context.Context, entry models.ModerationLog) (models.ModerationLog, error) {
	args := m.Called(ctx, entry)
	var log models.ModerationLog
	if val := args.Get(0); val != nil {
		log = val.(models.ModerationLog)
	}
	return log, args.Error(1)
}

func (m *ModerationRepositoryMock) ListLogs(ctx context.Context, limit int) ([]models.ModerationLog, error) {
	args := m.Called(ctx, limit)
	var logs []models.ModerationLog
	if val := args.Get(0); val != nil {
		logs = val.([]models.ModerationLog)
	}
	return logs, args.Error(1)
}

func (m *ModerationRepositoryMock) CountLogs(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type StreamRepositoryMock struct {
	mock.Mock
}

func (m *StreamRepositoryMock) MarkLive(ctx context.Context, roomID, playbackURL string) error {
	args := m.Called(ctx, roomID, playbackURL)
	return args.Error(0)
}

func (m *StreamRepositoryMock) MarkOffline(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *StreamRepositoryMock) GetStream(ctx context.Context, roomID string) (models.Stream, error) {
	args := m.Called(ctx, roomID)
	var stream models.Stream
	if val := args.Get(0); val != nil {
		stream = val.(models.Stream)
	}
	return stream, args.Error(1)
}

type HistoryStoreMock struct {
	mock.Mock
}

func (m *HistoryStoreMock) Append(ctx context.Context, userID, content string) ([]spam.Entry, error) {
	args := m.Called(ctx, userID, content)
	var entries []spam.Entry
	if val := args.Get(0); val != nil {
		entries = val.([]spam.Entry)
	}
	return entries, args.Error(1)
}

func (m *HistoryStoreMock) Read(ctx context.Context, userID string) ([]spam.Entry, error) {
	args := m.Called(ctx, userID)
	var entries []spam.Entry
	if val := args.Get(0); val != nil {
		entries = val.([]spam.Entry)
	}
	return entries, args.Error(1)
}

type BlocklistMock struct {
	mock.Mock
}

func (m *BlocklistMock) Block(ctx context.Context, userID string, duration time.Duration) error {
	args := m.Called(ctx, userID, duration)
	return args.Error(0)
}

func (m *BlocklistMock) IsBlocked(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *BlocklistMock) Unblock(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// BroadcasterMock captures room fan-out without a hub.
type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) BroadcastRoom(roomID string, event models.RoomEvent) {
	m.Called(roomID, event)
}

// RecipientMock records events sent privately to one connection.
type RecipientMock struct {
	Events []models.RoomEvent
}

func (m *RecipientMock) Send(event models.RoomEvent) bool {
	m.Events = append(m.Events, event)
	return true
}
