package usecase_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/edgard/chatmessages/internal/domain/model"
	apperrors "github.com/edgard/chatmessages/internal/errors"
)

// memoryRepo is an in-memory MessageRepository keeping insertion order.
type memoryRepo struct {
	mu       sync.Mutex
	messages []model.Message
}

func (r *memoryRepo) Save(_ context.Context, msg model.Message) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.ID() == msg.ID() {
			return model.Message{}, apperrors.NewDuplicateKeyError(fmt.Sprintf("message_id %q already exists", msg.ID()), nil)
		}
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

func (r *memoryRepo) matching(sessionID, sender string) []model.Message {
	var out []model.Message
	for _, m := range r.messages {
		if m.SessionID() != sessionID {
			continue
		}
		if sender != "" && m.Sender().String() != sender {
			continue
		}
		out = append(out, m)
	}
	// Stable sort keeps insertion order for equal timestamps.
	slices.SortStableFunc(out, func(a, b model.Message) int {
		return a.Timestamp().Compare(b.Timestamp())
	})
	return out
}

func (r *memoryRepo) GetBySession(_ context.Context, sessionID string, limit, offset int, sender string) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.matching(sessionID, sender)
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *memoryRepo) CountBySession(_ context.Context, sessionID string, sender string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(sessionID, sender)), nil
}

// mockRepo records calls where expectations matter.
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, msg model.Message) (model.Message, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(model.Message), args.Error(1)
}

func (m *mockRepo) GetBySession(ctx context.Context, sessionID string, limit, offset int, sender string) ([]model.Message, error) {
	args := m.Called(ctx, sessionID, limit, offset, sender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockRepo) CountBySession(ctx context.Context, sessionID string, sender string) (int, error) {
	args := m.Called(ctx, sessionID, sender)
	return args.Int(0), args.Error(1)
}
