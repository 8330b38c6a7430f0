package commands_test

import (
	"errors"
	"testing"
	"time"

	"freight/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewPurgeIdempotencyRecordsCommand_RejectsShortRetention(t *testing.T) {
	_, err := commands.NewPurgeIdempotencyRecordsCommand(59 * time.Minute)

	require.Error(t, err)
}

func TestPurgeIdempotencyRecordsCommandHandler_Handle(t *testing.T) {
	// Arrange
	ctx := t.Context()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	uow := new(MockUoW)
	factory := new(MockIdempotencyUoWFactory)
	records := new(MockIdempotencyRepository)
	factory.On("Create").Return(uow)
	uow.On("IdempotencyRepository").Return(records)
	uow.On("Rollback", mock.Anything).Return(nil)

	mock.InOrder(
		uow.On("Begin", mock.Anything).Return(nil).Once(),
		records.On("DeleteOlderThan", mock.Anything, now.Add(-30*24*time.Hour)).Return(int64(4), nil).Once(),
		uow.On("Commit", mock.Anything).Return(nil).Once(),
	)

	cmd, err := commands.NewPurgeIdempotencyRecordsCommand(30 * 24 * time.Hour)
	require.NoError(t, err)
	handler := commands.NewPurgeIdempotencyRecordsCommandHandler(factory, fixedClock{now: now})

	// Act
	deleted, err := handler.Handle(ctx, cmd)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	uow.AssertExpectations(t)
	records.AssertExpectations(t)
}

func TestPurgeIdempotencyRecordsCommandHandler_Handle_DeleteFails(t *testing.T) {
	// Arrange
	ctx := t.Context()
	uow := new(MockUoW)
	factory := new(MockIdempotencyUoWFactory)
	records := new(MockIdempotencyRepository)
	factory.On("Create").Return(uow)
	uow.On("IdempotencyRepository").Return(records)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback", mock.Anything).Return(nil)
	records.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	cmd, err := commands.NewPurgeIdempotencyRecordsCommand(time.Hour)
	require.NoError(t, err)
	handler := commands.NewPurgeIdempotencyRecordsCommandHandler(factory, fixedClock{now: time.Now()})

	// Act
	deleted, err := handler.Handle(ctx, cmd)

	// Assert
	require.Error(t, err)
	assert.Zero(t, deleted)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	uow.AssertCalled(t, "Rollback", mock.Anything)
}

func TestPurgeIdempotencyRecordsCommandHandler_Handle_UnconstructedCommand(t *testing.T) {
	handler := commands.NewPurgeIdempotencyRecordsCommandHandler(new(MockIdempotencyUoWFactory), fixedClock{})

	_, err := handler.Handle(t.Context(), commands.PurgeIdempotencyRecordsCommand{})

	require.ErrorIs(t, err, commands.ErrPurgeIdempotencyRecordsCommandIsNotConstructed)
}
