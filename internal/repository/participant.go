package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/crumplecup/strictly-games-sub000/internal/entity"
)

var ErrParticipantNotFound = errors.New("participant not found")

type ParticipantRepository interface {
	CreateOrUpdate(ctx context.Context, participant *entity.Participant) error
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbParticipant struct {
	client *redis.Client
}

func NewParticipantRepository(client *redis.Client) ParticipantRepository {
	return &dbParticipant{
		client: client,
	}
}

func (that *dbParticipant) CreateOrUpdate(ctx context.Context, participant *entity.Participant) error {
	participantJSON, err := json.Marshal(participant)
	if err != nil {
		return fmt.Errorf("failed to marshal participant: %w", err)
	}

	participantKey := "participant:" + participant.ID
	err = that.client.Set(ctx, participantKey, participantJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set participant: %w", err)
	}

	return nil
}

func (that *dbParticipant) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	participantKey := "participant:" + id

	response, err := that.client.Get(ctx, participantKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrParticipantNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get participant by ID: %w", err)
	}

	var existingParticipant entity.Participant
	if err = json.Unmarshal([]byte(response), &existingParticipant); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participant: %w", err)
	}

	return &existingParticipant, nil
}

func (that *dbParticipant) DeleteByID(ctx context.Context, id string) error {
	participantKey := "participant:" + id

	err := that.client.Del(ctx, participantKey).Err()
	if err != nil {
		return fmt.Errorf("failed to delete participant by ID: %w", err)
	}

	return nil
}
