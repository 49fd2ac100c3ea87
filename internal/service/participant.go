package service

import (
	"context"
	"fmt"

	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/repository"
)

// ParticipantService persists participant profiles so a reconnecting
// caller can recover its identifier and mark.
type ParticipantService interface {
	CreateOrUpdate(ctx context.Context, participant *entity.Participant) error
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
}

type participantService struct {
	participantRepo repository.ParticipantRepository
}

func NewParticipantService(participantRepo repository.ParticipantRepository) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
	}
}

func (that *participantService) CreateOrUpdate(ctx context.Context, participant *entity.Participant) error {
	if err := that.participantRepo.CreateOrUpdate(ctx, participant); err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}

	return nil
}

func (that *participantService) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	participant, err := that.participantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant by id: %w", err)
	}

	return participant, nil
}
