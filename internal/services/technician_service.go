package services

import (
	"context"

	model "techtrack.com/techtrack/internal/models"
	repository "techtrack.com/techtrack/internal/repositories"
)

type TechnicianService struct {
	repo *repository.TechnicianRepository
}

func NewTechnicianService(repo *repository.TechnicianRepository) *TechnicianService {
	return &TechnicianService{repo: repo}
}

type TechnicianInput struct {
	UserID    *string
	Name      string
	Email     string
	IsCurrent bool
}

func (s *TechnicianService) Create(ctx context.Context, in TechnicianInput) (*model.Technician, error) {
	tech := &model.Technician{
		UserID:    in.UserID,
		Name:      in.Name,
		Email:     in.Email,
		IsCurrent: in.IsCurrent,
	}
	if err := s.repo.Create(ctx, tech); err != nil {
		return nil, err
	}
	return tech, nil
}

func (s *TechnicianService) Update(ctx context.Context, id string, in TechnicianInput) (*model.Technician, error) {
	tech, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tech.UserID = in.UserID
	tech.Name = in.Name
	tech.Email = in.Email
	tech.IsCurrent = in.IsCurrent

	if err := s.repo.Update(ctx, tech); err != nil {
		return nil, err
	}
	return tech, nil
}

func (s *TechnicianService) Get(ctx context.Context, id string) (*model.Technician, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TechnicianService) List(ctx context.Context) ([]model.Technician, error) {
	return s.repo.List(ctx)
}

func (s *TechnicianService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
