package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/pkg/logger"
)

// Service manages strategy definitions. Every write is validated here,
// so the engine can trust stored weights.
type Service struct {
	repo   contracts.StrategyRepository
	logger *logger.Logger
}

// NewService creates a new strategy service
func NewService(repo contracts.StrategyRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// List returns every strategy
func (s *Service) List(ctx context.Context) ([]contracts.Strategy, error) {
	return s.repo.ListStrategies(ctx)
}

// Get returns one strategy
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*contracts.Strategy, error) {
	return s.repo.GetStrategy(ctx, id)
}

// Create validates and stores a new strategy
func (s *Service) Create(ctx context.Context, in Input) (*contracts.Strategy, error) {
	in = normalize(in)
	if err := Validate(in); err != nil {
		return nil, err
	}

	st := &contracts.Strategy{
		ID:        uuid.New(),
		Name:      in.Name,
		SourceURL: in.URL,
		Weights:   in.Weights,
		OwnerID:   in.OwnerID,
	}
	if err := s.repo.CreateStrategy(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create strategy: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"strategy_id": st.ID.String(),
		"name":        st.Name,
		"default":     st.Weights == nil,
	}).Info("Strategy created")
	return st, nil
}

// Update replaces name, url, weights and owner of an existing strategy
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*contracts.Strategy, error) {
	in = normalize(in)
	if err := Validate(in); err != nil {
		return nil, err
	}

	st, err := s.repo.GetStrategy(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Name = in.Name
	st.SourceURL = in.URL
	st.Weights = in.Weights
	st.OwnerID = in.OwnerID

	if err := s.repo.UpdateStrategy(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to update strategy: %w", err)
	}

	s.logger.WithField("strategy_id", id.String()).Info("Strategy updated")
	return st, nil
}

// ImportResult counts what Import did
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Import upserts definitions by name. All definitions are validated before any write.
func (s *Service) Import(ctx context.Context, defs []Input) (ImportResult, error) {
	var result ImportResult
	for i, def := range defs {
		if err := Validate(normalize(def)); err != nil {
			return result, fmt.Errorf("strategy #%d: %w", i+1, err)
		}
	}

	existing, err := s.repo.ListStrategies(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list strategies: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(existing))
	for _, st := range existing {
		byName[st.Name] = st.ID
	}

	for _, def := range defs {
		def = normalize(def)
		if id, ok := byName[def.Name]; ok {
			if _, err := s.Update(ctx, id, def); err != nil {
				return result, err
			}
			result.Updated++
			continue
		}
		st, err := s.Create(ctx, def)
		if err != nil {
			return result, err
		}
		byName[st.Name] = st.ID
		result.Created++
	}
	return result, nil
}

func normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	return in
}
