package services

import (
	"context"
	"fmt"
	"strings"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
)

const msgInsufficientPoints = "Pontos insuficientes para resgatar a recompensa"

type LoyaltyService interface {
	GetProgram(ctx context.Context, businessID uuid.UUID) (*models.LoyaltyProgram, error)
	CreateProgram(ctx context.Context, businessID uuid.UUID, req ProgramRequest) (*models.LoyaltyProgram, error)
	UpdateProgram(ctx context.Context, businessID, id uuid.UUID, req ProgramRequest) (*models.LoyaltyProgram, error)

	ListRewards(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]*models.LoyaltyReward, error)
	CreateReward(ctx context.Context, businessID uuid.UUID, req RewardRequest) (*models.LoyaltyReward, error)
	UpdateReward(ctx context.Context, businessID, id uuid.UUID, req RewardRequest) (*models.LoyaltyReward, error)

	Balance(ctx context.Context, businessID, customerID uuid.UUID, limit, offset int) (*models.LoyaltyBalance, error)
	Redeem(ctx context.Context, businessID, customerID, rewardID uuid.UUID) (*models.LoyaltyBalance, error)
}

type ProgramRequest struct {
	Name              string  `json:"name"`
	PointsPerCurrency float64 `json:"points_per_currency"`
	Active            *bool   `json:"active"`
}

type RewardRequest struct {
	Name           string `json:"name"`
	PointsRequired int    `json:"points_required"`
	Active         *bool  `json:"active"`
}

type loyaltyService struct {
	store  *repositories.Store
	tx     repositories.Transactor
	events EventPublisher
}

func NewLoyaltyService(store *repositories.Store, tx repositories.Transactor, events EventPublisher) LoyaltyService {
	return &loyaltyService{store: store, tx: tx, events: events}
}

func (r ProgramRequest) apply(p *models.LoyaltyProgram) error {
	details := map[string]string{}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		details["name"] = "Nome é obrigatório"
	}
	if r.PointsPerCurrency <= 0 {
		details["points_per_currency"] = "Pontos por real deve ser maior que zero"
	}
	if len(details) > 0 {
		return common.ValidationError("Dados inválidos", details)
	}
	p.Name = name
	p.PointsPerCurrency = r.PointsPerCurrency
	if r.Active != nil {
		p.Active = *r.Active
	}
	return nil
}

func (r RewardRequest) apply(w *models.LoyaltyReward) error {
	details := map[string]string{}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		details["name"] = "Nome é obrigatório"
	}
	if r.PointsRequired <= 0 {
		details["points_required"] = "Pontos necessários deve ser maior que zero"
	}
	if len(details) > 0 {
		return common.ValidationError("Dados inválidos", details)
	}
	w.Name = name
	w.PointsRequired = r.PointsRequired
	if r.Active != nil {
		w.Active = *r.Active
	}
	return nil
}

func (s *loyaltyService) GetProgram(ctx context.Context, businessID uuid.UUID) (*models.LoyaltyProgram, error) {
	program, err := s.store.Loyalty.GetActiveProgram(ctx, businessID)
	if err != nil {
		return nil, notFoundOr(err, msgProgramNotFound, "get loyalty program")
	}
	return program, nil
}

// saveProgram writes the program and, when it is active, deactivates every
// other program of the business so exactly one stays active.
func (s *loyaltyService) saveProgram(ctx context.Context, program *models.LoyaltyProgram, create bool) error {
	return s.tx.WithinTx(ctx, func(tx *repositories.Store) error {
		var err error
		if create {
			err = tx.Loyalty.CreateProgram(ctx, program)
		} else {
			err = tx.Loyalty.UpdateProgram(ctx, program)
		}
		if err != nil {
			return err
		}
		if program.Active {
			return tx.Loyalty.DeactivatePrograms(ctx, program.BusinessID, program.ID)
		}
		return nil
	})
}

func (s *loyaltyService) CreateProgram(ctx context.Context, businessID uuid.UUID, req ProgramRequest) (*models.LoyaltyProgram, error) {
	program := &models.LoyaltyProgram{ID: uuid.New(), BusinessID: businessID, Active: true}
	if err := req.apply(program); err != nil {
		return nil, err
	}
	if err := s.saveProgram(ctx, program, true); err != nil {
		return nil, fmt.Errorf("create loyalty program: %w", err)
	}
	return program, nil
}

func (s *loyaltyService) UpdateProgram(ctx context.Context, businessID, id uuid.UUID, req ProgramRequest) (*models.LoyaltyProgram, error) {
	program, err := s.store.Loyalty.GetProgram(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgProgramNotFound, "get loyalty program")
	}
	if err := req.apply(program); err != nil {
		return nil, err
	}
	if err := s.saveProgram(ctx, program, false); err != nil {
		return nil, notFoundOr(err, msgProgramNotFound, "update loyalty program")
	}
	return program, nil
}

func (s *loyaltyService) ListRewards(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]*models.LoyaltyReward, error) {
	rewards, err := s.store.Loyalty.ListRewards(ctx, businessID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return rewards, nil
}

func (s *loyaltyService) CreateReward(ctx context.Context, businessID uuid.UUID, req RewardRequest) (*models.LoyaltyReward, error) {
	program, err := s.GetProgram(ctx, businessID)
	if err != nil {
		return nil, err
	}
	reward := &models.LoyaltyReward{ID: uuid.New(), BusinessID: businessID, ProgramID: program.ID, Active: true}
	if err := req.apply(reward); err != nil {
		return nil, err
	}
	if err := s.store.Loyalty.CreateReward(ctx, reward); err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}
	return reward, nil
}

func (s *loyaltyService) UpdateReward(ctx context.Context, businessID, id uuid.UUID, req RewardRequest) (*models.LoyaltyReward, error) {
	reward, err := s.store.Loyalty.GetReward(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgRewardNotFound, "get reward")
	}
	if err := req.apply(reward); err != nil {
		return nil, err
	}
	if err := s.store.Loyalty.UpdateReward(ctx, reward); err != nil {
		return nil, notFoundOr(err, msgRewardNotFound, "update reward")
	}
	return reward, nil
}

func (s *loyaltyService) Balance(ctx context.Context, businessID, customerID uuid.UUID, limit, offset int) (*models.LoyaltyBalance, error) {
	customer, err := s.store.Customers.GetByID(ctx, businessID, customerID)
	if err != nil {
		return nil, notFoundOr(err, msgCustomerNotFound, "get customer")
	}
	limit, offset = common.ValidatePaginationParams(limit, offset)
	history, err := s.store.Loyalty.ListTransactions(ctx, businessID, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list loyalty transactions: %w", err)
	}
	if history == nil {
		history = []*models.LoyaltyTransaction{}
	}
	return &models.LoyaltyBalance{CustomerID: customer.ID, Points: customer.LoyaltyPoints, Transactions: history}, nil
}

func (s *loyaltyService) Redeem(ctx context.Context, businessID, customerID, rewardID uuid.UUID) (*models.LoyaltyBalance, error) {
	reward, err := s.store.Loyalty.GetReward(ctx, businessID, rewardID)
	if err != nil {
		return nil, notFoundOr(err, msgRewardNotFound, "get reward")
	}
	if !reward.Active {
		return nil, common.FieldError("reward_id", "Recompensa inativa")
	}
	if _, err := s.store.Customers.GetByID(ctx, businessID, customerID); err != nil {
		return nil, notFoundOr(err, msgCustomerNotFound, "get customer")
	}

	var entry *models.LoyaltyTransaction
	var points int
	err = s.tx.WithinTx(ctx, func(tx *repositories.Store) error {
		balance, err := tx.Customers.AddPoints(ctx, businessID, customerID, -reward.PointsRequired)
		if err != nil {
			if repositories.IsNoRows(err) {
				return common.ValidationError(msgInsufficientPoints, nil)
			}
			return fmt.Errorf("deduct points: %w", err)
		}
		points = balance
		rewardRef := reward.ID
		entry = &models.LoyaltyTransaction{
			ID:         uuid.New(),
			BusinessID: businessID,
			CustomerID: customerID,
			Points:     -reward.PointsRequired,
			Reason:     "Resgate: " + reward.Name,
			RewardID:   &rewardRef,
		}
		return tx.Loyalty.CreateTransaction(ctx, entry)
	})
	if err != nil {
		if _, ok := common.AsAppError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("redeem reward: %w", err)
	}

	s.events.Publish(ctx, businessID, models.EventLoyaltyRewardRedeemed, map[string]interface{}{
		"customer_id": customerID,
		"reward":      reward,
		"points":      points,
	})
	return &models.LoyaltyBalance{CustomerID: customerID, Points: points, Transactions: []*models.LoyaltyTransaction{entry}}, nil
}
