package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

type MemberService struct {
	store  domain.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewMemberService(store domain.Store, logger *slog.Logger) *MemberService {
	return &MemberService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

type CreateMemberRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

func (s *MemberService) Create(req CreateMemberRequest) (*domain.Member, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := strings.TrimSpace(req.Email)
	if firstName == "" || lastName == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "first_name and last_name are required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.NewAppError(errors.InvalidInput, "a valid email is required")
	}

	t := s.now().UTC()
	member := &domain.Member{
		ID:             uuid.New(),
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		Phone:          req.Phone,
		Address:        req.Address,
		MembershipDate: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
	}
	if err := s.store.Members().CreateMember(member); err != nil {
		return nil, err
	}

	s.logger.Info("Member created", "member_id", member.ID)
	return member, nil
}

func (s *MemberService) Get(id uuid.UUID) (*domain.Member, error) {
	return s.store.Members().GetMember(id)
}

func (s *MemberService) List() ([]domain.Member, error) {
	return s.store.Members().ListMembers()
}

// UpdateMemberRequest carries partial updates; nil fields are left untouched.
type UpdateMemberRequest struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
}

func (s *MemberService) Update(id uuid.UUID, req UpdateMemberRequest) (*domain.Member, error) {
	var updated *domain.Member
	err := s.store.WithTransaction(func(tx domain.Store) error {
		member, err := tx.Members().GetMember(id)
		if err != nil {
			return err
		}

		if req.FirstName != nil {
			member.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			member.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			member.Email = strings.TrimSpace(*req.Email)
		}
		if req.Phone != nil {
			member.Phone = *req.Phone
		}
		if req.Address != nil {
			member.Address = *req.Address
		}

		if err := tx.Members().UpdateMember(member); err != nil {
			return err
		}
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *MemberService) Delete(id uuid.UUID) error {
	return s.store.Members().DeleteMember(id)
}
