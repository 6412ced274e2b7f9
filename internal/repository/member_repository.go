package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

type memberRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewMemberRepository(db SQLExecutor, logger *slog.Logger) domain.MemberRepository {
	return &memberRepository{
		db:     db,
		logger: logger,
	}
}

const memberColumns = `id, first_name, last_name, email, phone, address, membership_date, created_at, updated_at`

func (r *memberRepository) CreateMember(member *domain.Member) error {
	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		member.ID,
		member.FirstName,
		member.LastName,
		member.Email,
		nullableString(member.Phone),
		nullableString(member.Address),
		member.MembershipDate,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.logger.Warn("Duplicate member email", "email", member.Email)
			return errors.ErrDuplicateEmail
		}
		r.logger.Error("Failed to create member", "email", member.Email, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create member").WithDetails(err.Error())
	}

	member.CreatedAt = now
	member.UpdatedAt = now
	r.logger.Info("Member created", "member_id", member.ID)
	return nil
}

func (r *memberRepository) GetMember(id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return r.scanMember(query, id)
}

func (r *memberRepository) GetMemberForUpdate(id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	return r.scanMember(query, id)
}

func (r *memberRepository) scanMember(query string, id uuid.UUID) (*domain.Member, error) {
	var member domain.Member
	var phone, address sql.NullString

	err := r.db.QueryRow(query, id).Scan(
		&member.ID,
		&member.FirstName,
		&member.LastName,
		&member.Email,
		&phone,
		&address,
		&member.MembershipDate,
		&member.CreatedAt,
		&member.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrMemberNotFound
		}
		r.logger.Error("Failed to get member", "member_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get member").WithDetails(err.Error())
	}

	member.Phone = phone.String
	member.Address = address.String
	return &member, nil
}

func (r *memberRepository) ListMembers() ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY last_name, first_name`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list members", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list members").WithDetails(err.Error())
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var member domain.Member
		var phone, address sql.NullString

		if err := rows.Scan(
			&member.ID,
			&member.FirstName,
			&member.LastName,
			&member.Email,
			&phone,
			&address,
			&member.MembershipDate,
			&member.CreatedAt,
			&member.UpdatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan member").WithDetails(err.Error())
		}

		member.Phone = phone.String
		member.Address = address.String
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate members").WithDetails(err.Error())
	}
	return members, nil
}

func (r *memberRepository) UpdateMember(member *domain.Member) error {
	query := `
		UPDATE members
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := r.db.Exec(
		query,
		member.FirstName,
		member.LastName,
		member.Email,
		nullableString(member.Phone),
		nullableString(member.Address),
		time.Now(),
		member.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.ErrDuplicateEmail
		}
		r.logger.Error("Failed to update member", "member_id", member.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update member").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrMemberNotFound
	}

	r.logger.Info("Member updated", "member_id", member.ID)
	return nil
}

func (r *memberRepository) DeleteMember(id uuid.UUID) error {
	// Loans cascade with the member row; the loan history is owned by the
	// member record.
	result, err := r.db.Exec(`DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete member", "member_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to delete member").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrMemberNotFound
	}

	r.logger.Info("Member deleted", "member_id", id)
	return nil
}
