package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

// GetOperatorByUsername возвращает учетную запись для выдачи токена.
// Отсутствие оператора — nil без ошибки (хендлер отдаст 401, не 500).
func (r *EventRepo) GetOperatorByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	query := `
		SELECT id, username, password_hash, role, created_at, updated_at
		FROM operators WHERE username = $1`

	op := &domain.Operator{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&op.ID, &op.Username, &op.PasswordHash, &op.Role, &op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return op, nil
}
