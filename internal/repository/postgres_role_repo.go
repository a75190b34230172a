package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/boardman/internal/model"
)

// PostgresRoleRepo はPostgreSQLを使用したロールリポジトリ。
type PostgresRoleRepo struct {
	db *sql.DB
}

// NewPostgresRoleRepo はPostgresRoleRepoを生成する。
func NewPostgresRoleRepo(db *sql.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{db: db}
}

// Create はロールを作成し、採番されたIDをrole.IDに書き戻す。
func (r *PostgresRoleRepo) Create(ctx context.Context, role *model.Role) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`,
		role.Name, role.Description,
	).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to insert role: %w", err)
	}
	return nil
}

// FindByName はロール名でロールを検索する。見つからない場合はnilを返す。
func (r *PostgresRoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM roles WHERE name = $1`,
		name,
	).Scan(&role.ID, &role.Name, &role.Description)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find role: %w", err)
	}

	return role, nil
}

// ListByUserID はユーザーに付与された全ロールを返す。
func (r *PostgresRoleRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.name, r.description
		 FROM roles r
		 JOIN roles_users ru ON ru.role_id = r.id
		 WHERE ru.user_id = $1
		 ORDER BY r.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		role := &model.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

// AssignToUser はユーザーにロールを付与する。
func (r *PostgresRoleRepo) AssignToUser(ctx context.Context, userID string, roleID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles_users (user_id, role_id) VALUES ($1, $2)`,
		userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RoleRepository = (*PostgresRoleRepo)(nil)
