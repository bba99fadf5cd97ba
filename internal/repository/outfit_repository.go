package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fitbook/internal/domain"

	"github.com/google/uuid"
)

var ErrOutfitNotFound = errors.New("outfit not found")

// OutfitRepository defines the interface for outfit data access
type OutfitRepository interface {
	Create(ctx context.Context, outfit *domain.Outfit) error
	Update(ctx context.Context, outfit *domain.Outfit) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Outfit, error)
	ListPublic(ctx context.Context, limit int, cursor *Cursor) ([]*domain.Outfit, *Cursor, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int, cursor *Cursor) ([]*domain.Outfit, *Cursor, error)
	Upvote(ctx context.Context, outfitID, userID uuid.UUID) error
	RemoveUpvote(ctx context.Context, outfitID, userID uuid.UUID) error
	SaveForUser(ctx context.Context, outfitID, userID uuid.UUID) error
	UnsaveForUser(ctx context.Context, outfitID, userID uuid.UUID) error
}

type outfitRepository struct {
	db *sql.DB
}

// NewOutfitRepository creates a new instance of OutfitRepository
func NewOutfitRepository(db *sql.DB) OutfitRepository {
	return &outfitRepository{db: db}
}

// Create inserts an outfit and its composition rows in one transaction
func (r *outfitRepository) Create(ctx context.Context, outfit *domain.Outfit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO outfits (id, owner_id, title, description, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		outfit.ID,
		outfit.OwnerID,
		outfit.Title,
		outfit.Description,
		outfit.IsPublic,
		outfit.CreatedAt,
		outfit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outfit: %w", err)
	}

	if err := insertOutfitItems(ctx, tx, outfit.ID, outfit.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outfit: %w", err)
	}
	return nil
}

// Update rewrites the outfit row and replaces the composition wholesale,
// mirroring the builder's save semantics.
func (r *outfitRepository) Update(ctx context.Context, outfit *domain.Outfit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE outfits
		SET title = $2, description = $3, is_public = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query, outfit.ID, outfit.Title, outfit.Description, outfit.IsPublic, outfit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update outfit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOutfitNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outfit_items WHERE outfit_id = $1`, outfit.ID); err != nil {
		return fmt.Errorf("failed to clear outfit items: %w", err)
	}
	if err := insertOutfitItems(ctx, tx, outfit.ID, outfit.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outfit update: %w", err)
	}
	return nil
}

func insertOutfitItems(ctx context.Context, tx *sql.Tx, outfitID uuid.UUID, items []domain.OutfitItem) error {
	query := `
		INSERT INTO outfit_items (id, outfit_id, wardrobe_item_id, position)
		VALUES ($1, $2, $3, $4)
	`

	for i := range items {
		oi := &items[i]
		if oi.ID == uuid.Nil {
			oi.ID = uuid.New()
		}
		oi.OutfitID = outfitID

		if _, err := tx.ExecContext(ctx, query, oi.ID, oi.OutfitID, oi.WardrobeItemID, oi.Position); err != nil {
			return fmt.Errorf("failed to insert outfit item: %w", err)
		}
	}
	return nil
}

// Delete removes an outfit; composition, upvotes and saves cascade
func (r *outfitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM outfits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete outfit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOutfitNotFound
	}

	return nil
}

const outfitSelect = `
	SELECT o.id, o.owner_id, o.title, o.description, o.is_public, o.created_at, o.updated_at,
	       (SELECT COUNT(*) FROM outfit_upvotes u WHERE u.outfit_id = o.id) AS upvotes
	FROM outfits o
`

func scanOutfit(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Outfit, error) {
	outfit := &domain.Outfit{}
	err := scanner.Scan(
		&outfit.ID,
		&outfit.OwnerID,
		&outfit.Title,
		&outfit.Description,
		&outfit.IsPublic,
		&outfit.CreatedAt,
		&outfit.UpdatedAt,
		&outfit.Upvotes,
	)
	return outfit, err
}

// FindByID retrieves an outfit with its composition and the referenced
// wardrobe items.
func (r *outfitRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Outfit, error) {
	outfit, err := scanOutfit(r.db.QueryRowContext(ctx, outfitSelect+" WHERE o.id = $1", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOutfitNotFound
		}
		return nil, fmt.Errorf("failed to find outfit: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Outfit{outfit}); err != nil {
		return nil, err
	}

	return outfit, nil
}

// ListPublic retrieves a page of public outfits, newest first.
func (r *outfitRepository) ListPublic(ctx context.Context, limit int, cursor *Cursor) ([]*domain.Outfit, *Cursor, error) {
	return r.listPage(ctx, "o.is_public = TRUE", nil, limit, cursor)
}

// ListByOwner retrieves a page of one user's outfits, public or not.
func (r *outfitRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int, cursor *Cursor) ([]*domain.Outfit, *Cursor, error) {
	return r.listPage(ctx, "o.owner_id = $1", []interface{}{ownerID}, limit, cursor)
}

func (r *outfitRepository) listPage(ctx context.Context, condition string, args []interface{}, limit int, cursor *Cursor) ([]*domain.Outfit, *Cursor, error) {
	if limit <= 0 {
		limit = 20
	}

	conditions := []string{condition}
	if cursor != nil {
		args = append(args, cursor.CreatedAt, cursor.ID)
		conditions = append(conditions,
			fmt.Sprintf("(o.created_at, o.id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY o.created_at DESC, o.id DESC LIMIT $%d`,
		outfitSelect, strings.Join(conditions, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list outfits: %w", err)
	}
	defer rows.Close()

	outfits := []*domain.Outfit{}
	for rows.Next() {
		outfit, err := scanOutfit(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan outfit: %w", err)
		}
		outfits = append(outfits, outfit)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating outfits: %w", err)
	}

	var next *Cursor
	if len(outfits) > limit {
		outfits = outfits[:limit]
		last := outfits[len(outfits)-1]
		next = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	if err := r.loadItems(ctx, outfits); err != nil {
		return nil, nil, err
	}

	return outfits, next, nil
}

// loadItems attaches composition rows, with their wardrobe items, to outfits.
func (r *outfitRepository) loadItems(ctx context.Context, outfits []*domain.Outfit) error {
	if len(outfits) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Outfit, len(outfits))
	placeholders := make([]string, 0, len(outfits))
	args := make([]interface{}, 0, len(outfits))
	for _, outfit := range outfits {
		byID[outfit.ID] = outfit
		args = append(args, outfit.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT oi.id, oi.outfit_id, oi.wardrobe_item_id, oi.position,
		       w.id, w.owner_id, w.name, w.description, w.category, w.price, w.price_currency, w.created_at, w.updated_at
		FROM outfit_items oi
		JOIN wardrobe_items w ON w.id = oi.wardrobe_item_id
		WHERE oi.outfit_id IN (%s)
		ORDER BY oi.outfit_id, oi.position
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load outfit items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		oi := domain.OutfitItem{}
		item := &domain.WardrobeItem{}
		err := rows.Scan(
			&oi.ID, &oi.OutfitID, &oi.WardrobeItemID, &oi.Position,
			&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.Category,
			&item.Price, &item.PriceCurrency, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan outfit item: %w", err)
		}
		oi.Item = item

		if outfit, ok := byID[oi.OutfitID]; ok {
			outfit.Items = append(outfit.Items, oi)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating outfit items: %w", err)
	}

	return nil
}

// Upvote records one user's upvote; repeating it is a no-op
func (r *outfitRepository) Upvote(ctx context.Context, outfitID, userID uuid.UUID) error {
	query := `
		INSERT INTO outfit_upvotes (outfit_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (outfit_id, user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, outfitID, userID); err != nil {
		return fmt.Errorf("failed to upvote outfit: %w", err)
	}
	return nil
}

// RemoveUpvote withdraws an upvote; absent rows are a no-op
func (r *outfitRepository) RemoveUpvote(ctx context.Context, outfitID, userID uuid.UUID) error {
	query := `DELETE FROM outfit_upvotes WHERE outfit_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, outfitID, userID); err != nil {
		return fmt.Errorf("failed to remove upvote: %w", err)
	}
	return nil
}

// SaveForUser adds an outfit to the user's saved collection; idempotent
func (r *outfitRepository) SaveForUser(ctx context.Context, outfitID, userID uuid.UUID) error {
	query := `
		INSERT INTO outfit_saves (outfit_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (outfit_id, user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, outfitID, userID); err != nil {
		return fmt.Errorf("failed to save outfit: %w", err)
	}
	return nil
}

// UnsaveForUser removes an outfit from the saved collection; idempotent
func (r *outfitRepository) UnsaveForUser(ctx context.Context, outfitID, userID uuid.UUID) error {
	query := `DELETE FROM outfit_saves WHERE outfit_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, outfitID, userID); err != nil {
		return fmt.Errorf("failed to unsave outfit: %w", err)
	}
	return nil
}
