package services

import (
	"context"
	"database/sql"

	"readerapp/internal/models"
	"readerapp/internal/observability"
	contextutils "readerapp/internal/utils"
)

// builtinCategories are always present in the registry and cannot be
// modified or deleted.
var builtinCategories = []models.Category{
	{Name: "Bug", Value: string(models.FeedbackTypeBug), IsActive: true, OrderIndex: 0, IsBuiltin: true},
	{Name: "Feature", Value: string(models.FeedbackTypeFeature), IsActive: true, OrderIndex: 1, IsBuiltin: true},
	{Name: "Improvement", Value: string(models.FeedbackTypeImprovement), IsActive: true, OrderIndex: 2, IsBuiltin: true},
	{Name: "Question", Value: string(models.FeedbackTypeQuestion), IsActive: true, OrderIndex: 3, IsBuiltin: true},
	{Name: "Other", Value: string(models.FeedbackTypeOther), IsActive: true, OrderIndex: 4, IsBuiltin: true},
}

// ListCategories merges the built-in types with stored custom categories,
// ordered by order_index. Inactive custom categories are included only when
// includeInactive is set.
func (s *FeedbackService) ListCategories(ctx context.Context, includeInactive bool) (result0 []models.Category, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "list_categories")
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, name, value, description, icon, color, is_active, order_index, created_at, updated_at
		FROM feedback_categories`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY order_index ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query categories")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn(ctx, "failed to close rows", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	categories := make([]models.Category, 0, len(builtinCategories))
	categories = append(categories, builtinCategories...)
	for rows.Next() {
		var c models.Category
		if err = rows.Scan(&c.ID, &c.Name, &c.Value, &c.Description, &c.Icon, &c.Color, &c.IsActive, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan category")
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate categories")
	}
	return categories, nil
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string
	Value       string
	Description string
	Icon        string
	Color       string
	OrderIndex  int
}

// CreateCategory stores a custom category. The value must be unique and must
// not shadow a built-in type.
func (s *FeedbackService) CreateCategory(ctx context.Context, in CategoryInput) (result0 *models.Category, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "create_category")
	defer observability.FinishSpan(span, &err)

	if in.Name == "" || in.Value == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "name and value are required")
	}
	if models.FeedbackType(in.Value).Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrConflict, "value %s is a built-in type", in.Value)
	}
	if in.Color != "" && !contextutils.IsValidHexColor(in.Color) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid color: %s", in.Color)
	}

	c := &models.Category{
		Name:        in.Name,
		Value:       in.Value,
		Description: nullString(in.Description),
		Icon:        nullString(in.Icon),
		Color:       nullString(in.Color),
		IsActive:    true,
		OrderIndex:  in.OrderIndex,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO feedback_categories (name, value, description, icon, color, is_active, order_index)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		 RETURNING id, created_at, updated_at`,
		in.Name, in.Value, c.Description, c.Icon, c.Color, in.OrderIndex).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordExists, "category %s already exists", in.Value)
		}
		return nil, contextutils.WrapError(err, "failed to insert category")
	}
	return c, nil
}

// UpdateCategory edits a stored custom category.
func (s *FeedbackService) UpdateCategory(ctx context.Context, id int, in CategoryInput) (result0 *models.Category, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_category")
	defer observability.FinishSpan(span, &err)

	if in.Name == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "name is required")
	}
	if in.Color != "" && !contextutils.IsValidHexColor(in.Color) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid color: %s", in.Color)
	}

	c := &models.Category{
		ID:          id,
		Name:        in.Name,
		Description: nullString(in.Description),
		Icon:        nullString(in.Icon),
		Color:       nullString(in.Color),
		IsActive:    true,
		OrderIndex:  in.OrderIndex,
	}
	err = s.db.QueryRowContext(ctx,
		`UPDATE feedback_categories
		 SET name = $1, description = $2, icon = $3, color = $4, order_index = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6
		 RETURNING value, is_active, created_at, updated_at`,
		in.Name, c.Description, c.Icon, c.Color, in.OrderIndex, id).
		Scan(&c.Value, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to update category")
	}
	return c, nil
}

// DeleteCategory removes a custom category, or deactivates it instead when
// existing feedback references its value.
func (s *FeedbackService) DeleteCategory(ctx context.Context, id int) (deactivated bool, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "delete_category")
	defer observability.FinishSpan(span, &err)

	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM feedback_categories WHERE id = $1`, id).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, contextutils.ErrRecordNotFound
		}
		return false, contextutils.WrapError(err, "failed to load category")
	}

	var referenced int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_feedback WHERE type = $1`, value).Scan(&referenced)
	if err != nil {
		return false, contextutils.WrapError(err, "failed to count references")
	}

	if referenced > 0 {
		_, err = s.db.ExecContext(ctx,
			`UPDATE feedback_categories SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
		if err != nil {
			return false, contextutils.WrapError(err, "failed to deactivate category")
		}
		return true, nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM feedback_categories WHERE id = $1`, id)
	if err != nil {
		return false, contextutils.WrapError(err, "failed to delete category")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, contextutils.ErrRecordNotFound
	}
	return false, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
