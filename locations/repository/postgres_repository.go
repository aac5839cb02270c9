package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/locations/models"
	"github.com/daleel/api/search/compiler"
	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/search/paginator"
)

const locationColumns = `t.id, t.title, t.title_ar, t.description, t.parent_id,
	t.admin_level, t.location_type, t.country, t.lat, t.lng, t.tags,
	t.id_tree, t.full_location, t.created_at, t.updated_at`

// postgresRepository implements LocationRepository using raw SQL queries
type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a new PostgreSQL repository for locations
func NewPostgresRepository(client *postgres.Client) LocationRepository {
	return &postgresRepository{client: client}
}

type locationRow struct {
	models.Location
	TotalCount int64 `db:"total_count"`
}

func (r *postgresRepository) Search(ctx context.Context, compiled *compiler.Compiled, req paginator.Request) ([]models.Location, *int64, error) {
	query, args, err := paginator.BuildDataQuery(compiled, locationColumns, req, req.WantCount())
	if err != nil {
		return nil, nil, err
	}

	var rows []locationRow
	if err := sqlx.SelectContext(ctx, r.client.DB(), &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to search locations: %w", err)
	}

	locations := make([]models.Location, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, row.Location)
	}

	var total *int64
	if req.WantCount() {
		count := int64(0)
		if len(rows) > 0 {
			count = rows[0].TotalCount
		}
		total = &count
	}
	return locations, total, nil
}

func (r *postgresRepository) Count(ctx context.Context, compiled *compiler.Compiled) (int64, error) {
	query, args := paginator.BuildCountQuery(compiled)
	var count int64
	if err := sqlx.GetContext(ctx, r.client.DB(), &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count locations: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*models.Location, error) {
	query := "SELECT " + locationColumns + " FROM locations t WHERE t.id = $1"

	var location models.Location
	err := sqlx.GetContext(ctx, r.client.DB(), &location, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, searchErrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find location %d: %w", id, err)
	}
	return &location, nil
}

// Create inserts the location, then materialises id_tree and full_location
// from the parent chain inside the same transaction.
func (r *postgresRepository) Create(ctx context.Context, location *models.Location) error {
	now := time.Now()
	location.CreatedAt = now
	location.UpdatedAt = now

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO locations (
				title, title_ar, description, parent_id, admin_level,
				location_type, country, lat, lng, tags, id_tree,
				full_location, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '', '', $11, $12)
			RETURNING id`

		err := tx.QueryRowxContext(ctx, query,
			location.Title, location.TitleAr, location.Description,
			location.ParentID, location.AdminLevel, location.LocationType,
			location.Country, location.Lat, location.Lng, location.Tags,
			location.CreatedAt, location.UpdatedAt,
		).Scan(&location.ID)
		if err != nil {
			return fmt.Errorf("failed to insert location: %w", err)
		}

		return materialise(ctx, tx, location)
	})
}

// Update rewrites the location and re-materialises its path. Descendant
// paths of a re-parented subtree are refreshed by RegenerateTree.
func (r *postgresRepository) Update(ctx context.Context, location *models.Location) error {
	location.UpdatedAt = time.Now()

	return r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE locations SET
				title = $1, title_ar = $2, description = $3, parent_id = $4,
				admin_level = $5, location_type = $6, country = $7,
				lat = $8, lng = $9, tags = $10, updated_at = $11
			WHERE id = $12`

		result, err := tx.ExecContext(ctx, query,
			location.Title, location.TitleAr, location.Description,
			location.ParentID, location.AdminLevel, location.LocationType,
			location.Country, location.Lat, location.Lng, location.Tags,
			location.UpdatedAt, location.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update location %d: %w", location.ID, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return searchErrors.ErrNotFound
		}

		return materialise(ctx, tx, location)
	})
}

// RegenerateTree recomputes id_tree and full_location for every location in
// one pass, root-down, and returns the number of rows rewritten.
func (r *postgresRepository) RegenerateTree(ctx context.Context) (int64, error) {
	type node struct {
		ID       int64  `db:"id"`
		ParentID *int64 `db:"parent_id"`
		Title    string `db:"title"`
	}

	var updated int64
	err := r.client.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var nodes []node
		if err := tx.SelectContext(ctx, &nodes, "SELECT id, parent_id, title FROM locations ORDER BY id"); err != nil {
			return fmt.Errorf("failed to load location tree: %w", err)
		}

		byID := make(map[int64]*node, len(nodes))
		for i := range nodes {
			byID[nodes[i].ID] = &nodes[i]
		}

		trees := make(map[int64]string, len(nodes))
		fulls := make(map[int64]string, len(nodes))
		var resolve func(id int64) (string, string)
		resolve = func(id int64) (string, string) {
			if tree, ok := trees[id]; ok {
				return tree, fulls[id]
			}
			n := byID[id]
			tree := fmt.Sprintf("[%d]", n.ID)
			full := n.Title
			if n.ParentID != nil {
				if _, ok := byID[*n.ParentID]; ok {
					pt, pf := resolve(*n.ParentID)
					tree = pt + tree
					full = pf + " > " + full
				}
			}
			trees[id] = tree
			fulls[id] = full
			return tree, full
		}

		for _, n := range nodes {
			tree, full := resolve(n.ID)
			if _, err := tx.ExecContext(ctx,
				"UPDATE locations SET id_tree = $1, full_location = $2 WHERE id = $3",
				tree, full, n.ID); err != nil {
				return fmt.Errorf("failed to rewrite location %d path: %w", n.ID, err)
			}
			updated++
		}
		return nil
	})
	return updated, err
}

// materialise recomputes id_tree and full_location from the parent row.
func materialise(ctx context.Context, tx *sqlx.Tx, location *models.Location) error {
	tree := fmt.Sprintf("[%d]", location.ID)
	full := location.Title

	if location.ParentID != nil {
		var parent struct {
			IDTree       string `db:"id_tree"`
			FullLocation string `db:"full_location"`
		}
		err := tx.GetContext(ctx, &parent,
			"SELECT id_tree, full_location FROM locations WHERE id = $1", *location.ParentID)
		if errors.Is(err, sql.ErrNoRows) {
			return searchErrors.NewQueryError("parent_id", "parent location does not exist")
		}
		if err != nil {
			return fmt.Errorf("failed to load parent location %d: %w", *location.ParentID, err)
		}
		tree = parent.IDTree + tree
		if parent.FullLocation != "" {
			full = parent.FullLocation + " > " + full
		}
	}

	location.IDTree = tree
	location.FullLocation = full

	_, err := tx.ExecContext(ctx,
		"UPDATE locations SET id_tree = $1, full_location = $2 WHERE id = $3",
		tree, full, location.ID)
	if err != nil {
		return fmt.Errorf("failed to materialise location %d path: %w", location.ID, err)
	}
	return nil
}
