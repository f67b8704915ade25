package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tubeline/backend/internal/db"
	"github.com/tubeline/backend/internal/models"
)

const videoColumns = `v.id, v.owner_id, v.video_url, v.video_key, v.thumbnail_url, v.thumbnail_key,
        v.title, v.description, v.duration, v.views, v.is_published, v.created_at, v.updated_at`

// videoSortColumns whitelists the sortable columns exposed by the listing endpoint.
var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanVideo(row pgx.Row, extra ...any) (models.Video, error) {
	var v models.Video
	dest := []any{&v.ID, &v.OwnerID, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL, &v.ThumbnailKey,
		&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return v, err
}

func collectVideosWithOwner(rows pgx.Rows, op string) ([]models.VideoWithOwner, error) {
	defer rows.Close()

	videos := make([]models.VideoWithOwner, 0)
	for rows.Next() {
		var owner models.OwnerSummary
		video, err := scanVideo(rows, &owner.FullName, &owner.Handle, &owner.Avatar)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		videos = append(videos, models.VideoWithOwner{Video: video, Owner: owner})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return videos, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, video_key, thumbnail_url, thumbnail_key,
            title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.VideoURL, video.VideoKey, video.ThumbnailURL, video.ThumbnailKey,
		video.Title, video.Description, video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return writeError("insert video", err)
	}
	return nil
}

// FindByID fetches a single video regardless of its publish state.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// FindByIDs returns the videos that still exist among ids, keyed by id.
func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error) {
	found := make(map[string]models.Video, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query videos by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		found[video.ID] = video
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos by ids: %w", err)
	}
	return found, nil
}

// List returns one page of videos with their owners, plus the total match count.
func (r *PostgresVideoRepository) List(ctx context.Context, opts VideoListOptions) ([]models.VideoWithOwner, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	var (
		conditions []string
		args       []any
	)
	if !opts.IncludeUnpublished {
		conditions = append(conditions, "v.is_published = TRUE")
	}
	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		conditions = append(conditions, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		conditions = append(conditions, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	sortColumn, ok := videoSortColumns[opts.SortBy]
	if !ok {
		sortColumn = videoSortColumns["createdAt"]
	}
	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	pageArgs := append(append([]any{}, args...), opts.Limit, (opts.Page-1)*opts.Limit)
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s, a.full_name, a.handle, a.avatar_url
        FROM videos v
        JOIN accounts a ON a.id = v.owner_id
        %s
        ORDER BY %s %s, v.id
        LIMIT $%d OFFSET $%d
    `, videoColumns, where, sortColumn, direction, len(args)+1, len(args)+2), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}

	videos, err := collectVideosWithOwner(rows, "video listing")
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// Update persists the mutable fields of a video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	return execAffecting(ctx, r.pool, "update video", `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, thumbnail_key = $5,
            is_published = $6, updated_at = $7
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.ThumbnailURL, video.ThumbnailKey, video.IsPublished, video.UpdatedAt)
}

// Delete removes a video. Comments, likes and playlist entries cascade; watch
// history rows are left in place.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "delete video", `DELETE FROM videos WHERE id = $1`, id)
}

// IncrementViews bumps the view counter of a video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "increment video views", `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
}

// PostgresWatchHistoryRepository stores watch history as append-only rows.
type PostgresWatchHistoryRepository struct {
	pool db.Pool
}

// NewPostgresWatchHistoryRepository constructs a history repository backed by PostgreSQL.
func NewPostgresWatchHistoryRepository(pool db.Pool) *PostgresWatchHistoryRepository {
	return &PostgresWatchHistoryRepository{pool: pool}
}

// Append records a view. Repeated views of the same video add further entries.
func (r *PostgresWatchHistoryRepository) Append(ctx context.Context, accountID, videoID string, watchedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO watch_history (account_id, video_id, watched_at)
        VALUES ($1, $2, $3)
    `, accountID, videoID, watchedAt); err != nil {
		return writeError("insert watch history", err)
	}
	return nil
}

// List returns watched video ids oldest first.
func (r *PostgresWatchHistoryRepository) List(ctx context.Context, accountID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id
        FROM watch_history
        WHERE account_id = $1
        ORDER BY watched_at, id
    `, accountID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}
	return ids, nil
}

var (
	_ VideoRepository        = (*PostgresVideoRepository)(nil)
	_ WatchHistoryRepository = (*PostgresWatchHistoryRepository)(nil)
)
