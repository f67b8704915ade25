package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tubeline/backend/internal/db"
	"github.com/tubeline/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a comment. A missing video or author yields ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt); err != nil {
		return writeError("insert comment", err)
	}
	return nil
}

// FindByID fetches a comment.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var c models.Comment
	err = conn.QueryRow(ctx, `
        SELECT id, video_id, owner_id, content, created_at, updated_at
        FROM comments
        WHERE id = $1
    `, id).Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return c, nil
}

// ListByVideo returns one page of a video's comments, newest first, and the total count.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string, page, limit int) ([]models.CommentWithOwner, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
            a.full_name, a.handle, a.avatar_url
        FROM comments c
        JOIN accounts a ON a.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC, c.id
        LIMIT $2 OFFSET $3
    `, videoID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.CommentWithOwner, 0)
	for rows.Next() {
		var c models.CommentWithOwner
		if err := rows.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.Owner.FullName, &c.Owner.Handle, &c.Owner.Avatar); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, total, nil
}

// Update replaces the content of a comment.
func (r *PostgresCommentRepository) Update(ctx context.Context, id, content string, updatedAt time.Time) error {
	return execAffecting(ctx, r.pool, "update comment", `
        UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1
    `, id, content, updatedAt)
}

// Delete removes a comment and its likes.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "delete comment", `DELETE FROM comments WHERE id = $1`, id)
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// ToggleVideoLike likes or unlikes a video and reports whether it is now liked.
func (r *PostgresLikeRepository) ToggleVideoLike(ctx context.Context, accountID, videoID string) (bool, error) {
	return r.toggle(ctx, "video_id", accountID, videoID)
}

// ToggleCommentLike likes or unlikes a comment and reports whether it is now liked.
func (r *PostgresLikeRepository) ToggleCommentLike(ctx context.Context, accountID, commentID string) (bool, error) {
	return r.toggle(ctx, "comment_id", accountID, commentID)
}

// toggle deletes an existing like or inserts a new one. column is one of the
// two fixed target columns, never user input.
func (r *PostgresLikeRepository) toggle(ctx context.Context, column, accountID, targetID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE liked_by = $1 AND `+column+` = $2`, accountID, targetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, `+column+`, created_at)
        VALUES ($1, $2, $3, $4)
    `, uuid.NewString(), accountID, targetID, time.Now().UTC())
	if err != nil {
		err = writeError("insert like", err)
		if errors.Is(err, ErrConflict) {
			// A concurrent request liked it first.
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// LikedVideos lists the videos an account liked, most recent like first. Other
// owners' unpublished videos are hidden.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, accountID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`, a.full_name, a.handle, a.avatar_url
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN accounts a ON a.id = v.owner_id
        WHERE l.liked_by = $1 AND (v.is_published OR v.owner_id = $1)
        ORDER BY l.created_at DESC
    `, accountID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	return collectVideosWithOwner(rows, "liked videos")
}

const playlistSelect = `
        SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
            COALESCE(array_agg(pv.video_id ORDER BY pv.added_at, pv.video_id) FILTER (WHERE pv.video_id IS NOT NULL), ARRAY[]::TEXT[])
        FROM playlists p
        LEFT JOIN playlist_videos pv ON pv.playlist_id = p.id`

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoIDs)
	if p.VideoIDs == nil {
		p.VideoIDs = []string{}
	}
	return p, err
}

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores an empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt); err != nil {
		return writeError("insert playlist", err)
	}
	return nil
}

// FindByID fetches a playlist with its video ids in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, playlistSelect+`
        WHERE p.id = $1
        GROUP BY p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}
	return playlist, nil
}

// ListByOwner returns an account's playlists, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, playlistSelect+`
        WHERE p.owner_id = $1
        GROUP BY p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at
        ORDER BY p.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]models.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// Update renames a playlist.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, id, name, description string, updatedAt time.Time) error {
	return execAffecting(ctx, r.pool, "update playlist", `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
    `, id, name, description, updatedAt)
}

// Delete removes a playlist and its entries.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	return execAffecting(ctx, r.pool, "delete playlist", `DELETE FROM playlists WHERE id = $1`, id)
}

// AddVideo appends a video to a playlist. Adding a video twice is a no-op.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (playlist_id, video_id) DO NOTHING
    `, playlistID, videoID, time.Now().UTC()); err != nil {
		return writeError("insert playlist video", err)
	}
	return nil
}

// RemoveVideo drops a video from a playlist.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	return execAffecting(ctx, r.pool, "delete playlist video", `
        DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2
    `, playlistID, videoID)
}

// execAffecting runs a write that must touch at least one row.
func execAffecting(ctx context.Context, pool db.Pool, op, query string, args ...any) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return writeError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var (
	_ CommentRepository  = (*PostgresCommentRepository)(nil)
	_ LikeRepository     = (*PostgresLikeRepository)(nil)
	_ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
)
