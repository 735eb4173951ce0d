package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	ocr "github.com/getcharzp/go-ppocr"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

type DB struct {
	conn *sql.DB
}

// Image 一张已识别的图片及其结果
type Image struct {
	ID          string        `json:"id"`
	Path        string        `json:"path"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Accelerator string        `json:"accelerator"`
	Benchmark   ocr.Benchmark `json:"benchmark"`
	ProcessedAt time.Time     `json:"processed_at"`
	Results     []ocr.Result  `json:"results,omitempty"`
}

// Match 文本搜索命中
type Match struct {
	ImageID    string  `json:"image_id"`
	Path       string  `json:"path"`
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
}

func NewDB(storagePath string) (*DB, error) {
	dbPath := filepath.Join(storagePath, "ppocr.db")

	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		width INTEGER,
		height INTEGER,
		accelerator TEXT,
		detection_ms REAL,
		recognition_ms REAL,
		total_ms REAL,
		fps REAL,
		processed_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY,
		image_id TEXT NOT NULL REFERENCES images(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		confidence REAL,
		center_x REAL,
		center_y REAL,
		width REAL,
		height REAL,
		angle REAL,
		box_confidence REAL
	);

	CREATE INDEX IF NOT EXISTS idx_results_image ON results(image_id);
	CREATE INDEX IF NOT EXISTS idx_results_text ON results(text);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveImage 保存图片及识别结果, 同一路径的旧记录会被替换
func (db *DB) SaveImage(img *Image) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.ProcessedAt.IsZero() {
		img.ProcessedAt = time.Now()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM results WHERE image_id IN (SELECT id FROM images WHERE path = ?)`, img.Path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM images WHERE path = ?`, img.Path); err != nil {
		return err
	}

	bm := img.Benchmark
	_, err = tx.Exec(`
		INSERT INTO images (id, path, width, height, accelerator, detection_ms, recognition_ms, total_ms, fps, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, img.ID, img.Path, img.Width, img.Height, img.Accelerator,
		bm.DetectionTimeMs, bm.RecognitionTimeMs, bm.TotalTimeMs, bm.FPS, img.ProcessedAt)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results (image_id, idx, text, confidence, center_x, center_y, width, height, angle, box_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range img.Results {
		b := r.Box
		if _, err := stmt.Exec(img.ID, i, r.Text, r.Confidence, b.CenterX, b.CenterY, b.Width, b.Height, b.Angle, b.Confidence); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IsIndexed 路径是否已有识别记录
func (db *DB) IsIndexed(path string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM images WHERE path = ?`, path).Scan(&n)
	return n > 0, err
}

// GetImage 读取图片及其结果, 结果按保存顺序返回
func (db *DB) GetImage(id string) (*Image, error) {
	var img Image
	var accelerator sql.NullString
	err := db.conn.QueryRow(`
		SELECT id, path, width, height, accelerator, detection_ms, recognition_ms, total_ms, fps, processed_at
		FROM images WHERE id = ?
	`, id).Scan(&img.ID, &img.Path, &img.Width, &img.Height, &accelerator,
		&img.Benchmark.DetectionTimeMs, &img.Benchmark.RecognitionTimeMs, &img.Benchmark.TotalTimeMs, &img.Benchmark.FPS,
		&img.ProcessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	img.Accelerator = accelerator.String

	rows, err := db.conn.Query(`
		SELECT text, confidence, center_x, center_y, width, height, angle, box_confidence
		FROM results WHERE image_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r ocr.Result
		b := &r.Box
		if err := rows.Scan(&r.Text, &r.Confidence, &b.CenterX, &b.CenterY, &b.Width, &b.Height, &b.Angle, &b.Confidence); err != nil {
			return nil, err
		}
		img.Results = append(img.Results, r)
	}
	return &img, rows.Err()
}

// likeEscaper 转义 LIKE 通配符, 查询按字面匹配
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search 按识别文本模糊搜索
func (db *DB) Search(query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT i.id, i.path, r.text, r.confidence
		FROM results r JOIN images i ON i.id = r.image_id
		WHERE r.text LIKE ? ESCAPE '\'
		ORDER BY i.processed_at DESC, r.idx
		LIMIT ?
	`, "%"+likeEscaper.Replace(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ImageID, &m.Path, &m.Text, &m.Confidence); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
