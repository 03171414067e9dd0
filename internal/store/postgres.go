package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

type mapRecord struct {
	ID          string            `gorm:"primaryKey;size:64"`
	Name        string            `gorm:"not null"`
	Description string
	Mode        string            `gorm:"size:32;not null"`
	Size        int               `gorm:"not null"`
	Tiles       [][]grid.Tile     `gorm:"type:jsonb;serializer:json"`
	Items       []items.Placement `gorm:"type:jsonb;serializer:json"`
	IsHidden    bool              `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (mapRecord) TableName() string { return "maps" }

func (r mapRecord) toMap() Map {
	return Map{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Mode:        items.GameMode(r.Mode),
		Size:        r.Size,
		Tiles:       r.Tiles,
		Items:       r.Items,
		IsHidden:    r.IsHidden,
	}
}

type matchRecord struct {
	ID         string   `gorm:"primaryKey;size:36"`
	RoomCode   string   `gorm:"size:16;index"`
	MapID      string   `gorm:"size:64;index"`
	Mode       string   `gorm:"size:32"`
	WinnerID   string   `gorm:"size:64"`
	WinnerTeam string   `gorm:"size:16"`
	Players    []string `gorm:"type:jsonb;serializer:json"`
	StartedAt  time.Time
	EndedAt    time.Time
}

func (matchRecord) TableName() string { return "matches" }

// Postgres stores maps and match history through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects, migrates the schema and seeds the given maps when their ids
// are not present yet.
func OpenPostgres(ctx context.Context, dsn string, seed []Map) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&mapRecord{}, &matchRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.seed(ctx, seed); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) seed(ctx context.Context, maps []Map) error {
	if len(maps) == 0 {
		return nil
	}
	records := make([]mapRecord, 0, len(maps))
	for _, m := range maps {
		records = append(records, mapRecord{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Mode:        string(m.Mode),
			Size:        m.Grid().Size,
			Tiles:       m.Tiles,
			Items:       m.Items,
			IsHidden:    m.IsHidden,
		})
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("seed maps: %w", err)
	}
	return nil
}

func (p *Postgres) GetMap(ctx context.Context, id string) (Map, error) {
	var r mapRecord
	err := p.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Map{}, ErrMapNotFound
	}
	if err != nil {
		return Map{}, fmt.Errorf("get map %s: %w", id, err)
	}
	return r.toMap(), nil
}

func (p *Postgres) ListMaps(ctx context.Context) ([]MapSummary, error) {
	var records []mapRecord
	err := p.db.WithContext(ctx).
		Select("id", "name", "description", "mode", "size").
		Where("is_hidden = ?", false).
		Order("created_at, id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	out := make([]MapSummary, 0, len(records))
	for _, r := range records {
		out = append(out, MapSummary{ID: r.ID, Name: r.Name, Description: r.Description, Mode: items.GameMode(r.Mode), Size: r.Size})
	}
	return out, nil
}

func (p *Postgres) RecordMatch(ctx context.Context, m Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r := matchRecord{
		ID:         m.ID,
		RoomCode:   m.RoomCode,
		MapID:      m.MapID,
		Mode:       string(m.Mode),
		WinnerID:   m.WinnerID,
		WinnerTeam: m.WinnerTeam,
		Players:    m.Players,
		StartedAt:  m.StartedAt,
		EndedAt:    m.EndedAt,
	}
	if err := p.db.WithContext(ctx).Create(&r).Error; err != nil {
		return fmt.Errorf("record match: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
