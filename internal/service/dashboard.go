// dashboard.go — сводка для персонала: размеры каталога и последние заявки.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/videoteka/internal/domain/model"
	"github.com/bigkaa/videoteka/internal/repository"
)

// DashboardSummary — агрегированная сводка портала.
type DashboardSummary struct {
	// Batches — количество опубликованных партий
	Batches int `json:"batches"`
	// Videos — общее количество видео в каталогах
	Videos int `json:"videos"`
	// Customers — количество клиентов с непустым списком
	Customers int `json:"customers"`
	// RecentSubmissions — последние заявки (новые первыми)
	RecentSubmissions []*model.SelectionSnapshot `json:"recentSubmissions"`
}

// DashboardService — сводка для персонала.
type DashboardService struct {
	batchRepo    repository.BatchRepository
	videoRepo    repository.VideoRepository
	ownedRepo    repository.OwnedListRepository
	snapshotRepo repository.SnapshotRepository
	logger       *slog.Logger
}

// NewDashboardService создаёт сервис сводки.
func NewDashboardService(
	batchRepo repository.BatchRepository,
	videoRepo repository.VideoRepository,
	ownedRepo repository.OwnedListRepository,
	snapshotRepo repository.SnapshotRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		batchRepo:    batchRepo,
		videoRepo:    videoRepo,
		ownedRepo:    ownedRepo,
		snapshotRepo: snapshotRepo,
		logger:       logger.With(slog.String("component", "dashboard_service")),
	}
}

// Summary собирает сводку: счётчики каталога и последние заявки.
func (s *DashboardService) Summary(ctx context.Context, recentLimit int) (*DashboardSummary, error) {
	batches, err := s.batchRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт партий: %w", err)
	}

	videos, err := s.videoRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт видео: %w", err)
	}

	customers, err := s.ownedRepo.CountCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт клиентов со списками: %w", err)
	}

	recent, err := s.snapshotRepo.Recent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("получение последних заявок: %w", err)
	}
	if recent == nil {
		recent = []*model.SelectionSnapshot{}
	}

	return &DashboardSummary{
		Batches:           batches,
		Videos:            videos,
		Customers:         customers,
		RecentSubmissions: recent,
	}, nil
}
