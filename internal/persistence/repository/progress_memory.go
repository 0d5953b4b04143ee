package repository

import (
	"context"
	"sync"

	"github.com/codecollab/codecollab/internal/domain"
)

type memoryKey struct {
	roomID   string
	userName string
}

// memoryProgressRepository keeps progress records in process memory. It backs
// the "memory" store driver for local development and tests.
type memoryProgressRepository struct {
	mu      sync.Mutex
	records map[memoryKey]*domain.Progress
}

func NewMemoryProgressRepository() domain.ProgressRepository {
	return &memoryProgressRepository{
		records: make(map[memoryKey]*domain.Progress),
	}
}

func (r *memoryProgressRepository) FetchOrCreate(ctx context.Context, roomID, userName string) (*domain.Progress, error) {
	if roomID == "" || userName == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoryKey{roomID: roomID, userName: userName}
	if p, ok := r.records[key]; ok {
		return clone(p), nil
	}

	fresh := domain.NewDefaultProgress(roomID, userName)
	r.records[key] = fresh
	return clone(fresh), nil
}

func (r *memoryProgressRepository) Upsert(ctx context.Context, roomID, userName string, fields domain.ProgressFields) (*domain.Progress, error) {
	if roomID == "" || userName == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoryKey{roomID: roomID, userName: userName}
	p, ok := r.records[key]
	if !ok {
		p = domain.NewDefaultProgress(roomID, userName)
		r.records[key] = p
	}

	fields.ApplyTo(p)
	return clone(p), nil
}

func clone(p *domain.Progress) *domain.Progress {
	cp := *p
	cp.DrawingData = make([]domain.Stroke, len(p.DrawingData))
	copy(cp.DrawingData, p.DrawingData)
	return &cp
}
