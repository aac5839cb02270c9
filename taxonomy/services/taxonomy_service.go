package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/daleel/api/internal/pkg/log"
	"github.com/daleel/api/taxonomy/models"
	"github.com/daleel/api/taxonomy/repository"
)

// TaxonomyService serves the label and source hierarchies from an in-memory
// snapshot and resolves descendant sets for search compilation. Snapshots
// are reloaded lazily after refreshInterval; taxonomy edits are rare enough
// that brief staleness is acceptable.
type TaxonomyService struct {
	repo            repository.TaxonomyRepository
	refreshInterval time.Duration

	mu         sync.RWMutex
	labels     *tree
	sources    *tree
	eventtypes []models.Eventtype
	loadedAt   time.Time
}

// tree is a parent/child index over one taxonomy table.
type tree struct {
	children map[int64][]int64
	nodes    map[int64]bool
}

// NewTaxonomyService creates a new taxonomy service
func NewTaxonomyService(repo repository.TaxonomyRepository, refreshInterval time.Duration) *TaxonomyService {
	if refreshInterval <= 0 {
		refreshInterval = 5 * time.Minute
	}
	return &TaxonomyService{
		repo:            repo,
		refreshInterval: refreshInterval,
	}
}

// ExpandLabels returns the given label ids plus every descendant id.
func (s *TaxonomyService) ExpandLabels(ctx context.Context, ids []int64) ([]int64, error) {
	labels, _, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return labels.expand(ids), nil
}

// ExpandSources returns the given source ids plus every descendant id.
func (s *TaxonomyService) ExpandSources(ctx context.Context, ids []int64) ([]int64, error) {
	_, sources, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return sources.expand(ids), nil
}

// Labels returns the current label list.
func (s *TaxonomyService) Labels(ctx context.Context) ([]models.Label, error) {
	return s.repo.AllLabels(ctx)
}

// Sources returns the current source list.
func (s *TaxonomyService) Sources(ctx context.Context) ([]models.Source, error) {
	return s.repo.AllSources(ctx)
}

// Eventtypes returns the current eventtype list.
func (s *TaxonomyService) Eventtypes(ctx context.Context) ([]models.Eventtype, error) {
	if _, _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventtypes, nil
}

// Invalidate drops the snapshot so the next expansion reloads.
func (s *TaxonomyService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = nil
	s.sources = nil
	s.loadedAt = time.Time{}
}

func (s *TaxonomyService) snapshot(ctx context.Context) (*tree, *tree, error) {
	s.mu.RLock()
	if s.labels != nil && time.Since(s.loadedAt) < s.refreshInterval {
		labels, sources := s.labels, s.sources
		s.mu.RUnlock()
		return labels, sources, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.labels != nil && time.Since(s.loadedAt) < s.refreshInterval {
		return s.labels, s.sources, nil
	}

	labelRows, err := s.repo.AllLabels(ctx)
	if err != nil {
		// Keep serving a stale snapshot if one exists.
		if s.labels != nil {
			log.Warn("taxonomy reload failed, serving stale snapshot: %v", err)
			return s.labels, s.sources, nil
		}
		return nil, nil, fmt.Errorf("failed to load label taxonomy: %w", err)
	}
	sourceRows, err := s.repo.AllSources(ctx)
	if err != nil {
		if s.labels != nil {
			log.Warn("taxonomy reload failed, serving stale snapshot: %v", err)
			return s.labels, s.sources, nil
		}
		return nil, nil, fmt.Errorf("failed to load source taxonomy: %w", err)
	}
	eventtypes, err := s.repo.AllEventtypes(ctx)
	if err != nil {
		if s.labels != nil {
			log.Warn("taxonomy reload failed, serving stale snapshot: %v", err)
			return s.labels, s.sources, nil
		}
		return nil, nil, fmt.Errorf("failed to load eventtypes: %w", err)
	}

	labels := newTree()
	for _, l := range labelRows {
		labels.add(l.ID, l.ParentID)
	}
	sources := newTree()
	for _, src := range sourceRows {
		sources.add(src.ID, src.ParentID)
	}

	s.labels = labels
	s.sources = sources
	s.eventtypes = eventtypes
	s.loadedAt = time.Now()
	return s.labels, s.sources, nil
}

func newTree() *tree {
	return &tree{
		children: make(map[int64][]int64),
		nodes:    make(map[int64]bool),
	}
}

func (t *tree) add(id int64, parentID *int64) {
	t.nodes[id] = true
	if parentID != nil {
		t.children[*parentID] = append(t.children[*parentID], id)
	}
}

// expand walks the subtree of every id iteratively. Ids absent from the
// snapshot pass through unchanged so a freshly created taxon still filters.
func (t *tree) expand(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	queue := make([]int64, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range t.children[id] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}
