// Package memory provides an in-memory catalog store for development runs
// and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
)

// CatalogStore is a mutex-guarded in-memory catalog.Store.
type CatalogStore struct {
	mu     sync.Mutex
	nextID int64
	movies map[int64]catalog.Movie
	shows  map[int64]catalog.Show
	refs   map[catalog.RefKind]map[int64]catalog.RefEntity
	assocs map[catalog.AssocKind]map[int64]map[int64]struct{}
}

// NewCatalogStore creates an empty in-memory store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		movies: make(map[int64]catalog.Movie),
		shows:  make(map[int64]catalog.Show),
		refs: map[catalog.RefKind]map[int64]catalog.RefEntity{
			catalog.RefGenre:    {},
			catalog.RefLanguage: {},
		},
		assocs: map[catalog.AssocKind]map[int64]map[int64]struct{}{
			catalog.AssocMovieGenre:    {},
			catalog.AssocShowGenre:     {},
			catalog.AssocMovieLanguage: {},
		},
	}
}

func (s *CatalogStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

// FindMovieByTitle returns the movie with the exact title, if any.
func (s *CatalogStore) FindMovieByTitle(_ context.Context, title string) (catalog.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movies {
		if m.Title == title {
			return m, nil
		}
	}
	return catalog.Movie{}, catalog.ErrNotFound
}

// InsertMovie stores a new movie and returns its id.
func (s *CatalogStore) InsertMovie(_ context.Context, m catalog.Movie) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.allocID()
	s.movies[m.ID] = m
	return m.ID, nil
}

// UpdateMovie overwrites an existing movie row.
func (s *CatalogStore) UpdateMovie(_ context.Context, m catalog.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[m.ID]; !ok {
		return fmt.Errorf("update movie %d: %w", m.ID, catalog.ErrNotFound)
	}
	s.movies[m.ID] = m
	return nil
}

// FindShowByTitle returns the show with the exact title, if any.
func (s *CatalogStore) FindShowByTitle(_ context.Context, title string) (catalog.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.shows {
		if sh.Title == title {
			return sh, nil
		}
	}
	return catalog.Show{}, catalog.ErrNotFound
}

// InsertShow stores a new show and returns its id.
func (s *CatalogStore) InsertShow(_ context.Context, sh catalog.Show) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.ID = s.allocID()
	s.shows[sh.ID] = sh
	return sh.ID, nil
}

// UpdateShow overwrites an existing show row.
func (s *CatalogStore) UpdateShow(_ context.Context, sh catalog.Show) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shows[sh.ID]; !ok {
		return fmt.Errorf("update show %d: %w", sh.ID, catalog.ErrNotFound)
	}
	s.shows[sh.ID] = sh
	return nil
}

// ListReferenceEntities returns all entities of a kind ordered by id.
func (s *CatalogStore) ListReferenceEntities(_ context.Context, kind catalog.RefKind) ([]catalog.RefEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.refs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	out := make([]catalog.RefEntity, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// InsertReferenceEntity stores a new entity with the given casing.
func (s *CatalogStore) InsertReferenceEntity(_ context.Context, kind catalog.RefKind, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.refs[kind]
	if !ok {
		return 0, fmt.Errorf("unknown reference kind %q", kind)
	}
	id := s.allocID()
	byID[id] = catalog.RefEntity{ID: id, Name: name}
	return id, nil
}

func (s *CatalogStore) refKindFor(kind catalog.AssocKind) catalog.RefKind {
	if kind == catalog.AssocMovieLanguage {
		return catalog.RefLanguage
	}
	return catalog.RefGenre
}

// ListAssociations returns the entities linked to a title ordered by id.
func (s *CatalogStore) ListAssociations(_ context.Context, kind catalog.AssocKind, titleID int64) ([]catalog.RefEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	links, ok := s.assocs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown association kind %q", kind)
	}
	refs := s.refs[s.refKindFor(kind)]
	var out []catalog.RefEntity
	for refID := range links[titleID] {
		out = append(out, refs[refID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AddAssociation links a title to a reference entity; re-adding is a no-op.
func (s *CatalogStore) AddAssociation(_ context.Context, kind catalog.AssocKind, titleID, refID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	links, ok := s.assocs[kind]
	if !ok {
		return fmt.Errorf("unknown association kind %q", kind)
	}
	if links[titleID] == nil {
		links[titleID] = make(map[int64]struct{})
	}
	links[titleID][refID] = struct{}{}
	return nil
}

// RemoveAssociation unlinks a title from a reference entity.
func (s *CatalogStore) RemoveAssociation(_ context.Context, kind catalog.AssocKind, titleID, refID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	links, ok := s.assocs[kind]
	if !ok {
		return fmt.Errorf("unknown association kind %q", kind)
	}
	delete(links[titleID], refID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *CatalogStore) Close() {}
