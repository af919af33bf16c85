// Package reconcile applies batches of scraped records to the catalog
// store: idempotent title upserts plus diff-and-replace synchronization of
// genre and language associations.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
	"github.com/streamcat/hotstar-crawler/internal/metrics"
)

// notFoundSentinel is written by older extractor revisions when a field's
// strategy chain came up empty; it means "no data", not a literal value.
const notFoundSentinel = "(not found)"

// Reconciler synchronizes scraped records against the catalog store. One
// Reconciler call owns its batch caches; concurrent batches would need
// store-level uniqueness instead.
type Reconciler struct {
	store  catalog.Store
	logger *zap.Logger
}

// New builds a Reconciler over a store.
func New(store catalog.Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// refCache maps lower-cased reference-entity names to their rows. It is
// preloaded per batch so lazily created entities are visible to later
// records without another store round-trip.
type refCache map[string]catalog.RefEntity

func (r *Reconciler) loadRefCache(ctx context.Context, kind catalog.RefKind) (refCache, error) {
	entities, err := r.store.ListReferenceEntities(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("preload %s cache: %w", kind, err)
	}
	cache := make(refCache, len(entities))
	for _, e := range entities {
		cache[strings.ToLower(e.Name)] = e
	}
	return cache, nil
}

// resolveRef returns the entity for a name, creating and persisting it on
// first sight. The stored casing is whatever casing was seen first; a later
// name differing only by case reuses the existing row.
func (r *Reconciler) resolveRef(ctx context.Context, kind catalog.RefKind, cache refCache, name string) (catalog.RefEntity, error) {
	key := strings.ToLower(name)
	if e, ok := cache[key]; ok {
		return e, nil
	}
	id, err := r.store.InsertReferenceEntity(ctx, kind, name)
	if err != nil {
		return catalog.RefEntity{}, fmt.Errorf("insert %s %q: %w", kind, name, err)
	}
	e := catalog.RefEntity{ID: id, Name: name}
	cache[key] = e
	metrics.ObserveReferenceEntityCreated(string(kind))
	r.logger.Info("Added new reference entity", zap.String("kind", string(kind)), zap.String("name", name))
	return e, nil
}

// parseNameSet normalizes a comma-joined free-text field into a
// de-duplicated, order-preserving name list. Sentinel or blank input means
// an empty desired set.
func parseNameSet(input string) []string {
	if isSentinel(input) {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, name := range strings.Split(input, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

func isSentinel(input string) bool {
	trimmed := strings.TrimSpace(input)
	return trimmed == "" || trimmed == notFoundSentinel
}

// SaveMovies reconciles a batch of movie records. Per-record failures are
// logged and skipped; the returned count covers records that completed
// fully. The error covers only batch setup.
func (r *Reconciler) SaveMovies(ctx context.Context, records []catalog.MovieRecord) (int, error) {
	genres, err := r.loadRefCache(ctx, catalog.RefGenre)
	if err != nil {
		return 0, err
	}
	languages, err := r.loadRefCache(ctx, catalog.RefLanguage)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, rec := range records {
		if err := r.saveMovie(ctx, rec, genres, languages); err != nil {
			r.logger.Error("Error saving movie", zap.String("title", rec.Title), zap.Error(err))
			metrics.ObserveRecordFailed("movie")
			continue
		}
		saved++
		metrics.ObserveTitleSaved("movie")
	}

	r.logger.Info("Saved movies to the catalog", zap.Int("count", saved))
	return saved, nil
}

// SaveShows reconciles a batch of show records; same isolation contract as
// SaveMovies.
func (r *Reconciler) SaveShows(ctx context.Context, records []catalog.ShowRecord) (int, error) {
	genres, err := r.loadRefCache(ctx, catalog.RefGenre)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, rec := range records {
		if err := r.saveShow(ctx, rec, genres); err != nil {
			r.logger.Error("Error saving show", zap.String("title", rec.Title), zap.Error(err))
			metrics.ObserveRecordFailed("show")
			continue
		}
		saved++
		metrics.ObserveTitleSaved("show")
	}

	r.logger.Info("Saved shows to the catalog", zap.Int("count", saved))
	return saved, nil
}

func (r *Reconciler) saveMovie(ctx context.Context, rec catalog.MovieRecord, genres, languages refCache) error {
	movieID, err := r.upsertMovie(ctx, rec)
	if err != nil {
		return err
	}
	if err := r.reconcileGenres(ctx, catalog.AssocMovieGenre, movieID, rec.Title, rec.Genres, genres); err != nil {
		return err
	}
	return r.reconcileLanguage(ctx, movieID, rec.Title, rec.Language, languages)
}

func (r *Reconciler) saveShow(ctx context.Context, rec catalog.ShowRecord, genres refCache) error {
	showID, err := r.upsertShow(ctx, rec)
	if err != nil {
		return err
	}
	return r.reconcileGenres(ctx, catalog.AssocShowGenre, showID, rec.Title, rec.Genres, genres)
}

// upsertMovie looks a movie up by its natural key and either creates it or
// overwrites every non-key field. Last write wins; there is no conflict
// detection.
func (r *Reconciler) upsertMovie(ctx context.Context, rec catalog.MovieRecord) (int64, error) {
	existing, err := r.store.FindMovieByTitle(ctx, rec.Title)
	switch {
	case err == nil:
		existing.Description = rec.Description
		existing.ReleaseYear = rec.ReleaseYear
		existing.Rating = rec.Rating
		existing.Duration = rec.Duration
		existing.ImageURL = rec.ImageURL
		if err := r.store.UpdateMovie(ctx, existing); err != nil {
			return 0, fmt.Errorf("update movie: %w", err)
		}
		r.logger.Info("Updating existing movie", zap.String("title", rec.Title))
		return existing.ID, nil
	case catalog.IsNotFound(err):
		id, err := r.store.InsertMovie(ctx, catalog.Movie{
			Title:       rec.Title,
			Description: rec.Description,
			ReleaseYear: rec.ReleaseYear,
			Rating:      rec.Rating,
			Duration:    rec.Duration,
			ImageURL:    rec.ImageURL,
		})
		if err != nil {
			return 0, fmt.Errorf("insert movie: %w", err)
		}
		r.logger.Info("Added new movie", zap.String("title", rec.Title))
		return id, nil
	default:
		return 0, fmt.Errorf("find movie: %w", err)
	}
}

func (r *Reconciler) upsertShow(ctx context.Context, rec catalog.ShowRecord) (int64, error) {
	existing, err := r.store.FindShowByTitle(ctx, rec.Title)
	switch {
	case err == nil:
		existing.Description = rec.Description
		existing.ReleaseYear = rec.ReleaseYear
		existing.Rating = rec.Rating
		existing.Season = rec.Season
		existing.ImageURL = rec.ImageURL
		if err := r.store.UpdateShow(ctx, existing); err != nil {
			return 0, fmt.Errorf("update show: %w", err)
		}
		r.logger.Info("Updating existing show", zap.String("title", rec.Title))
		return existing.ID, nil
	case catalog.IsNotFound(err):
		id, err := r.store.InsertShow(ctx, catalog.Show{
			Title:       rec.Title,
			Description: rec.Description,
			ReleaseYear: rec.ReleaseYear,
			Rating:      rec.Rating,
			Season:      rec.Season,
			ImageURL:    rec.ImageURL,
		})
		if err != nil {
			return 0, fmt.Errorf("insert show: %w", err)
		}
		r.logger.Info("Added new show", zap.String("title", rec.Title))
		return id, nil
	default:
		return 0, fmt.Errorf("find show: %w", err)
	}
}

// reconcileGenres makes the title's genre associations exactly match the
// normalized incoming set: remove what is no longer named, add what is
// missing, leave matches untouched.
func (r *Reconciler) reconcileGenres(ctx context.Context, kind catalog.AssocKind, titleID int64, title, genreInput string, cache refCache) error {
	current, err := r.store.ListAssociations(ctx, kind, titleID)
	if err != nil {
		return fmt.Errorf("list genre associations: %w", err)
	}

	desired := parseNameSet(genreInput)
	if len(desired) == 0 {
		for _, g := range current {
			if err := r.store.RemoveAssociation(ctx, kind, titleID, g.ID); err != nil {
				return fmt.Errorf("remove genre association: %w", err)
			}
		}
		if len(current) > 0 {
			r.logger.Info("Removed all genres from title", zap.String("title", title))
		}
		return nil
	}

	desiredKeys := make(map[string]struct{}, len(desired))
	for _, name := range desired {
		desiredKeys[strings.ToLower(name)] = struct{}{}
	}

	currentIDs := make(map[int64]struct{}, len(current))
	for _, g := range current {
		currentIDs[g.ID] = struct{}{}
		if _, keep := desiredKeys[strings.ToLower(g.Name)]; keep {
			continue
		}
		if err := r.store.RemoveAssociation(ctx, kind, titleID, g.ID); err != nil {
			return fmt.Errorf("remove genre association: %w", err)
		}
		r.logger.Info("Unlinked genre from title", zap.String("genre", g.Name), zap.String("title", title))
	}

	for _, name := range desired {
		genre, err := r.resolveRef(ctx, catalog.RefGenre, cache, name)
		if err != nil {
			return err
		}
		if _, linked := currentIDs[genre.ID]; linked {
			continue
		}
		if err := r.store.AddAssociation(ctx, kind, titleID, genre.ID); err != nil {
			return fmt.Errorf("add genre association: %w", err)
		}
		r.logger.Info("Linked genre to title", zap.String("genre", genre.Name), zap.String("title", title))
	}
	return nil
}

// reconcileLanguage enforces the at-most-one primary language invariant.
// The whole trimmed input is one atomic name; a joined multi-track string
// like "Hindi, English" deliberately stays one entity.
func (r *Reconciler) reconcileLanguage(ctx context.Context, movieID int64, title, languageInput string, cache refCache) error {
	current, err := r.store.ListAssociations(ctx, catalog.AssocMovieLanguage, movieID)
	if err != nil {
		return fmt.Errorf("list language associations: %w", err)
	}

	if isSentinel(languageInput) {
		for _, l := range current {
			if err := r.store.RemoveAssociation(ctx, catalog.AssocMovieLanguage, movieID, l.ID); err != nil {
				return fmt.Errorf("remove language association: %w", err)
			}
		}
		if len(current) > 0 {
			r.logger.Info("Removed all languages from movie", zap.String("title", title))
		}
		return nil
	}

	target, err := r.resolveRef(ctx, catalog.RefLanguage, cache, strings.TrimSpace(languageInput))
	if err != nil {
		return err
	}

	if len(current) == 1 && current[0].ID == target.ID {
		return nil
	}
	for _, l := range current {
		if err := r.store.RemoveAssociation(ctx, catalog.AssocMovieLanguage, movieID, l.ID); err != nil {
			return fmt.Errorf("remove language association: %w", err)
		}
	}
	if err := r.store.AddAssociation(ctx, catalog.AssocMovieLanguage, movieID, target.ID); err != nil {
		return fmt.Errorf("add language association: %w", err)
	}
	r.logger.Info("Set primary language for movie", zap.String("language", target.Name), zap.String("title", title))
	return nil
}
