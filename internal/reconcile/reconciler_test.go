package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
	"github.com/streamcat/hotstar-crawler/internal/storage/memory"
)

func assocNames(t *testing.T, store catalog.Store, kind catalog.AssocKind, titleID int64) []string {
	t.Helper()
	entities, err := store.ListAssociations(context.Background(), kind, titleID)
	require.NoError(t, err)
	var names []string
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names
}

func TestSaveMovies_UpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	batch := []catalog.MovieRecord{{
		Title:       "Zeta",
		Description: "first pass",
		ReleaseYear: "2024",
		Duration:    "130 Minutes",
		Genres:      "Action, Drama",
		Language:    "English",
	}}

	saved, err := r.SaveMovies(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	batch[0].Description = "second pass"
	saved, err = r.SaveMovies(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	movie, err := store.FindMovieByTitle(ctx, "Zeta")
	require.NoError(t, err)
	assert.Equal(t, "second pass", movie.Description, "re-scrape overwrites fields")

	genres, err := store.ListReferenceEntities(ctx, catalog.RefGenre)
	require.NoError(t, err)
	assert.Len(t, genres, 2, "no duplicate reference entities on the second run")
	assert.ElementsMatch(t, []string{"Action", "Drama"}, assocNames(t, store, catalog.AssocMovieGenre, movie.ID))
}

func TestSaveMovies_CaseInsensitiveGenreIdentity(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	_, err := r.SaveMovies(ctx, []catalog.MovieRecord{
		{Title: "Zeta", Genres: "Drama", Language: "English"},
		{Title: "Alpha", Genres: "drama", Language: "English"},
	})
	require.NoError(t, err)

	genres, err := store.ListReferenceEntities(ctx, catalog.RefGenre)
	require.NoError(t, err)
	require.Len(t, genres, 1, "names differing only by case share one entity")
	assert.Equal(t, "Drama", genres[0].Name, "first-seen casing is retained")
}

func TestSaveMovies_SentinelClearsGenres(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	_, err := r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Zeta", Genres: "Action, Drama", Language: "English"}})
	require.NoError(t, err)

	for _, sentinel := range []string{"(not found)", "", "   "} {
		_, err = r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Zeta", Genres: "Action, Drama", Language: "English"}})
		require.NoError(t, err)

		_, err = r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Zeta", Genres: sentinel, Language: "English"}})
		require.NoError(t, err)

		movie, err := store.FindMovieByTitle(ctx, "Zeta")
		require.NoError(t, err)
		assert.Empty(t, assocNames(t, store, catalog.AssocMovieGenre, movie.ID), "sentinel %q removes every genre association", sentinel)
	}
}

func TestSaveMovies_LanguageSwitchReplacesAssociation(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	_, err := r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Zeta", Language: "Hindi"}})
	require.NoError(t, err)

	_, err = r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Zeta", Language: "Tamil"}})
	require.NoError(t, err)

	movie, err := store.FindMovieByTitle(ctx, "Zeta")
	require.NoError(t, err)
	names := assocNames(t, store, catalog.AssocMovieLanguage, movie.ID)
	assert.Equal(t, []string{"Tamil"}, names, "exactly one language association after the switch")
}

func TestSaveMovies_UnchangedLanguageLeavesAssociation(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Zeta", Language: "Hindi"}})
		require.NoError(t, err)
	}

	movie, err := store.FindMovieByTitle(ctx, "Zeta")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hindi"}, assocNames(t, store, catalog.AssocMovieLanguage, movie.ID))

	languages, err := store.ListReferenceEntities(ctx, catalog.RefLanguage)
	require.NoError(t, err)
	assert.Len(t, languages, 1)
}

func TestSaveMovies_JoinedMultiLanguageStaysAtomic(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	_, err := r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Zeta", Language: "Hindi, English"}})
	require.NoError(t, err)

	languages, err := store.ListReferenceEntities(ctx, catalog.RefLanguage)
	require.NoError(t, err)
	require.Len(t, languages, 1)
	assert.Equal(t, "Hindi, English", languages[0].Name, "a joined multi-track string is one atomic name")
}

// flakyStore fails a chosen operation so one record's failure can be
// observed against the rest of the batch.
type flakyStore struct {
	catalog.Store
	failInsertTitle string
}

func (s *flakyStore) InsertMovie(ctx context.Context, m catalog.Movie) (int64, error) {
	if m.Title == s.failInsertTitle {
		return 0, errors.New("store unavailable")
	}
	return s.Store.InsertMovie(ctx, m)
}

func TestSaveMovies_RecordFailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	store := &flakyStore{Store: memory.NewCatalogStore(), failInsertTitle: "Broken"}
	r := New(store, zap.NewNop())
	ctx := context.Background()

	saved, err := r.SaveMovies(ctx, []catalog.MovieRecord{
		{Title: "Zeta", Genres: "Action", Language: "English"},
		{Title: "Broken", Genres: "Drama", Language: "Hindi"},
		{Title: "Alpha", Genres: "Comedy", Language: "Tamil"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved, "only fully completed records are counted")

	_, err = store.FindMovieByTitle(ctx, "Alpha")
	require.NoError(t, err, "records after the failure are still processed")
	_, err = store.FindMovieByTitle(ctx, "Broken")
	assert.True(t, catalog.IsNotFound(err))
}

func TestSaveShows_GenreDiffAndReplace(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	_, err := r.SaveShows(ctx, []catalog.ShowRecord{{Title: "Epsilon", Genres: "Comedy, Thriller", Season: "2 Seasons"}})
	require.NoError(t, err)

	_, err = r.SaveShows(ctx, []catalog.ShowRecord{{Title: "Epsilon", Genres: "Thriller, Horror", Season: "3 Seasons"}})
	require.NoError(t, err)

	show, err := store.FindShowByTitle(ctx, "Epsilon")
	require.NoError(t, err)
	assert.Equal(t, "3 Seasons", show.Season)
	assert.ElementsMatch(t, []string{"Thriller", "Horror"}, assocNames(t, store, catalog.AssocShowGenre, show.ID))
}

func TestSaveMovies_EndToEndScenario(t *testing.T) {
	t.Parallel()

	store := memory.NewCatalogStore()
	r := New(store, zap.NewNop())
	ctx := context.Background()

	// "Alpha" pre-exists, linked to Comedy.
	_, err := r.SaveMovies(ctx, []catalog.MovieRecord{{Title: "Alpha", Genres: "Comedy", Language: "English"}})
	require.NoError(t, err)

	saved, err := r.SaveMovies(ctx, []catalog.MovieRecord{
		{Title: "Zeta", Genres: "Action, Drama", Language: "English"},
		{Title: "Alpha", Genres: "Comedy, Thriller", Language: "English"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	zeta, err := store.FindMovieByTitle(ctx, "Zeta")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Action", "Drama"}, assocNames(t, store, catalog.AssocMovieGenre, zeta.ID))
	assert.Equal(t, []string{"English"}, assocNames(t, store, catalog.AssocMovieLanguage, zeta.ID))

	alpha, err := store.FindMovieByTitle(ctx, "Alpha")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Comedy", "Thriller"}, assocNames(t, store, catalog.AssocMovieGenre, alpha.ID))

	genres, err := store.ListReferenceEntities(ctx, catalog.RefGenre)
	require.NoError(t, err)
	assert.Len(t, genres, 4, "Thriller is created exactly once")
}

func TestParseNameSet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Action", "Drama"}, parseNameSet("Action, Drama"))
	assert.Equal(t, []string{"Action"}, parseNameSet("Action, action,  "))
	assert.Nil(t, parseNameSet("(not found)"))
	assert.Nil(t, parseNameSet("   "))
	assert.Nil(t, parseNameSet(""))
}
