package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
)

func TestMovieRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()

	_, err := store.FindMovieByTitle(ctx, "Zeta")
	assert.True(t, catalog.IsNotFound(err))

	id, err := store.InsertMovie(ctx, catalog.Movie{Title: "Zeta", Duration: "130 Minutes"})
	require.NoError(t, err)

	movie, err := store.FindMovieByTitle(ctx, "Zeta")
	require.NoError(t, err)
	assert.Equal(t, id, movie.ID)

	movie.Duration = "90 Minutes"
	require.NoError(t, store.UpdateMovie(ctx, movie))

	movie, err = store.FindMovieByTitle(ctx, "Zeta")
	require.NoError(t, err)
	assert.Equal(t, "90 Minutes", movie.Duration)
}

func TestUpdateMissingShowFails(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	err := store.UpdateShow(context.Background(), catalog.Show{ID: 99, Title: "Ghost"})
	assert.True(t, catalog.IsNotFound(err))
}

func TestReferenceEntitiesOrderedByID(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()

	for _, name := range []string{"Drama", "Action", "Comedy"} {
		_, err := store.InsertReferenceEntity(ctx, catalog.RefGenre, name)
		require.NoError(t, err)
	}

	entities, err := store.ListReferenceEntities(ctx, catalog.RefGenre)
	require.NoError(t, err)
	var names []string
	for _, e := range entities {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Drama", "Action", "Comedy"}, names, "insertion order is id order")
}

func TestAssociationsAreIdempotentPerKind(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()

	movieID, err := store.InsertMovie(ctx, catalog.Movie{Title: "Zeta"})
	require.NoError(t, err)
	genreID, err := store.InsertReferenceEntity(ctx, catalog.RefGenre, "Drama")
	require.NoError(t, err)

	require.NoError(t, store.AddAssociation(ctx, catalog.AssocMovieGenre, movieID, genreID))
	require.NoError(t, store.AddAssociation(ctx, catalog.AssocMovieGenre, movieID, genreID))

	linked, err := store.ListAssociations(ctx, catalog.AssocMovieGenre, movieID)
	require.NoError(t, err)
	assert.Len(t, linked, 1)

	// Same title id in a different association kind stays independent.
	linked, err = store.ListAssociations(ctx, catalog.AssocMovieLanguage, movieID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	require.NoError(t, store.RemoveAssociation(ctx, catalog.AssocMovieGenre, movieID, genreID))
	linked, err = store.ListAssociations(ctx, catalog.AssocMovieGenre, movieID)
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestUnknownKindsRejected(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()

	_, err := store.ListReferenceEntities(ctx, catalog.RefKind("studios"))
	assert.Error(t, err)
	_, err = store.ListAssociations(ctx, catalog.AssocKind("movie_studios"), 1)
	assert.Error(t, err)
	err = store.AddAssociation(ctx, catalog.AssocKind("movie_studios"), 1, 1)
	assert.Error(t, err)
}
