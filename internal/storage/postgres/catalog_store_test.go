package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
)

func newMockStore(t *testing.T) (*CatalogStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewCatalogStoreWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func TestNewCatalogStoreWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewCatalogStoreWithPool(nil)
	require.Error(t, err)
}

func TestFindMovieByTitleReturnsRow(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, title, description, release_year, rating, duration, image_url").
		WithArgs("Zeta").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "description", "release_year", "rating", "duration", "image_url",
		}).AddRow(int64(7), "Zeta", "a movie", "2024", "U/A 13+", "130 Minutes", "https://img/zeta.jpg"))

	movie, err := store.FindMovieByTitle(context.Background(), "Zeta")
	require.NoError(t, err)
	assert.Equal(t, int64(7), movie.ID)
	assert.Equal(t, "130 Minutes", movie.Duration)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMovieByTitleMapsNoRows(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, title, description, release_year, rating, duration, image_url").
		WithArgs("Missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "description", "release_year", "rating", "duration", "image_url",
		}))

	_, err := store.FindMovieByTitle(context.Background(), "Missing")
	assert.True(t, catalog.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMovieReturnsID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO movies").
		WithArgs("Zeta", "a movie", "2024", "U/A 13+", "130 Minutes", "https://img/zeta.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := store.InsertMovie(context.Background(), catalog.Movie{
		Title:       "Zeta",
		Description: "a movie",
		ReleaseYear: "2024",
		Rating:      "U/A 13+",
		Duration:    "130 Minutes",
		ImageURL:    "https://img/zeta.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShowOverwritesFields(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE shows").
		WithArgs("a show", "2023", "U", "3 Seasons", "https://img/eps.jpg", int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.UpdateShow(context.Background(), catalog.Show{
		ID:          9,
		Title:       "Epsilon",
		Description: "a show",
		ReleaseYear: "2023",
		Rating:      "U",
		Season:      "3 Seasons",
		ImageURL:    "https://img/eps.jpg",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReferenceEntityUsesKindTable(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO genres").
		WithArgs("Drama").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := store.InsertReferenceEntity(context.Background(), catalog.RefGenre, "Drama")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReferenceEntityRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	store, _ := newMockStore(t)

	_, err := store.InsertReferenceEntity(context.Background(), catalog.RefKind("studios"), "A24")
	require.Error(t, err)
}

func TestListReferenceEntitiesScansRows(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, name FROM languages").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Hindi").
			AddRow(int64(2), "Tamil"))

	entities, err := store.ListReferenceEntities(context.Background(), catalog.RefLanguage)
	require.NoError(t, err)
	assert.Equal(t, []catalog.RefEntity{{ID: 1, Name: "Hindi"}, {ID: 2, Name: "Tamil"}}, entities)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssociationsJoinsKindTables(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM movie_genres a").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(3), "Drama"))

	entities, err := store.ListAssociations(context.Background(), catalog.AssocMovieGenre, 7)
	require.NoError(t, err)
	assert.Equal(t, []catalog.RefEntity{{ID: 3, Name: "Drama"}}, entities)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddAssociationTargetsKindTable(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO movie_languages").
		WithArgs(int64(7), int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.AddAssociation(context.Background(), catalog.AssocMovieLanguage, 7, 2)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveAssociationTargetsKindTable(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM show_genres").
		WithArgs(int64(9), int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := store.RemoveAssociation(context.Background(), catalog.AssocShowGenre, 9, 4)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
