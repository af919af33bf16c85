// Package catalog defines the relational catalog entities and the store
// boundary the reconciliation engine writes through.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("catalog: not found")

// IsNotFound reports whether err means a lookup matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RefKind identifies a reference-entity table.
type RefKind string

// Reference-entity kinds.
const (
	RefGenre    RefKind = "genre"
	RefLanguage RefKind = "language"
)

// AssocKind identifies a title/reference-entity join table.
type AssocKind string

// Association kinds.
const (
	AssocMovieGenre    AssocKind = "movie_genre"
	AssocShowGenre     AssocKind = "show_genre"
	AssocMovieLanguage AssocKind = "movie_language"
)

// Movie is a catalog title with a runtime duration.
// Title is the natural key; all other fields are overwritten on re-scrape.
type Movie struct {
	ID          int64
	Title       string
	Description string
	ReleaseYear string
	Rating      string
	Duration    string
	ImageURL    string
}

// Show is a catalog title with a season label instead of a duration.
type Show struct {
	ID          int64
	Title       string
	Description string
	ReleaseYear string
	Rating      string
	Season      string
	ImageURL    string
}

// RefEntity is a shared lookup row (genre or language) referenced by many
// titles. Name is unique case-insensitively and immutable once created.
type RefEntity struct {
	ID   int64
	Name string
}

// MovieRecord is the ephemeral output of scraping one movie detail view.
// Genres is a comma-joined free-text list; Language is a single free-text
// name (possibly itself comma-joined when the title carries several audio
// tracks). Empty fields mean the extractor found nothing.
type MovieRecord struct {
	Title       string
	Description string
	ReleaseYear string
	Rating      string
	Duration    string
	Language    string
	Genres      string
	ImageURL    string
}

// ShowRecord is the ephemeral output of scraping one show detail view.
type ShowRecord struct {
	Title       string
	Description string
	ReleaseYear string
	Rating      string
	Season      string
	Genres      string
	ImageURL    string
}

// Store is the persistence boundary for titles, reference entities, and
// their associations. Every operation commits immediately; the
// reconciliation engine never opens multi-statement transactions.
type Store interface {
	FindMovieByTitle(ctx context.Context, title string) (Movie, error)
	InsertMovie(ctx context.Context, m Movie) (int64, error)
	UpdateMovie(ctx context.Context, m Movie) error

	FindShowByTitle(ctx context.Context, title string) (Show, error)
	InsertShow(ctx context.Context, s Show) (int64, error)
	UpdateShow(ctx context.Context, s Show) error

	ListReferenceEntities(ctx context.Context, kind RefKind) ([]RefEntity, error)
	InsertReferenceEntity(ctx context.Context, kind RefKind, name string) (int64, error)

	// ListAssociations returns the reference entities currently linked to a
	// title, with their names so callers can diff by name.
	ListAssociations(ctx context.Context, kind AssocKind, titleID int64) ([]RefEntity, error)
	AddAssociation(ctx context.Context, kind AssocKind, titleID, refID int64) error
	RemoveAssociation(ctx context.Context, kind AssocKind, titleID, refID int64) error

	Close()
}
