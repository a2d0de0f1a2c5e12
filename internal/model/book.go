package model

// Book belongs to exactly one Author.
//
// AuthorName is resolved by the store with a join so projections never need
// a second lookup.
type Book struct {
	ID          int64
	Title       string
	Description *string
	ReleaseDate Date
	AuthorID    int64
	AuthorName  string
}

type BookShort struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type BookLong struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ReleaseDate Date    `json:"release_date"`
	Author      string  `json:"author"`
}

func (b Book) Short() BookShort {
	return BookShort{ID: b.ID, Title: b.Title, Author: b.AuthorName}
}

func (b Book) Long() BookLong {
	return BookLong{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		ReleaseDate: b.ReleaseDate,
		Author:      b.AuthorName,
	}
}
