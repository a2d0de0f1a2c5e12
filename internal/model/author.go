// Package model defines the data structures used throughout the application.
//
// Entities (Author, Book) are what the store persists. Projections
// (AuthorShort, BookLong, ...) are the exact JSON shapes clients see: list
// endpoints return the short form, detail and write endpoints the long form.
package model

// Author writes zero or more books.
//
// BookCount is derived by the store on read and is never written.
type Author struct {
	ID        int64
	Name      string
	FullName  string
	DOB       Date
	BookCount int
}

// AuthorShort is the list projection.
type AuthorShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthorLong is the detail projection.
type AuthorLong struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DOB           Date   `json:"dob"`
	NumberOfBooks int    `json:"number_of_books"`
}

func (a Author) Short() AuthorShort {
	return AuthorShort{ID: a.ID, Name: a.Name}
}

func (a Author) Long() AuthorLong {
	return AuthorLong{
		ID:            a.ID,
		Name:          a.Name,
		FullName:      a.FullName,
		DOB:           a.DOB,
		NumberOfBooks: a.BookCount,
	}
}
