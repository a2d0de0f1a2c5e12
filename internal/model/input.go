package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/bookstore-api/internal/validate"
)

// NewAuthor is the POST /authors body.
type NewAuthor struct {
	Name     string  `json:"name"`
	FullName string  `json:"full_name"`
	DOB      *string `json:"dob"`
}

func (r NewAuthor) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validate.NotBlank),
		validation.Field(&r.FullName, validate.NotBlank),
		validation.Field(&r.DOB, validate.ValidDate),
	)
}

// NewBook is the POST /books body. Whether AuthorID exists is checked
// against the store by the service, not here.
type NewBook struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ReleaseDate *string `json:"release_date"`
	AuthorID    *int64  `json:"author_id"`
}

func (r NewBook) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validate.NotBlank),
		validation.Field(&r.ReleaseDate, validate.ValidDate),
		validation.Field(&r.AuthorID, validation.NotNil.Error("is required")),
	)
}

// AuthorPatch is the PATCH /authors/{id} body. Absent fields are left alone.
type AuthorPatch struct {
	Name     Optional[string] `json:"name"`
	FullName Optional[string] `json:"full_name"`
	DOB      Optional[string] `json:"dob"`
}

func (p AuthorPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.When(p.Name.Set, validate.NotBlank)),
		validation.Field(&p.FullName, validation.When(p.FullName.Set, validate.NotBlank)),
		validation.Field(&p.DOB, validation.When(p.DOB.Set, validate.ValidDate)),
	)
}

// Empty reports whether the patch names no known field.
func (p AuthorPatch) Empty() bool {
	return !p.Name.Set && !p.FullName.Set && !p.DOB.Set
}

// BookPatch is the PATCH /books/{id} body. A null description clears it;
// null for any other field is rejected.
type BookPatch struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	ReleaseDate Optional[string] `json:"release_date"`
	AuthorID    Optional[int64]  `json:"author_id"`
}

func (p BookPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.When(p.Title.Set, validate.NotBlank)),
		validation.Field(&p.ReleaseDate, validation.When(p.ReleaseDate.Set, validate.ValidDate)),
		validation.Field(&p.AuthorID, validate.NotNull.Error("is required")),
	)
}

func (p BookPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.ReleaseDate.Set && !p.AuthorID.Set
}
