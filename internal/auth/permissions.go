package auth

// Permission strings granted in the "permissions" claim, one per route.
const (
	PermGetAuthors       = "get:authors"
	PermGetAuthorsDetail = "get:authors_detail"
	PermPostAuthors      = "post:authors"
	PermPatchAuthors     = "patch:authors"
	PermDeleteAuthors    = "delete:authors"

	PermGetBooks         = "get:books"
	PermGetBooksByAuthor = "get:books_by_author"
	PermGetBooksDetail   = "get:books_detail"
	PermPostBooks        = "post:books"
	PermPatchBooks       = "patch:books"
	PermDeleteBooks      = "delete:books"
)

// AllPermissions lists every permission the API checks.
var AllPermissions = []string{
	PermGetAuthors,
	PermGetAuthorsDetail,
	PermPostAuthors,
	PermPatchAuthors,
	PermDeleteAuthors,
	PermGetBooks,
	PermGetBooksByAuthor,
	PermGetBooksDetail,
	PermPostBooks,
	PermPatchBooks,
	PermDeleteBooks,
}
