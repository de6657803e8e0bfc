package domain

// BookTemplate bundles the accounts, journals and rule sets shared by the
// books created from it.
type BookTemplate struct {
	ID          string
	Name        string
	Description string
}

// Journal categorizes moves. Its code doubles as the name of the
// subdirectory scanned for documents under the book's path.
type Journal struct {
	ID         string
	TemplateID string
	Code       string
	Name       string
}

func (j *Journal) String() string {
	return j.Code + " - " + j.Name
}

// Book is one ledger book: a template instance rooted at a document
// directory on disk.
type Book struct {
	ID         string
	TemplateID string
	Name       string
	Path       string
}
