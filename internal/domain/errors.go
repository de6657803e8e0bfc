package domain

import "errors"

var (
	// Catalog errors
	ErrBookNotFound     = errors.New("book not found")
	ErrTemplateNotFound = errors.New("book template not found")
	ErrRuleSetNotFound  = errors.New("rule set not found")

	// Persistence boundary errors
	ErrNilAccount        = errors.New("line has no account")
	ErrTemplateMismatch  = errors.New("account is not allowed in this book")
	ErrJournalMismatch   = errors.New("journal is not allowed in this book")
	ErrDuplicateDocument = errors.New("document already recorded")

	// Scan errors
	ErrScanInProgress = errors.New("scan already in progress for this book")
)
