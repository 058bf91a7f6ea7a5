package output

import (
	"context"
	"errors"
)

var ErrNoActiveTab = errors.New("no active tab")

// BrowserPort gives the relay access to the tab the user is looking at.
type BrowserPort interface {
	ActiveTab(ctx context.Context) (TabPort, error)
	Close()
}

// TabPort is a live page the content script can run in.
type TabPort interface {
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	// Snapshot returns the document HTML with live control state copied
	// into attributes. Password values are never copied.
	Snapshot(ctx context.Context) (string, error)
	DOM(ctx context.Context) (FillDOM, error)
}

// FillDOM is the part of a document the fill executor writes to.
type FillDOM interface {
	ByID(ctx context.Context, id string) (FieldHandle, error)
	ByName(ctx context.Context, name string) (FieldHandle, error)
	// ByPosition finds the index-th control of the form-th <form>, or of
	// the controls outside any form when form is entity.StandaloneForm.
	ByPosition(ctx context.Context, form, index int) (FieldHandle, error)
	BySelector(ctx context.Context, selector string) (FieldHandle, error)
}

// ErrFieldNotFound is returned by FillDOM lookups that match nothing.
var ErrFieldNotFound = errors.New("field not found")

// FieldHandle sets a value and dispatches input and change notifications.
type FieldHandle interface {
	Assign(ctx context.Context, value string) error
}
