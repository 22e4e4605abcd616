// Package repository holds the page configuration sources the discovery
// service resolves slugs against.  Both the SQL-backed repo and the YAML file
// source report a missing slug with ErrPageConfigNotFound so callers can tell
// "no such page" apart from a broken store.
package repository

import "errors"

// ErrPageConfigNotFound is returned when no configuration exists for a slug.
// The discovery context builder treats it as "use defaults".
var ErrPageConfigNotFound = errors.New("page config not found")
