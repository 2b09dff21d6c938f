package repo

import "errors"

var (
	// ErrNotFound — процесс или версия не найдены.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — процесс с таким именем уже есть (SQLSTATE 23505).
	ErrAlreadyExists = errors.New("already exists")
)
