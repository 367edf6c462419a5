package service

import "errors"

var (
	ErrNavigation      = errors.New("click-through navigation failed")
	ErrNotVisible      = errors.New("no promotion is visible")
	ErrSessionNotFound = errors.New("session not found")
)
