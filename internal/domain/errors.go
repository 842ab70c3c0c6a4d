package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrWSDisconnect = errors.New("websocket disconnected")
	ErrExpired      = errors.New("event expired")
)
