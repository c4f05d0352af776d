// Package store persists room records. The hub consumes the RoomStore
// interface only; BadgerStore is the shipped implementation.
package store

import (
	"context"
	"errors"

	"coderoom/internal/domain"
)

var ErrRoomNotFound = errors.New("room does not exist")

type RoomStore interface {
	Get(ctx context.Context, uuid string) (*domain.Room, error)
	Put(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, uuid string) error
	List(ctx context.Context) ([]domain.Room, error)
}
