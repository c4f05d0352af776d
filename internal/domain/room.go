package domain

import (
	"errors"
	"slices"
)

const (
	MaxRoomNameLen = 20
	MaxRoomSize    = 10
	MinPasswordLen = 6
	MaxPasswordLen = 20
)

var (
	ErrRoomNameEmpty    = errors.New("room name empty")
	ErrRoomNameTooLong  = errors.New("room name too long")
	ErrRoomSizeInvalid  = errors.New("room size out of range")
	ErrPasswordTooShort = errors.New("room password too short")
	ErrPasswordTooLong  = errors.New("room password too long")
)

// QuestionMeta points at the question assigned to a room on creation.
type QuestionMeta struct {
	ID        int    `json:"questionID"`
	TitleSlug string `json:"questionTitle"`
}

// Room is the persisted room record. Password holds the argon2id encoded
// hash, never the plain credential; Members holds usernames.
type Room struct {
	Name     string        `json:"name"`
	Size     int           `json:"size"`
	UUID     string        `json:"uuid"`
	Owner    string        `json:"owner,omitempty"`
	Password string        `json:"password,omitempty"`
	Members  []string      `json:"members"`
	Question *QuestionMeta `json:"questionData,omitempty"`
}

func (r *Room) HasPassword() bool { return r.Password != "" }

func (r *Room) IsFull() bool { return len(r.Members) >= r.Size }

func (r *Room) AddMember(username string) {
	r.Members = append(r.Members, username)
}

func (r *Room) RemoveMember(username string) {
	r.Members = slices.DeleteFunc(r.Members, func(m string) bool { return m == username })
}

// WithoutPassword returns a copy safe to hand to clients.
func (r *Room) WithoutPassword() Room {
	out := *r
	out.Password = ""
	return out
}

// ValidateRoomInput checks user-supplied room fields. password is the
// plain credential as entered, before hashing; empty means none.
func ValidateRoomInput(name string, size int, password string) error {
	if name == "" {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	if size <= 0 || size > MaxRoomSize {
		return ErrRoomSizeInvalid
	}
	if password != "" {
		if len(password) < MinPasswordLen {
			return ErrPasswordTooShort
		}
		if len(password) > MaxPasswordLen {
			return ErrPasswordTooLong
		}
	}
	return nil
}
