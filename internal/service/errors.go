package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNotAuthor          = errors.New("only the author can change this post")
	ErrFollowSelf         = errors.New("cannot follow self")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrUnknownGroup       = errors.New("unknown group")
	ErrEmptyText          = errors.New("text must not be empty")
)

// notFound 把 gorm 的记录不存在转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
