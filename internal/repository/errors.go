package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrDuplicate 唯一约束冲突
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference 外键指向的记录不存在
	ErrMissingReference = errors.New("referenced record does not exist")
)

// translate 将驱动层约束错误统一为包内哨兵错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrMissingReference
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "duplicate key value"):
		return ErrDuplicate
	case strings.Contains(msg, "FOREIGN KEY constraint failed"), strings.Contains(msg, "violates foreign key constraint"):
		return ErrMissingReference
	}
	return err
}
