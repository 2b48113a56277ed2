package repositories

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")

	ErrNotificationNotFound = errors.New("notification not found")
)

// formatTaskID renders the n-th allocated task id: 01, 02, ... 99, 100.
func formatTaskID(n int64) string {
	return fmt.Sprintf("%02d", n)
}
