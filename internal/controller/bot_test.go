package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandPattern(t *testing.T) {
	task := commandPattern("task")

	assert.True(t, task.MatchString("/task"))
	assert.True(t, task.MatchString("/task купить цемент"))
	assert.True(t, task.MatchString("/task@relay_bot купить"))
	assert.False(t, task.MatchString("/tasks"), "prefix of another command")
	assert.False(t, task.MatchString("send /task"))
	assert.True(t, commandPattern("tasks").MatchString("/tasks"))
}
