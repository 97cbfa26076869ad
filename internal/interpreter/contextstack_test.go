package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextStackStartsAtStartupTask(t *testing.T) {
	s := NewContextStack(1)
	assert.Equal(t, Context{Kind: ContextTask, Handle: 1}, s.Top())
	assert.Equal(t, 1, s.Depth())
}

func TestContextStackEnterISRPushesFrame(t *testing.T) {
	s := NewContextStack(1)
	prev := s.EnterISR(10)
	assert.Equal(t, Context{Kind: ContextTask, Handle: 1}, prev)
	assert.Equal(t, Context{Kind: ContextISR, Handle: 10}, s.Top())
	assert.Equal(t, 2, s.Depth())
}

func TestContextStackNestedISRResumeUnwindsInner(t *testing.T) {
	s := NewContextStack(1)
	s.EnterISR(10)
	s.EnterISR(20) // 20 nested inside 10

	resumed, implicit := s.ResumeISR(10)
	assert.Equal(t, Context{Kind: ContextISR, Handle: 10}, resumed)
	assert.Equal(t, []Context{{Kind: ContextISR, Handle: 20}}, implicit)
	assert.Equal(t, 2, s.Depth())
}

func TestContextStackResumeUnknownISRIsRecovered(t *testing.T) {
	s := NewContextStack(1)
	resumed, implicit := s.ResumeISR(99)
	assert.Equal(t, Context{Kind: ContextISR, Handle: 99}, resumed)
	assert.Empty(t, implicit)
	assert.Equal(t, 2, s.Depth())
}

func TestContextStackSwitchTaskUnwindsAllISRs(t *testing.T) {
	s := NewContextStack(1)
	s.EnterISR(10)
	s.EnterISR(20)

	prevTop, implicit := s.SwitchTask(2)
	assert.Equal(t, Context{Kind: ContextISR, Handle: 20}, prevTop)
	assert.Equal(t, []Context{{Kind: ContextISR, Handle: 20}, {Kind: ContextISR, Handle: 10}}, implicit)
	assert.Equal(t, Context{Kind: ContextTask, Handle: 2}, s.Top())
	assert.Equal(t, 1, s.Depth())
}

func TestContextStackSwitchTaskNoISRsIsSimpleReplace(t *testing.T) {
	s := NewContextStack(1)
	prevTop, implicit := s.SwitchTask(2)
	assert.Equal(t, Context{Kind: ContextTask, Handle: 1}, prevTop)
	assert.Empty(t, implicit)
	assert.Equal(t, Context{Kind: ContextTask, Handle: 2}, s.Base())
}
