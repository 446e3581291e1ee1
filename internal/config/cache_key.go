package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentLoginKey returns the cache key holding the JTI of a student's active login.
func (r *CacheKeyStruct) StudentLoginKey(studentID int) string {
	return fmt.Sprintf("login:student:%d", studentID)
}

// SessionAnswersKey returns the cache key buffering autosaved answers of an exam session.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// SessionMetaKey returns the cache key holding the deadline, owner and question ids of an exam session.
func (r *CacheKeyStruct) SessionMetaKey(sessionID string) string {
	return fmt.Sprintf("session:%s:meta", sessionID)
}

// ExamPayloadKey returns the cache key for the student-facing payload of an exam.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// OAuthStateKey returns the cache key for a pending OAuth authorization state.
func (r *CacheKeyStruct) OAuthStateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}

var CacheKey = NewCacheKeyStruct()
