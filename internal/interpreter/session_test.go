package interpreter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateGenerateID(t *testing.T) {
	s := NewSessionStore()
	sess := s.Create("", Fields{JobTitle: "Nurse"})
	assert.NotEmpty(t, sess.ID)

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, "Nurse", got.Fields.JobTitle)
}

func TestSessionStore_FinalizeAppliesDefaults(t *testing.T) {
	s := NewSessionStore()
	s.Create("abc", Fields{JobTitle: "Nurse", Location: "Boston", Industry: "Healthcare"})

	sess, ok := s.Finalize("abc")
	require.True(t, ok)
	assert.True(t, sess.Finished)
	assert.Equal(t, "Healthcare", sess.Fields.Industry)
	assert.Equal(t, DefaultCompanySize, sess.Fields.CompanySize)
	assert.Equal(t, DefaultCertifications, sess.Fields.Certifications)
	assert.Empty(t, sess.Fields.EducationLevel)

	_, ok = s.Finalize("missing")
	assert.False(t, ok)
}

func TestSessionStore_EvictIdle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore()
	s.now = func() time.Time { return now }

	s.Create("old", Fields{})
	now = now.Add(20 * time.Minute)
	s.Create("new", Fields{})

	assert.Equal(t, 1, s.EvictIdle(10*time.Minute))
	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("new")
	assert.True(t, ok)

	s.Evict("new")
	assert.Equal(t, 0, s.Len())
}

func TestSessionStore_Concurrent(t *testing.T) {
	s := NewSessionStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := s.Create("", Fields{JobTitle: "Cook"})
			sess.FollowUpAsked = true
			s.Save(sess)
			s.Finalize(sess.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
