package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	parent := uint(3)
	event := NewEvent(EventCommentCreated, CommentEventData{CommentID: 9, UserID: 1, PostID: 2, ParentCommentID: &parent})
	require.NotEmpty(t, event.ID)

	value, err := json.Marshal(event)
	require.NoError(t, err)

	raw, err := DecodeEvent(value)
	require.NoError(t, err)
	assert.Equal(t, event.ID, raw.ID)
	assert.Equal(t, EventCommentCreated, raw.Type)

	var data CommentEventData
	require.NoError(t, json.Unmarshal(raw.Data, &data))
	assert.Equal(t, uint(2), data.PostID)
	require.NotNil(t, data.ParentCommentID)
	assert.Equal(t, parent, *data.ParentCommentID)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := DecodeEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a := NewEvent(EventPostCreated, PostEventData{PostID: 1})
	b := NewEvent(EventPostCreated, PostEventData{PostID: 1})
	assert.NotEqual(t, a.ID, b.ID)
}
