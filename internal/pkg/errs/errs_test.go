package errs

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	customErr := NewError(ErrRoomNotFound)
	require.NotNil(t, customErr)
	assert.Equal(t, ErrRoomNotFound, customErr.Code)
	assert.Equal(t, http.StatusNotFound, customErr.Status)
	assert.NotEmpty(t, customErr.Message)
}

func TestNewErrorUnknownCode(t *testing.T) {
	customErr := NewError(999999)
	require.NotNil(t, customErr)
	assert.Equal(t, ErrUnknown, customErr.Code)
}

func TestNewErrorTemplateDetails(t *testing.T) {
	customErr := NewError(ErrRoomCapacityInvalid, 2, 100)
	require.NotNil(t, customErr)
	assert.Contains(t, customErr.Message, "2")
	assert.Contains(t, customErr.Message, "100")
}

func TestNewErrorDoesNotMutateRegistry(t *testing.T) {
	first := NewError(ErrRoomCapacityInvalid, 2, 100)
	second := NewError(ErrRoomCapacityInvalid, 3, 50)
	assert.NotEqual(t, first.Message, second.Message)
	assert.Contains(t, second.Message, "3")
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(NewError(ErrRoomCodeExists)))
	assert.True(t, IsConflict(NewError(ErrRoomIsFull)))
	assert.True(t, IsConflict(NewError(ErrEditWindowExpired)))
	assert.False(t, IsConflict(NewError(ErrRoomNotFound)))
	assert.False(t, IsConflict(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewError(ErrRoomNotFound)))
	assert.True(t, IsNotFound(NewError(ErrMessageNotFound)))
	assert.False(t, IsNotFound(NewError(ErrRoomIsFull)))
	assert.False(t, IsNotFound(nil))
}
