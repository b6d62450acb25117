package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	n, err := New(CreateParams{ID: "n-1", UserID: "u", Title: " Rent accepted ", Message: "Your rent was accepted", Type: TypeRentAccepted, ReferenceID: "r-1", ReferenceType: ReferenceRent, Now: now})
	require.NoError(t, err)
	assert.Equal(t, "Rent accepted", n.Title)
	assert.False(t, n.Read)

	_, err = New(CreateParams{UserID: "u", Title: "x", Message: "y", Type: Type(9)})
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = New(CreateParams{UserID: "", Title: "x", Message: "y"})
	assert.ErrorIs(t, err, ErrUserRequired)
}

func TestMarkRead(t *testing.T) {
	n := &Notification{ID: "n"}
	assert.True(t, n.MarkRead(now))
	require.NotNil(t, n.ReadAt)
	assert.False(t, n.MarkRead(now.Add(time.Hour)))
	assert.Equal(t, now, *n.ReadAt)
}

func TestTypes(t *testing.T) {
	assert.Equal(t, "ViewingCancelled", TypeViewingCancelled.String())
	assert.Equal(t, Type(8), TypeViewingCancelled)
	typ, err := ParseType("rentpaid")
	require.NoError(t, err)
	assert.Equal(t, TypeRentPaid, typ)
}

func TestSearchParamsMatches(t *testing.T) {
	n := &Notification{UserID: "u", Title: "Viewing approved", Message: "See you Monday", Type: TypeViewingApproved, ReferenceType: ReferenceViewing}
	unread := false
	typ := TypeViewingApproved
	assert.True(t, SearchParams{UserID: "u", Read: &unread, Type: &typ, Text: "monday"}.Matches(n))
	assert.True(t, SearchParams{ReferenceType: "viewingappointment"}.Matches(n))
	assert.False(t, SearchParams{Text: "rent"}.Matches(n))
	assert.False(t, SearchParams{UserID: "other"}.Matches(n))
}
