package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarel/portfolio-api/internal/model"
	q "github.com/mkarel/portfolio-api/internal/queue"
	"github.com/mkarel/portfolio-api/internal/repository"
)

var (
	owner    = model.User{ID: 1, Name: "Owner", AvatarURL: "/a/owner.png", Role: model.RoleUser}
	stranger = model.User{ID: 2, Name: "Stranger", Role: model.RoleUser}
	admin    = model.User{ID: 3, Name: "Admin", Role: model.RoleUser, IsAdmin: true}
)

func newTestModeration(t *testing.T) (*TestimonialService, *fakeTestimonialStore, *recordingAuditSink) {
	t.Helper()
	store := newFakeTestimonialStore()
	sink := &recordingAuditSink{}
	return NewTestimonialService(store, sink), store, sink
}

func createOwned(t *testing.T, svc *TestimonialService) model.Testimonial {
	t.Helper()
	created, err := svc.Create(context.Background(), owner, model.Testimonial{
		Content: "great work", Rating: 5, Position: "CTO", Company: "Acme",
	})
	require.NoError(t, err)
	return created
}

func TestCreate_AlwaysStartsUnapproved(t *testing.T) {
	svc, _, _ := newTestModeration(t)

	created, err := svc.Create(context.Background(), admin, model.Testimonial{
		Content: "self praise", Rating: 5, IsApproved: true,
	})
	require.NoError(t, err)
	assert.False(t, created.IsApproved, "creation ignores any approval flag")
	assert.Equal(t, admin.ID, created.UserID)
}

func TestCreate_DenormalizesAuthorDisplayCopy(t *testing.T) {
	svc, _, _ := newTestModeration(t)

	created := createOwned(t, svc)
	assert.Equal(t, owner.Name, created.AuthorName)
	assert.Equal(t, owner.AvatarURL, created.AuthorAvatar)
}

func TestUpdate_OwnershipMatrix(t *testing.T) {
	newContent := "updated content"

	tests := []struct {
		name    string
		caller  model.User
		wantErr error
	}{
		{name: "stranger is forbidden", caller: stranger, wantErr: ErrForbidden},
		{name: "owner may edit content", caller: owner},
		{name: "admin may edit regardless of ownership", caller: admin},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc, _, _ := newTestModeration(t)
			created := createOwned(t, svc)

			got, err := svc.Update(context.Background(), test.caller, created.ID,
				TestimonialUpdate{Content: &newContent})
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, newContent, got.Content)
		})
	}
}

func TestUpdate_ApprovalIsAdminOnly(t *testing.T) {
	svc, _, sink := newTestModeration(t)
	created := createOwned(t, svc)
	approve := true

	// The owner may never touch approval, even on their own record.
	_, err := svc.Update(context.Background(), owner, created.ID,
		TestimonialUpdate{Approved: &approve})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Update(context.Background(), admin, created.ID,
		TestimonialUpdate{Approved: &approve})
	require.NoError(t, err)
	assert.True(t, got.IsApproved)

	// Approval is a toggle, not a one-way transition.
	revoke := false
	got, err = svc.Update(context.Background(), admin, created.ID,
		TestimonialUpdate{Approved: &revoke})
	require.NoError(t, err)
	assert.False(t, got.IsApproved)

	events := sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, q.KindTestimonialModerated, events[0].Kind)
	assert.Equal(t, admin.ID, events[0].ActorID)
	require.NotNil(t, events[0].Approved)
	assert.True(t, *events[0].Approved)
	require.NotNil(t, events[1].Approved)
	assert.False(t, *events[1].Approved)
}

func TestUpdate_AllowListedMergeOnly(t *testing.T) {
	svc, store, _ := newTestModeration(t)
	created := createOwned(t, svc)

	position := "VP Engineering"
	rating := 4
	got, err := svc.Update(context.Background(), owner, created.ID,
		TestimonialUpdate{Position: &position, Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, "VP Engineering", got.Position)
	assert.Equal(t, 4, got.Rating)
	// Untouched fields survive the merge.
	assert.Equal(t, created.Content, got.Content)
	assert.Equal(t, created.Company, got.Company)
	assert.False(t, got.IsApproved)

	stored, err := store.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "VP Engineering", stored.Position)
	assert.Equal(t, 4, stored.Rating)
}

func TestUpdate_MissingTestimonial(t *testing.T) {
	svc, _, _ := newTestModeration(t)
	content := "x"
	_, err := svc.Update(context.Background(), admin, 404, TestimonialUpdate{Content: &content})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete_OwnershipMatrix(t *testing.T) {
	tests := []struct {
		name    string
		caller  model.User
		wantErr error
	}{
		{name: "stranger is forbidden", caller: stranger, wantErr: ErrForbidden},
		{name: "owner may delete", caller: owner},
		{name: "admin may delete", caller: admin},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc, store, _ := newTestModeration(t)
			created := createOwned(t, svc)

			err := svc.Delete(context.Background(), test.caller, created.ID)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
			_, err = store.FindByID(context.Background(), created.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestListApproved_FiltersUnapproved(t *testing.T) {
	svc, _, _ := newTestModeration(t)
	created := createOwned(t, svc)
	createOwned(t, svc) // second one stays unapproved

	approve := true
	_, err := svc.Update(context.Background(), admin, created.ID,
		TestimonialUpdate{Approved: &approve})
	require.NoError(t, err)

	visible, err := svc.ListApproved(context.Background())
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, created.ID, visible[0].ID)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
