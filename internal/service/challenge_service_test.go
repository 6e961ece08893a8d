package service

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/validation"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChallengeService_PermissionDeniedForUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	week, items := env.seedWeek(t, 1, "Gratitude", "Write three things")
	user := actorWith(domain.RoleUser)

	_, err := env.challenges.CreateWeek(ctx, user, weekInput(2, "Sleep"))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = env.challenges.UpdateWeek(ctx, user, week.ID, domain.WeekPatch{Theme: ptr("Changed")})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, env.challenges.DeleteWeek(ctx, user, week.ID), ErrPermissionDenied)
	_, err = env.challenges.CreateItem(ctx, user, week.ID, domain.ItemInput{Title: "x"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = env.challenges.UpdateItem(ctx, user, week.ID, items[0].ID, domain.ItemPatch{Title: ptr("y")})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, env.challenges.DeleteItem(ctx, user, week.ID, items[0].ID), ErrPermissionDenied)

	// Permission is checked before validation: an invalid payload still yields ErrPermissionDenied
	_, err = env.challenges.CreateWeek(ctx, user, domain.WeekInput{})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	catalog, err := env.challenges.ListCatalog(ctx, user)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "Gratitude", catalog[0].Theme)
	require.Len(t, catalog[0].Items, 1)
	assert.Equal(t, "Write three things", catalog[0].Items[0].Title)
}

func TestChallengeService_PrivilegedRolesMayManage(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleSpecialist, domain.RoleAdmin, domain.RoleSuperAdmin} {
		t.Run(string(role), func(t *testing.T) {
			env := newTestEnv(t)
			week, err := env.challenges.CreateWeek(context.Background(), actorWith(role), weekInput(1, "Movement"))
			require.NoError(t, err)
			assert.Equal(t, 1, week.WeekNumber)
			assert.NotNil(t, week.Items)
			assert.Empty(t, week.Items)
		})
	}
}

func TestChallengeService_CreateWeekValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := actorWith(domain.RoleAdmin)

	bad := domain.WeekInput{
		WeekNumber: 0,
		Theme:      "   ",
		StartDate:  day(2024, time.March, 10),
		EndDate:    day(2024, time.March, 3),
	}
	_, err := env.challenges.CreateWeek(context.Background(), admin, bad)
	fields, ok := validation.Fields(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, fields, "weekNumber")
	assert.Contains(t, fields, "theme")
	assert.Contains(t, fields, "endDate")

	catalog, err := env.challenges.ListCatalog(context.Background(), admin)
	require.NoError(t, err)
	assert.Empty(t, catalog)
}

func TestChallengeService_CreateWeekNormalizesDates(t *testing.T) {
	env := newTestEnv(t)
	in := domain.WeekInput{
		WeekNumber: 3,
		Theme:      "  Mindfulness ",
		StartDate:  time.Date(2024, time.May, 6, 15, 30, 0, 0, time.UTC),
		EndDate:    time.Date(2024, time.May, 12, 23, 59, 0, 0, time.UTC),
	}
	week, err := env.challenges.CreateWeek(context.Background(), actorWith(domain.RoleSpecialist), in)
	require.NoError(t, err)
	assert.Equal(t, "Mindfulness", week.Theme)
	assert.Equal(t, day(2024, time.May, 6), week.StartDate)
	assert.Equal(t, day(2024, time.May, 12), week.EndDate)
}

func TestChallengeService_DuplicateWeekNumber(t *testing.T) {
	env := newTestEnv(t)
	admin := actorWith(domain.RoleAdmin)
	env.seedWeek(t, 1, "One")
	second, _ := env.seedWeek(t, 2, "Two")

	_, err := env.challenges.CreateWeek(context.Background(), admin, weekInput(1, "Again"))
	assert.ErrorIs(t, err, ErrWeekNumberTaken)

	_, err = env.challenges.UpdateWeek(context.Background(), admin, second.ID, domain.WeekPatch{WeekNumber: ptr(1)})
	assert.ErrorIs(t, err, ErrWeekNumberTaken)

	// Keeping its own number is fine
	updated, err := env.challenges.UpdateWeek(context.Background(), admin, second.ID, domain.WeekPatch{WeekNumber: ptr(2), Theme: ptr("Two bis")})
	require.NoError(t, err)
	assert.Equal(t, "Two bis", updated.Theme)
}

func TestChallengeService_UpdateWeekValidatesMergedResult(t *testing.T) {
	env := newTestEnv(t)
	admin := actorWith(domain.RoleAdmin)
	week, _ := env.seedWeek(t, 1, "Rest")

	// Moving only the end date before the stored start date is invalid
	_, err := env.challenges.UpdateWeek(context.Background(), admin, week.ID, domain.WeekPatch{
		EndDate: ptr(week.StartDate.AddDate(0, 0, -1)),
	})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Equal(t, "endDate must not be before startDate", fields["endDate"])

	_, err = env.challenges.UpdateWeek(context.Background(), admin, week.ID, domain.WeekPatch{Theme: ptr("")})
	fields, ok = validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "theme")

	_, err = env.challenges.UpdateWeek(context.Background(), admin, primitive.NewObjectID(), domain.WeekPatch{})
	assert.ErrorIs(t, err, ErrWeekNotFound)
}

func TestChallengeService_ItemLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := actorWith(domain.RoleAdmin)
	week, _ := env.seedWeek(t, 1, "Connection")

	_, err := env.challenges.CreateItem(ctx, admin, week.ID, domain.ItemInput{Title: "  "})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "title")

	_, err = env.challenges.CreateItem(ctx, admin, primitive.NewObjectID(), domain.ItemInput{Title: "Call a friend"})
	assert.ErrorIs(t, err, ErrWeekNotFound)

	first, err := env.challenges.CreateItem(ctx, admin, week.ID, domain.ItemInput{Title: "Call a friend"})
	require.NoError(t, err)
	second, err := env.challenges.CreateItem(ctx, admin, week.ID, domain.ItemInput{Title: "Write a letter", Description: "By hand"})
	require.NoError(t, err)
	assert.False(t, first.Completed)
	assert.Less(t, first.Sequence, second.Sequence)

	updated, err := env.challenges.UpdateItem(ctx, admin, week.ID, second.ID, domain.ItemPatch{Title: ptr("Write a postcard")})
	require.NoError(t, err)
	assert.Equal(t, "Write a postcard", updated.Title)
	assert.Equal(t, "By hand", updated.Description)

	// An item addressed through the wrong week is not found
	other, _ := env.seedWeek(t, 2, "Other")
	_, err = env.challenges.UpdateItem(ctx, admin, other.ID, second.ID, domain.ItemPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	require.NoError(t, env.challenges.DeleteItem(ctx, admin, week.ID, first.ID))
	assert.ErrorIs(t, env.challenges.DeleteItem(ctx, admin, week.ID, first.ID), ErrChallengeNotFound)

	catalog, err := env.challenges.ListCatalog(ctx, admin)
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	require.Len(t, catalog[0].Items, 1)
	assert.Equal(t, second.ID, catalog[0].Items[0].ID)
}

func TestChallengeService_ListCatalogOrderAndFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedWeek(t, 5, "Later", "c")
	_, items := env.seedWeek(t, 2, "Earlier", "a", "b")
	user := actorWith(domain.RoleUser)

	_, err := env.progress.SetCompletion(ctx, user, items[1].WeekID, items[1].ID, true)
	require.NoError(t, err)

	catalog, err := env.challenges.ListCatalog(ctx, user)
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, 2, catalog[0].WeekNumber)
	assert.Equal(t, 5, catalog[1].WeekNumber)
	assert.Equal(t, []string{"a", "b"}, []string{catalog[0].Items[0].Title, catalog[0].Items[1].Title})
	assert.False(t, catalog[0].Items[0].Completed)
	assert.True(t, catalog[0].Items[1].Completed)

	// Flags are per user
	other, err := env.challenges.ListCatalog(ctx, actorWith(domain.RoleUser))
	require.NoError(t, err)
	assert.False(t, other[0].Items[1].Completed)
}

func TestChallengeService_DeleteWeekCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := actorWith(domain.RoleAdmin)
	user := actorWith(domain.RoleUser)
	week, items := env.seedWeek(t, 1, "Doomed", "a", "b")
	keep, keepItems := env.seedWeek(t, 2, "Kept", "c")

	for _, item := range append(items, keepItems...) {
		_, err := env.progress.SetCompletion(ctx, user, item.WeekID, item.ID, true)
		require.NoError(t, err)
	}

	upload, err := env.resources.RequestUploadURL(ctx, admin, week.ID, "sheet.pdf", "application/pdf")
	require.NoError(t, err)
	_, err = env.resources.ConfirmUpload(ctx, admin, week.ID, upload.ObjectKey, "sheet.pdf", "application/pdf", 1024)
	require.NoError(t, err)

	require.NoError(t, env.challenges.DeleteWeek(ctx, admin, week.ID))

	catalog, err := env.challenges.ListCatalog(ctx, user)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, keep.ID, catalog[0].ID)

	summary, err := env.progress.GetSummary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedCount)
	assert.Equal(t, 1, summary.TotalCount)

	assert.Equal(t, []string{upload.ObjectKey}, env.storage.Deleted())
	_, err = env.resources.ListResources(ctx, admin, week.ID)
	assert.ErrorIs(t, err, ErrWeekNotFound)

	assert.ErrorIs(t, env.challenges.DeleteWeek(ctx, admin, week.ID), ErrWeekNotFound)
	_, err = env.challenges.UpdateItem(ctx, admin, week.ID, items[0].ID, domain.ItemPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
