package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecowatch/api/internal/models"
	"ecowatch/api/internal/session"
)

func loggedIn(role models.Role) session.Session {
	return session.Session{
		IsLoggedIn: true,
		Role:       role,
		Username:   "someone",
		Token:      "tok",
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		sess     session.Session
		required models.Role
		path     string
		want     Decision
	}{
		{
			name:     "no session denies to login",
			sess:     session.Session{},
			required: models.RoleAdmin,
			path:     "/admin/reports",
			want:     Decision{Allow: false, RedirectTo: PathLogin},
		},
		{
			name:     "logged in flag without token denies",
			sess:     session.Session{IsLoggedIn: true},
			required: models.RoleUser,
			path:     "/user",
			want:     Decision{Allow: false, RedirectTo: PathLogin},
		},
		{
			name:     "no required role allows",
			sess:     loggedIn(models.RoleUser),
			required: models.RoleNone,
			path:     "/report",
			want:     Decision{Allow: true},
		},
		{
			name:     "matching role in its own section allows",
			sess:     loggedIn(models.RoleAdmin),
			required: models.RoleAdmin,
			path:     "/admin/reports/42",
			want:     Decision{Allow: true},
		},
		{
			name:     "matching role outside its section is normalized",
			sess:     loggedIn(models.RoleAdmin),
			required: models.RoleAdmin,
			path:     "/somewhere/else",
			want:     Decision{Allow: true, RedirectTo: PathAdminHome},
		},
		{
			name:     "rescuer on admin route redirects to rescuer home",
			sess:     loggedIn(models.RoleRescuer),
			required: models.RoleAdmin,
			path:     "/admin/reports",
			want:     Decision{Allow: false, RedirectTo: PathRescuerHome},
		},
		{
			name:     "user on rescuer route redirects to user home",
			sess:     loggedIn(models.RoleUser),
			required: models.RoleRescuer,
			path:     "/rescuer/reports",
			want:     Decision{Allow: false, RedirectTo: PathUserHome},
		},
		{
			name:     "admin on user route redirects to admin home",
			sess:     loggedIn(models.RoleAdmin),
			required: models.RoleUser,
			path:     "/user",
			want:     Decision{Allow: false, RedirectTo: PathAdminHome},
		},
		{
			name:     "session without role redirects to login on mismatch",
			sess:     session.Session{IsLoggedIn: true, Token: "tok"},
			required: models.RoleAdmin,
			path:     "/admin/reports",
			want:     Decision{Allow: false, RedirectTo: PathLogin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.sess, tt.required, tt.path))
		})
	}
}

// The partition property: for every role pair, a mismatched attempt never
// lands on the required role's section.
func TestPartitionNeverCrossesSections(t *testing.T) {
	roles := []models.Role{models.RoleAdmin, models.RoleRescuer, models.RoleUser}
	for _, have := range roles {
		for _, need := range roles {
			if have == need {
				continue
			}
			d := Evaluate(loggedIn(have), need, DefaultPath(need))
			assert.False(t, d.Allow, "%s must not reach %s routes", have, need)
			assert.Equal(t, DefaultPath(have), d.RedirectTo)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, PathAdminHome, DefaultPath(models.RoleAdmin))
	assert.Equal(t, PathRescuerHome, DefaultPath(models.RoleRescuer))
	assert.Equal(t, PathUserHome, DefaultPath(models.RoleUser))
	assert.Equal(t, PathLogin, DefaultPath(models.RoleNone))
}
