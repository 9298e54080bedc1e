package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/elimu-app/elimu/core/auth"
	testutil "github.com/elimu-app/elimu/tests"
)

func Test_sessionMiddleware(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", auth.RoleStudent, true)
	ghost := testutil.CreateUser(t, usrRepo, "Ghost", "ghosty", "ghost@test.cd", "", auth.RoleStudent, true)
	ghostToken := getToken(t, ghost)
	if err := usrRepo.DeleteUsersByID(context.Background(), ghost.ID); err != nil {
		t.Fatalf("DeleteUsersByID(): %v", err)
	}

	// signed with the right secret but already expired
	expiredToken, err := auth.NewTokenService(conf.SecretKey, -time.Hour).
		Issue(student.ID, student.Name, student.Role)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}

	// signed with a different secret
	forgedToken, err := auth.NewTokenService([]byte("lol-not-the-secret"), conf.SessionTTL).
		Issue(student.ID, student.Name, student.Role)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}

	want401 := marchallObj(t, errNotAuthenticated)
	tests := []httpTest{
		{name: "no cookie", wantCode: http.StatusUnauthorized, wantData: want401},
		{name: "garbage token", token: "lol", wantCode: http.StatusUnauthorized, wantData: want401},
		{name: "tampered token", token: getToken(t, student) + "x", wantCode: http.StatusUnauthorized, wantData: want401},
		{name: "wrong signing key", token: forgedToken, wantCode: http.StatusUnauthorized, wantData: want401},
		{name: "expired token", token: expiredToken, wantCode: http.StatusUnauthorized, wantData: want401},
		{name: "deleted user", token: ghostToken, wantCode: http.StatusUnauthorized, wantData: want401},
		{name: "valid token", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_adminMiddleware(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "odmeen", "admin@test.cd", "", auth.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teachy", "teach@test.cd", "", auth.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", auth.RoleStudent, true)
	parent := testutil.CreateUser(t, usrRepo, "Mama", "mamamu", "mama@test.cd", "", auth.RoleParent, true)

	tests := []httpTest{
		{name: "teacher denied", token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "student denied", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "parent denied", token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)},
		{name: "admin allowed", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, auth.Roles)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users/roles"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
