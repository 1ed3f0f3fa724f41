package handlers

import (
	"net/http"
	"testing"

	"github.com/projecthub/backend/internal/models"
)

func TestUserSearch(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "searcher@example.com", "password-one", models.UserRoleUser)
	createTestUser(t, env.db, "anna@example.com", "password-two", models.UserRoleUser)
	createTestUser(t, env.db, "annabelle@example.com", "password-three", models.UserRoleUser)
	createTestUser(t, env.db, "zoe@example.com", "password-four", models.UserRoleUser)

	t.Run("matches against username and email", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/search?search=anna", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(list))
		}
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/search?search=ANNA", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(list))
		}
	})

	t.Run("limit caps the result set", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/search?search=anna&limit=1", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 1 {
			t.Fatalf("expected 1 match, got %d", len(list))
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/search?search=anna", nil, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
	})
}

func TestUserAdminEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	admin, adminToken := createTestUser(t, env.db, "admin@example.com", "password-one", models.UserRoleAdmin)
	user, userToken := createTestUser(t, env.db, "plain@example.com", "password-two", models.UserRoleUser)

	t.Run("non-admin cannot list users", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/", nil, authHeaders(userToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("admin lists users paginated", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/users/?page=1&limit=1", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		if list := dataList(t, body); len(list) != 1 {
			t.Fatalf("expected 1 user on page, got %d", len(list))
		}
		pagination, _ := body["pagination"].(map[string]any)
		if pagination["total"] != float64(2) {
			t.Fatalf("expected total 2, got %+v", pagination)
		}
	})

	t.Run("admin promotes a user", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/"+user.ID.String(), map[string]any{
			"role": "admin",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := dataMap(t, body); data["role"] != "admin" {
			t.Fatalf("expected admin role, got %+v", data)
		}
	})

	t.Run("invalid role is rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/users/"+admin.ID.String(), map[string]any{
			"role": "emperor",
		}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusBadRequest)
	})
}

func TestUserDeleteCascade(t *testing.T) {
	env := setupTestEnv(t)
	victim, victimToken := createTestUser(t, env.db, "victim@example.com", "password-one", models.UserRoleUser)
	friend, friendToken := createTestUser(t, env.db, "friend@example.com", "password-two", models.UserRoleUser)

	t.Run("cannot delete another user's account", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodDelete, "/api/users/"+victim.ID.String(), nil, authHeaders(friendToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "cannot delete another user's account")
	})

	t.Run("self delete cascades projects and friendships", func(t *testing.T) {
		project := createTestProject(t, env.db, victim, "doomed-project")
		addTestMember(t, env.db, project, friend, models.MemberRoleViewer)

		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/friends/requests/"+friend.ID.String(), nil, authHeaders(victimToken))
		assertStatus(t, resp, http.StatusCreated)
		var request models.FriendRequest
		if err := env.db.First(&request, "sender_id = ?", victim.ID).Error; err != nil {
			t.Fatalf("failed loading request: %v", err)
		}
		resp = performJSONRequest(t, env.app, http.MethodPut, "/api/friends/requests/"+request.ID.String(), map[string]any{
			"action": "accept",
		}, authHeaders(friendToken))
		assertStatus(t, resp, http.StatusOK)

		resp = performJSONRequest(t, env.app, http.MethodDelete, "/api/users/"+victim.ID.String(), nil, authHeaders(victimToken))
		assertStatus(t, resp, http.StatusOK)

		for name, count := range map[string]int64{
			"users":           countRows(t, env, &models.User{}),
			"projects":        countRows(t, env, &models.Project{}),
			"friendships":     countRows(t, env, &models.Friendship{}),
			"friend requests": countRows(t, env, &models.FriendRequest{}),
			"memberships":     countRows(t, env, &models.ProjectMember{}),
		} {
			expected := int64(0)
			if name == "users" {
				expected = 1
			}
			if count != expected {
				t.Fatalf("expected %d %s, got %d", expected, name, count)
			}
		}
	})
}

func countRows(t *testing.T, env *testEnv, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := env.db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("failed counting rows: %v", err)
	}
	return count
}
