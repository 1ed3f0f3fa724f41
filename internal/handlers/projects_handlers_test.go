package handlers

import (
	"net/http"
	"testing"

	"github.com/projecthub/backend/internal/models"
)

func TestProjectLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := createTestUser(t, env.db, "owner@example.com", "password-one", models.UserRoleUser)
	_, otherToken := createTestUser(t, env.db, "other@example.com", "password-two", models.UserRoleUser)

	var projectID string

	t.Run("create rejects empty name", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/projects/", map[string]any{
			"name": "  ",
		}, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("create seeds a readme when requested", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/projects/", map[string]any{
			"name":        "my-site",
			"description": "a personal site",
			"initReadme":  true,
		}, authHeaders(ownerToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusCreated)

		data := dataMap(t, body)
		projectID, _ = data["id"].(string)
		if projectID == "" {
			t.Fatalf("expected project id, got %+v", data)
		}

		var readme models.ProjectFile
		if err := env.db.First(&readme, "name = ?", "README.md").Error; err != nil {
			t.Fatalf("expected seeded README.md: %v", err)
		}
		if readme.Path != "/" {
			t.Fatalf("expected README at root, got %q", readme.Path)
		}
	})

	t.Run("owner sees the project in their list", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/projects/", nil, authHeaders(ownerToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 1 {
			t.Fatalf("expected 1 project, got %d", len(list))
		}
	})

	t.Run("non-member list is empty", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/projects/", nil, authHeaders(otherToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 0 {
			t.Fatalf("expected empty list, got %d", len(list))
		}
	})

	t.Run("non-member cannot read the project", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/projects/"+projectID, nil, authHeaders(otherToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("only the owner can update", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/projects/"+projectID, map[string]any{
			"name": "stolen",
		}, authHeaders(otherToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performJSONRequest(t, env.app, http.MethodPut, "/api/projects/"+projectID, map[string]any{
			"name": "my-renamed-site",
		}, authHeaders(ownerToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := dataMap(t, body); data["name"] != "my-renamed-site" {
			t.Fatalf("expected renamed project, got %+v", data)
		}
	})

	t.Run("delete cascades project rows", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodDelete, "/api/projects/"+projectID, nil, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusOK)

		var files int64
		env.db.Model(&models.ProjectFile{}).Count(&files)
		if files != 0 {
			t.Fatalf("expected project files removed, got %d", files)
		}
		var projects int64
		env.db.Model(&models.Project{}).Count(&projects)
		if projects != 0 {
			t.Fatalf("expected project removed, got %d", projects)
		}
	})
}

func TestProjectCheckout(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := createTestUser(t, env.db, "owner@example.com", "password-one", models.UserRoleUser)
	collab, collabToken := createTestUser(t, env.db, "collab@example.com", "password-two", models.UserRoleUser)
	project := createTestProject(t, env.db, owner, "shared-work")
	addTestMember(t, env.db, project, collab, models.MemberRoleCollaborator)

	checkoutPath := "/api/projects/" + project.ID.String() + "/checkout"

	t.Run("owner checks out", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, checkoutPath, nil, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("checkout is idempotent for the holder", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, checkoutPath, nil, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("second user is refused while held", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, checkoutPath, nil, authHeaders(collabToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "project is checked out by another user")
	})
}
