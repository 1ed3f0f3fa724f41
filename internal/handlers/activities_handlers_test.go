package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/projecthub/backend/internal/models"
)

func seedActivity(t *testing.T, env *testEnv, recipient, actor *models.User, action string, read bool) *models.Activity {
	t.Helper()

	row := &models.Activity{
		UserID:       recipient.ID,
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: "project",
		ResourceName: "demo",
		Message:      "something happened",
		IsRead:       read,
	}
	if err := env.db.Create(row).Error; err != nil {
		t.Fatalf("failed seeding activity: %v", err)
	}
	return row
}

func TestActivityFeed(t *testing.T) {
	env := setupTestEnv(t)
	reader, readerToken := createTestUser(t, env.db, "reader@example.com", "password-one", models.UserRoleUser)
	actor, actorToken := createTestUser(t, env.db, "actor@example.com", "password-two", models.UserRoleUser)

	seedActivity(t, env, reader, actor, "member.invited", false)
	seedActivity(t, env, reader, actor, "checkin.created", false)
	seedActivity(t, env, reader, actor, "friend.accepted", true)

	t.Run("list returns only the recipient's feed", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/activities/", nil, authHeaders(readerToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 3 {
			t.Fatalf("expected 3 activities, got %d", len(list))
		}

		resp = performRequest(t, env.app, http.MethodGet, "/api/activities/", nil, authHeaders(actorToken))
		body = decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 0 {
			t.Fatalf("expected empty feed for actor, got %d", len(list))
		}
	})

	t.Run("unread filter", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/activities/?unread=true", nil, authHeaders(readerToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if list := dataList(t, body); len(list) != 2 {
			t.Fatalf("expected 2 unread activities, got %d", len(list))
		}
	})

	t.Run("unread count", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/activities/unread-count", nil, authHeaders(readerToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := dataMap(t, body); data["count"] != float64(2) {
			t.Fatalf("expected 2 unread, got %v", data["count"])
		}
	})

	t.Run("mark one read", func(t *testing.T) {
		var row models.Activity
		if err := env.db.First(&row, "user_id = ? AND is_read = ?", reader.ID, false).Error; err != nil {
			t.Fatalf("failed loading activity: %v", err)
		}

		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/activities/"+row.ID.String()+"/read", nil, authHeaders(readerToken))
		assertStatus(t, resp, http.StatusOK)

		var unread int64
		env.db.Model(&models.Activity{}).Where("user_id = ? AND is_read = ?", reader.ID, false).Count(&unread)
		if unread != 1 {
			t.Fatalf("expected 1 unread left, got %d", unread)
		}
	})

	t.Run("cannot mark someone else's activity", func(t *testing.T) {
		var row models.Activity
		if err := env.db.First(&row, "user_id = ?", reader.ID).Error; err != nil {
			t.Fatalf("failed loading activity: %v", err)
		}

		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/activities/"+row.ID.String()+"/read", nil, authHeaders(actorToken))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("mark all read", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/activities/read-all", nil, authHeaders(readerToken))
		assertStatus(t, resp, http.StatusOK)

		var unread int64
		env.db.Model(&models.Activity{}).Where("user_id = ? AND is_read = ?", reader.ID, false).Count(&unread)
		if unread != 0 {
			t.Fatalf("expected everything read, got %d unread", unread)
		}
	})

	t.Run("missing activity returns 404", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/activities/"+uuid.New().String()+"/read", nil, authHeaders(readerToken))
		assertStatus(t, resp, http.StatusNotFound)
	})
}
