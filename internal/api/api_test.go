package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/db"
	"laundry-booking-backend/internal/queue"
	"laundry-booking-backend/internal/registry"
	"laundry-booking-backend/internal/rooms"
	"laundry-booking-backend/internal/store/storetest"
	"laundry-booking-backend/internal/usage"
)

const (
	ownerAddr = "10.0.0.5:50000"
	otherAddr = "10.0.0.9:50000"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := storetest.New(t)
	_, err := db.Seed(context.Background(), st, nil)
	require.NoError(t, err)

	log := zap.NewNop()
	machines := registry.New(st)
	directory := rooms.New(st)
	h := NewHandler(Services{
		Machines: machines,
		Rooms:    directory,
		Usage:    usage.NewManager(st, machines, directory, log),
		Queue:    queue.NewManager(st, directory, log),
		Ping:     func(context.Context) error { return nil },
	}, log, false)

	cfg := config.Default().Server
	cfg.RateLimitPerSec = 1000
	cfg.RateLimitBurst = 1000
	return NewRouter(h, cfg, log)
}

func do(r *gin.Engine, method, path, remoteAddr string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/health", ownerAddr, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestMachineEndpoints(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/machines", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var machines []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &machines))
	assert.Len(t, machines, 4)

	w = do(r, http.MethodGet, "/api/machines/1", ownerAddr, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Máy Giặt 1", decode(t, w)["name"])

	w = do(r, http.MethodGet, "/api/machines/999", ownerAddr, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "machine_not_found", decode(t, w)["code"])

	w = do(r, http.MethodGet, "/api/machines/abc", ownerAddr, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/machines/status/available?type=drying", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &machines))
	assert.Len(t, machines, 2)

	w = do(r, http.MethodGet, "/api/machines/status/available?type=ironing", ownerAddr, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_machine_type", decode(t, w)["code"])

	w = do(r, http.MethodPut, "/api/machines/2", ownerAddr, gin.H{"status": "maintenance"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "maintenance", decode(t, w)["status"])

	w = do(r, http.MethodPut, "/api/machines/2", ownerAddr, gin.H{"status": "exploded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["kind"])
}

func TestRoomEndpoints(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/rooms", ownerAddr, gin.H{
		"roomNumber":  "A101",
		"phoneNumber": "0901234567",
		"ipAddress":   "10.0.0.5",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/rooms/A101", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0901234567", decode(t, w)["phoneNumber"])

	w = do(r, http.MethodGet, "/api/rooms/Z999", ownerAddr, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/rooms", ownerAddr, gin.H{"roomNumber": "A102"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsageFlow(t *testing.T) {
	r := setupRouter(t)
	end := time.Now().Add(45 * time.Minute).UTC()

	w := do(r, http.MethodPost, "/api/rooms/A101/start-washing", ownerAddr, gin.H{"machineId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/rooms/A101/start-washing", ownerAddr, gin.H{
		"machineId":        1,
		"estimatedEndTime": end,
		"notes":            "đồ trắng",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotZero(t, body["usageId"])
	assert.Equal(t, "in_use", body["machine"].(map[string]any)["status"])

	w = do(r, http.MethodPost, "/api/rooms/B202/start-washing", otherAddr, gin.H{
		"machineId":        1,
		"estimatedEndTime": end,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body = decode(t, w)
	assert.Equal(t, "conflict", body["kind"])
	assert.Equal(t, "machine_busy", body["code"])

	w = do(r, http.MethodPut, "/api/rooms/A101/update-notes", ownerAddr, gin.H{"machineId": 1, "notes": "xong lúc 9h"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/room-machine-usage?roomNumber=A101&isActive=true", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)

	w = do(r, http.MethodPost, "/api/rooms/A101/finish-washing", otherAddr, gin.H{"machineId": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/rooms/A101/finish-washing", ownerAddr, gin.H{"machineId": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "available", body["machine"].(map[string]any)["status"])

	w = do(r, http.MethodPost, "/api/rooms/A101/finish-washing", ownerAddr, gin.H{"machineId": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no_active_session", decode(t, w)["code"])

	w = do(r, http.MethodGet, "/api/history?limit=10", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "A101", history[0]["roomNumber"])
}

func TestRoomNumberLookupsAreNormalized(t *testing.T) {
	r := setupRouter(t)
	end := time.Now().Add(time.Hour).UTC()

	w := do(r, http.MethodPost, "/api/rooms", ownerAddr, gin.H{"roomNumber": "A 101", "ipAddress": "10.0.0.5"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/rooms/A%20%20101", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "A 101", decode(t, w)["roomNumber"])

	w = do(r, http.MethodPost, "/api/rooms/A%20101/start-washing", ownerAddr, gin.H{"machineId": 1, "estimatedEndTime": end})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/rooms/A%20101/finish-washing", ownerAddr, gin.H{"machineId": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/history?roomNumber=%20A%20%20101%20", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 1)
}

func TestRoomMachineUsageDefaultsToActive(t *testing.T) {
	r := setupRouter(t)
	end := time.Now().Add(time.Hour).UTC()

	w := do(r, http.MethodPost, "/api/rooms/A101/start-washing", ownerAddr, gin.H{"machineId": 1, "estimatedEndTime": end})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/rooms/A101/finish-washing", ownerAddr, gin.H{"machineId": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/rooms/A101/start-washing", ownerAddr, gin.H{"machineId": 2, "estimatedEndTime": end})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	testCases := []struct {
		query string
		want  int
	}{
		{"roomNumber=A101", 1},
		{"roomNumber=A101&isActive=true", 1},
		{"roomNumber=A101&isActive=false", 1},
	}
	for _, tc := range testCases {
		w = do(r, http.MethodGet, "/api/room-machine-usage?"+tc.query, ownerAddr, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var sessions []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
		require.Len(t, sessions, tc.want, tc.query)
	}

	w = do(r, http.MethodGet, "/api/room-machine-usage?roomNumber=A101", ownerAddr, nil)
	var sessions []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	assert.Equal(t, true, sessions[0]["isActive"])
	assert.EqualValues(t, 2, sessions[0]["machineId"])
}

func TestStatisticsCache(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/history/statistics", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))

	w = do(r, http.MethodGet, "/api/history/statistics", ownerAddr, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = do(r, http.MethodPost, "/api/queue/join", ownerAddr, gin.H{"roomNumber": "A101", "machineType": "washing"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/history/statistics", ownerAddr, nil)
	assert.Empty(t, w.Header().Get("X-Cache"))
}

func TestQueueEndpoints(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/queue/join", ownerAddr, gin.H{
		"room":        "A101",
		"phoneNumber": "0901234567",
		"machineType": "washing",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["position"])

	w = do(r, http.MethodPost, "/api/queue/join", ownerAddr, gin.H{"roomNumber": "A101", "machineType": "any"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_queued", decode(t, w)["code"])

	w = do(r, http.MethodPost, "/api/queue/join", otherAddr, gin.H{"roomNumber": "B202", "machineType": "washing"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["position"])

	w = do(r, http.MethodPost, "/api/queue/join", otherAddr, gin.H{"machineType": "washing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/queue", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "10.0.0.5", body["clientIP"])
	assert.Equal(t, true, body["isInQueue"])
	assert.Len(t, body["queue"], 2)

	w = do(r, http.MethodPost, "/api/queue/next?machineType=washing", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "A101", body["nextUser"].(map[string]any)["roomNumber"])
	require.Len(t, body["queue"], 1)
	assert.EqualValues(t, 1, body["queue"].([]any)[0].(map[string]any)["position"])

	w = do(r, http.MethodPost, "/api/queue/leave", ownerAddr, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_in_queue", decode(t, w)["code"])

	w = do(r, http.MethodPost, "/api/queue/leave", otherAddr, gin.H{"roomNumber": "C303"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "room_mismatch", decode(t, w)["code"])

	w = do(r, http.MethodPost, "/api/queue/leave", otherAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["queue"])

	w = do(r, http.MethodPost, "/api/queue/next", ownerAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["nextUser"])
}
