package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetwin/internal/canvas"
	"minetwin/internal/config"
	"minetwin/internal/equipment"
	"minetwin/internal/results"
	"minetwin/internal/types"
	"minetwin/internal/xjson"
)

func newTestServer(t *testing.T, steps int, delay time.Duration) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Config{Steps: steps, StepDelay: delay, Seed: 42}
	s := NewServer(cfg, hclog.NewNullLogger())
	ts := httptest.NewServer(s.Router)
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, xjson.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, xjson.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, 5, 0)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAddEquipment(t *testing.T) {
	_, ts := newTestServer(t, 5, 0)

	resp := do(t, http.MethodPost, ts.URL+"/api/equipment", types.AddEquipmentRequest{Name: "", Type: types.Pump})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/equipment", types.AddEquipmentRequest{
		Name:       "Slurry Pump",
		Type:       types.Pump,
		Parameters: map[string]float64{"gapeSize": 150, "headPressure": 9},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var node types.EquipmentNode
	decodeBody(t, resp, &node)
	assert.Equal(t, types.Inactive, node.Status)
	assert.Equal(t, 350.0, node.Parameters["flowRate"])
	assert.NotContains(t, node.Parameters, "gapeSize")
	assert.Len(t, node.Parameters, len(equipment.Template(types.Pump)))

	var list []types.EquipmentNode
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/equipment", nil), &list)
	assert.Len(t, list, 4)

	var notes []types.Notification
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/notifications", nil), &notes)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Added new equipment: Slurry Pump", notes[0].Message)
}

func TestChangeTypeAndParameters(t *testing.T) {
	_, ts := newTestServer(t, 5, 0)

	resp := do(t, http.MethodPut, ts.URL+"/api/equipment/EQUIP_001/type", types.ChangeTypeRequest{Type: types.Mill})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var node types.EquipmentNode
	decodeBody(t, resp, &node)
	assert.NotContains(t, node.Parameters, "gapeSize")
	assert.Contains(t, node.Parameters, "ballCharge")

	resp = do(t, http.MethodPatch, ts.URL+"/api/equipment/EQUIP_001/parameters", map[string]float64{"capacity": 950})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &node)
	assert.Equal(t, 950.0, node.Parameters["capacity"])

	resp = do(t, http.MethodPatch, ts.URL+"/api/equipment/EQUIP_404/parameters", map[string]float64{"capacity": 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDisconnectRemovesArrowFromScene(t *testing.T) {
	_, ts := newTestServer(t, 5, 0)

	var scene canvas.Scene
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/scene", nil), &scene)
	assert.Len(t, scene.Connections, 2)

	resp := do(t, http.MethodDelete, ts.URL+"/api/equipment/EQUIP_001/connections/EQUIP_002", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/scene", nil), &scene)
	require.Len(t, scene.Connections, 1)
	assert.Equal(t, "EQUIP_002", scene.Connections[0].From)
}

func TestDragOverHTTP(t *testing.T) {
	s, ts := newTestServer(t, 5, 0)

	resp := do(t, http.MethodPost, ts.URL+"/api/drag/move", types.PointerRequest{Pointer: types.Position{X: 1, Y: 1}})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// grab by hit test, 5 units right of the conveyor centre
	resp = do(t, http.MethodPost, ts.URL+"/api/drag/grab", types.GrabRequest{Pointer: types.Position{X: 405, Y: 200}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodPost, ts.URL+"/api/drag/move", types.PointerRequest{Pointer: types.Position{X: 505, Y: 320}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodPost, ts.URL+"/api/drag/release", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	pos, err := s.registry.Position("EQUIP_002")
	require.NoError(t, err)
	assert.Equal(t, types.Position{X: 500, Y: 320}, pos)
}

func TestRunLifecycle(t *testing.T) {
	_, ts := newTestServer(t, 10, 20*time.Millisecond)

	var empty results.Report
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/results", nil), &empty)
	assert.True(t, empty.Empty)

	resp := do(t, http.MethodPost, ts.URL+"/api/run", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodPost, ts.URL+"/api/run", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var scene canvas.Scene
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/scene", nil), &scene)
	assert.True(t, scene.Running)
	assert.Len(t, scene.Particles, 6)

	require.Eventually(t, func() bool {
		var st types.RunStatus
		decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/run", nil), &st)
		return !st.Running && st.Progress == 100
	}, 5*time.Second, 20*time.Millisecond)

	var report results.Report
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/results", nil), &report)
	assert.False(t, report.Empty)
	assert.Equal(t, 10, report.Steps)
	assert.Len(t, report.Trend.Labels, 10)
	assert.Len(t, report.Table, 3)

	var snap types.MetricsSnapshot
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/metrics", nil), &snap)
	assert.Equal(t, int64(1), snap.RunsStarted)
	assert.Equal(t, int64(1), snap.RunsRejected)
}

func TestRunRejectedWithEmptyRegistry(t *testing.T) {
	s := NewServer(config.Config{Steps: 5}, hclog.NewNullLogger())
	s.registry = equipment.NewRegistry()
	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	resp := do(t, http.MethodPost, ts.URL+"/api/run", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var report results.Report
	decodeBody(t, do(t, http.MethodGet, ts.URL+"/api/results", nil), &report)
	assert.True(t, report.Empty)
}

func TestGlobalParameters(t *testing.T) {
	_, ts := newTestServer(t, 5, 0)

	resp := do(t, http.MethodPatch, ts.URL+"/api/global", types.GlobalParameters{
		Mode:       types.Optimization,
		Parameters: map[string]float64{"moistureContent": 10},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g types.GlobalParameters
	decodeBody(t, resp, &g)
	assert.Equal(t, types.Optimization, g.Mode)
	assert.Equal(t, 10.0, g.Parameters["moistureContent"])
	assert.Equal(t, 101.3, g.Parameters["ambientPressure"])
}

func TestProgressStreamedOverWebSocket(t *testing.T) {
	_, ts := newTestServer(t, 5, 10*time.Millisecond)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the hub a moment to register the client
	time.Sleep(50 * time.Millisecond)

	resp := do(t, http.MethodPost, ts.URL+"/api/run", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	var progress []float64
	seen := map[string]bool{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for !seen["done"] {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev struct {
			Type    string `json:"type"`
			Payload struct {
				Progress float64 `json:"progress"`
			} `json:"payload"`
		}
		require.NoError(t, xjson.Unmarshal(msg, &ev))
		seen[ev.Type] = true
		if ev.Type == "progress" {
			progress = append(progress, ev.Payload.Progress)
		}
	}

	assert.True(t, seen["run_start"])
	assert.InDeltaSlice(t, []float64{20, 40, 60, 80, 100}, progress, 1e-9)
}
