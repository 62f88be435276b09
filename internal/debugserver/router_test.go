package debugserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/setanarut/cspace"
	"github.com/setanarut/cspace/kinbody"
)

func newTestRouter(t *testing.T) (*httptest.Server, *kinbody.Body) {
	t.Helper()
	env := kinbody.NewEnvironment()
	reg := prometheus.NewRegistry()
	space := cspace.NewCollisionSpace(cspace.WithMetrics(cspace.NewMetrics(reg)))

	box := kinbody.NewBody("crate")
	box.AddLink("base", cspace.NewTransformIdentity(),
		cspace.NewBoxGeometry(cspace.NewTransformIdentity(), mgl64.Vec3{0.5, 0.5, 0.5}))
	env.Add(box)
	space.InitBody(box, nil)

	ts := httptest.NewServer(NewRouter(RouterConfig{
		Space:    space,
		Lock:     env,
		Gatherer: reg,
	}))
	t.Cleanup(ts.Close)
	return ts, box
}

func TestHealth(t *testing.T) {
	ts, _ := newTestRouter(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestBodies(t *testing.T) {
	ts, box := newTestRouter(t)
	resp, err := http.Get(ts.URL + "/bodies")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var bodies []BodyState
	if err := json.NewDecoder(resp.Body).Decode(&bodies); err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 1 {
		t.Fatalf("got %d bodies", len(bodies))
	}
	b := bodies[0]
	if b.ID != box.EnvironmentID() || b.Name != "crate" || !b.Excluded {
		t.Errorf("unexpected body %+v", b)
	}
	if len(b.Links) != 1 || b.Links[0].Kind != "box" || b.Links[0].Geometries != 1 {
		t.Errorf("unexpected links %+v", b.Links)
	}
	if len(b.Footprint) != 1 || b.Footprint[0].Max[0] != 0.5 {
		t.Errorf("unexpected footprint %+v", b.Footprint)
	}
}

func TestMetricsAndDebug(t *testing.T) {
	ts, _ := newTestRouter(t)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(buf.String(), "cspace_body_record_builds_total 1") {
		t.Errorf("metrics missing record builds:\n%s", buf.String())
	}

	resp, err = http.Get(ts.URL + "/debug")
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	_, _ = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(buf.String(), "crate/base: geoms=1 box") {
		t.Errorf("unexpected debug dump:\n%s", buf.String())
	}
}

func TestEventFromRecord(t *testing.T) {
	space := cspace.NewCollisionSpace()
	body := kinbody.NewBody("ball")
	body.AddLink("l", cspace.NewTransformIdentity(),
		cspace.NewSphereGeometry(cspace.NewTransformIdentity(), 1))
	body.SetTranslation(mgl64.Vec3{2, 0, 0})

	var events []SyncEvent
	space.SetSynchronizationCallback(func(rec *cspace.BodyRecord) {
		events = append(events, EventFromRecord(rec))
	})
	space.InitBody(body, nil)

	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	ev := events[0]
	if ev.Body != "ball" || ev.Stamp != body.UpdateStamp() || ev.Links[0].Min[0] != 1 {
		t.Errorf("unexpected event %+v", ev)
	}
}
