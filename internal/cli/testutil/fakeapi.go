package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/firebolt-db/firebolt-cli/internal/api"
	"github.com/go-chi/chi/v5"
)

// Credentials accepted by FakeAPI.
const (
	FakeUsername = "user@example.com"
	FakePassword = "secret"
	fakeToken    = "token-1"
	fakeAccount  = "acc-1"
)

// FakeRegions are the regions FakeAPI knows, keyed by region id.
var FakeRegions = map[string]string{"r-1": "us-east-1", "r-2": "eu-west-1"}

// FakeAPI is an in-memory management API for command tests.
type FakeAPI struct {
	URL string

	mu        sync.Mutex
	engines   map[string]*api.Engine
	databases map[string]*api.Database
	bindings  []api.Binding
	nextID    int
	// afterPoll replaces an engine status on the next read.
	afterPoll map[string]api.EngineStatus
	// outcome overrides the status an engine settles on after its next
	// lifecycle request.
	outcome map[string]api.EngineStatus
	// AttachFails makes binding requests fail.
	AttachFails bool
	// Requests records "METHOD path" of every authenticated call.
	Requests []string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewFakeAPI starts a FakeAPI that is shut down with the test.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		engines:   map[string]*api.Engine{},
		databases: map[string]*api.Database{},
		afterPoll: map[string]api.EngineStatus{},
		outcome:   map[string]api.EngineStatus{},
	}

	r := chi.NewRouter()
	r.Post("/auth/v1/login", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.Password != FakePassword {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "wrong credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": fakeToken})
	})

	r.Group(func(r chi.Router) {
		r.Use(f.authenticate)

		r.Get("/iam/v2/account", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"account": map[string]any{"id": fakeAccount}})
		})
		r.Get("/compute/v1/regions", func(w http.ResponseWriter, _ *http.Request) {
			var edges []any
			for _, id := range []string{"r-1", "r-2"} {
				edges = append(edges, map[string]any{"node": api.Region{
					ID:   api.RegionKey{ProviderID: "aws", RegionID: id},
					Name: FakeRegions[id],
				}})
			}
			writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
		})
		r.Get("/compute/v1/regions/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			writeJSON(w, http.StatusOK, map[string]any{"region": api.Region{
				ID:   api.RegionKey{ProviderID: "aws", RegionID: id},
				Name: FakeRegions[id],
			}})
		})

		r.Route("/core/v1/accounts/{account}", func(r chi.Router) {
			r.Get("/engines:getIdByName", f.engineIDByName)
			r.Get("/engines", f.listEngines)
			r.Post("/engines", f.createEngine)
			r.Get("/engines/{id}", f.getEngine)
			r.Post("/engines/{id}", f.engineAction)
			r.Delete("/engines/{id}", f.deleteEngine)

			r.Get("/databases:getIdByName", f.databaseIDByName)
			r.Get("/databases", f.listDatabases)
			r.Post("/databases", f.createDatabase)
			r.Get("/databases/{id}", f.getDatabase)
			r.Delete("/databases/{id}", f.deleteDatabase)
			r.Post("/databases/{id}/bindings/{engine}", f.attach)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	f.URL = srv.URL
	return f
}

func (f *FakeAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer "+fakeToken {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauthenticated"})
			return
		}
		f.mu.Lock()
		f.Requests = append(f.Requests, req.Method+" "+req.URL.Path)
		f.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (f *FakeAPI) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// AddEngine registers an engine in region r-1.
func (f *FakeAPI) AddEngine(name string, status api.EngineStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID("e")
	f.engines[id] = &api.Engine{
		ID:                   api.EngineKey{AccountID: fakeAccount, EngineID: id},
		Name:                 name,
		CurrentStatusSummary: status,
		ComputeRegionID:      api.RegionKey{ProviderID: "aws", RegionID: "r-1"},
		Endpoint:             name + ".example.com",
	}
}

// AddDatabase registers a database in region r-2.
func (f *FakeAPI) AddDatabase(name, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID("d")
	f.databases[id] = &api.Database{
		ID:              api.DatabaseKey{AccountID: fakeAccount, DatabaseID: id},
		Name:            name,
		Description:     description,
		ComputeRegionID: api.RegionKey{ProviderID: "aws", RegionID: "r-2"},
	}
}

// SetActionOutcome makes the engine settle on status after its next start,
// stop or restart request.
func (f *FakeAPI) SetActionOutcome(name string, status api.EngineStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.engineByName(name); e != nil {
		f.outcome[e.ID.EngineID] = status
	}
}

// Engine returns a copy of the named engine, or nil.
func (f *FakeAPI) Engine(name string) *api.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.engineByName(name); e != nil {
		c := *e
		return &c
	}
	return nil
}

// Database returns a copy of the named database, or nil.
func (f *FakeAPI) Database(name string) *api.Database {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d := f.databaseByName(name); d != nil {
		c := *d
		return &c
	}
	return nil
}

// Bindings returns the engine-database bindings created so far.
func (f *FakeAPI) Bindings() []api.Binding {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.bindings)
}

func (f *FakeAPI) engineByName(name string) *api.Engine {
	for _, e := range f.engines {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (f *FakeAPI) databaseByName(name string) *api.Database {
	for _, d := range f.databases {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (f *FakeAPI) engineIDByName(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.engineByName(req.URL.Query().Get("engine_name")); e != nil {
		writeJSON(w, http.StatusOK, map[string]any{"engine_id": e.ID})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "engine not found"})
}

func (f *FakeAPI) listEngines(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contains := req.URL.Query().Get("filter.name_contains")
	edges := []any{}
	for _, id := range sortedKeys(f.engines) {
		if e := f.engines[id]; strings.Contains(e.Name, contains) {
			edges = append(edges, map[string]any{"cursor": id, "node": e})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges, "page_info": map[string]any{"has_next_page": false}})
}

func (f *FakeAPI) createEngine(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Engine api.Engine `json:"engine"`
	}
	_ = json.NewDecoder(req.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.engineByName(body.Engine.Name) != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "engine already exists"})
		return
	}
	e := body.Engine
	e.ID = api.EngineKey{AccountID: fakeAccount, EngineID: f.newID("e")}
	e.CurrentStatusSummary = api.EngineStatusStopped
	f.engines[e.ID.EngineID] = &e
	writeJSON(w, http.StatusOK, map[string]any{"engine": e})
}

func (f *FakeAPI) getEngine(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := chi.URLParam(req, "id")
	e, ok := f.engines[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such engine"})
		return
	}
	if next, ok := f.afterPoll[id]; ok {
		e.CurrentStatusSummary = next
		delete(f.afterPoll, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"engine": e})
}

func (f *FakeAPI) engineAction(w http.ResponseWriter, req *http.Request) {
	id, action, _ := strings.Cut(chi.URLParam(req, "id"), ":")
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.engines[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such engine"})
		return
	}
	switch action {
	case "start":
		e.CurrentStatusSummary = api.EngineStatusStarting
		f.settle(id, api.EngineStatusRunning)
	case "restart":
		e.CurrentStatusSummary = api.EngineStatusRestarting
		f.settle(id, api.EngineStatusRunning)
	case "stop":
		e.CurrentStatusSummary = api.EngineStatusStopping
		f.settle(id, api.EngineStatusStopped)
	}
	writeJSON(w, http.StatusOK, map[string]any{"engine": e})
}

// settle schedules status for the next read unless an outcome was set.
func (f *FakeAPI) settle(id string, status api.EngineStatus) {
	if s, ok := f.outcome[id]; ok {
		status = s
		delete(f.outcome, id)
	}
	f.afterPoll[id] = status
}

func (f *FakeAPI) deleteEngine(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := chi.URLParam(req, "id")
	e, ok := f.engines[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such engine"})
		return
	}
	delete(f.engines, id)
	e.CurrentStatusSummary = api.EngineStatusDeleting
	writeJSON(w, http.StatusOK, map[string]any{"engine": e})
}

func (f *FakeAPI) databaseIDByName(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d := f.databaseByName(req.URL.Query().Get("database_name")); d != nil {
		writeJSON(w, http.StatusOK, map[string]any{"database_id": d.ID})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "database not found"})
}

func (f *FakeAPI) listDatabases(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contains := req.URL.Query().Get("filter.name_contains")
	edges := []any{}
	for _, id := range sortedKeys(f.databases) {
		if d := f.databases[id]; strings.Contains(d.Name, contains) {
			edges = append(edges, map[string]any{"cursor": id, "node": d})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges, "page_info": map[string]any{"has_next_page": false}})
}

func (f *FakeAPI) createDatabase(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Database api.Database `json:"database"`
	}
	_ = json.NewDecoder(req.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.databaseByName(body.Database.Name) != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "database already exists"})
		return
	}
	d := body.Database
	d.ID = api.DatabaseKey{AccountID: fakeAccount, DatabaseID: f.newID("d")}
	f.databases[d.ID.DatabaseID] = &d
	writeJSON(w, http.StatusOK, map[string]any{"database": d})
}

func (f *FakeAPI) getDatabase(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.databases[chi.URLParam(req, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such database"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"database": d})
}

func (f *FakeAPI) deleteDatabase(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.databases, chi.URLParam(req, "id"))
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (f *FakeAPI) attach(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Binding api.Binding `json:"binding"`
	}
	_ = json.NewDecoder(req.Body).Decode(&body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AttachFails {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "engine cannot be attached"})
		return
	}
	if _, ok := f.databases[chi.URLParam(req, "id")]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "database does not exist"})
		return
	}
	f.bindings = append(f.bindings, body.Binding)
	writeJSON(w, http.StatusOK, map[string]any{"binding": body.Binding})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
