package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redlinedata/redline/pkg/errors"
)

// fakeStore serves a tiny two-level hierarchy and records update payloads.
type fakeStore struct {
	mux     *http.ServeMux
	updates []map[string]any
}

func newFakeStore(t *testing.T) (*fakeStore, *httptest.Server) {
	t.Helper()
	f := &fakeStore{mux: http.NewServeMux()}

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-key" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
	respond := func(v any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(v); err != nil {
				t.Errorf("encoding response: %v", err)
			}
		}
	}

	f.mux.HandleFunc("/api/projects", authed(respond([]Project{
		{ID: "p1", Label: "reward-study"},
		{ID: "p2", Label: "pilot"},
	})))
	f.mux.HandleFunc("/api/projects/p1/subjects", authed(respond([]Subject{
		{ID: "s1", Label: "sub-01", Sex: "female"},
	})))
	f.mux.HandleFunc("/api/subjects/s1/sessions", authed(respond([]Session{
		{ID: "ss1", Label: "ses-01"},
	})))
	f.mux.HandleFunc("/api/sessions/ss1/acquisitions", authed(respond([]Acquisition{
		{ID: "a1", Label: "task-rest_bold", Files: []File{
			{Name: "sub-01_task-rest_bold.nii.gz", Type: "nifti"},
		}},
	})))
	f.mux.HandleFunc("/api/acquisitions/a1", authed(respond(Acquisition{
		ID: "a1", Label: "task-rest_bold", Files: []File{
			{Name: "sub-01_task-rest_bold.nii.gz", Type: "nifti", Modality: "mr"},
		},
	})))
	capture := func(method string) http.HandlerFunc {
		return authed(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.updates = append(f.updates, body)
			w.Write([]byte(`{}`))
		})
	}
	f.mux.HandleFunc("/api/acquisitions/a1/files/sub-01_task-rest_bold.nii.gz/info", capture(http.MethodPost))
	f.mux.HandleFunc("/api/acquisitions/a1/files/sub-01_task-rest_bold.nii.gz/classification", capture(http.MethodPost))
	f.mux.HandleFunc("/api/acquisitions/a1/files/sub-01_task-rest_bold.nii.gz", capture(http.MethodPut))

	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)
	return f, server
}

func newTestClient(t *testing.T, server *httptest.Server) Client {
	t.Helper()
	c, err := New(WithBaseURL(server.URL), WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestProjects(t *testing.T) {
	_, server := newFakeStore(t)
	c := newTestClient(t, server)

	projects, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("Projects() returned %d projects, want 2", len(projects))
	}
	if projects[0].Label != "reward-study" {
		t.Errorf("projects[0].Label = %q", projects[0].Label)
	}
}

func TestProjectsUnauthorized(t *testing.T) {
	_, server := newFakeStore(t)
	c, err := New(WithBaseURL(server.URL), WithAPIKey("wrong-key"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Projects(context.Background())
	if err == nil {
		t.Fatal("Projects() with a bad key succeeded")
	}
	if !errors.IsAPIKeyError(err) {
		t.Errorf("error = %v, want API key error", err)
	}
}

func TestLookupProject(t *testing.T) {
	_, server := newFakeStore(t)
	c := newTestClient(t, server)

	p, err := c.LookupProject(context.Background(), "pilot")
	if err != nil {
		t.Fatalf("LookupProject() error = %v", err)
	}
	if p.ID != "p2" {
		t.Errorf("LookupProject() ID = %q, want p2", p.ID)
	}

	_, err = c.LookupProject(context.Background(), "no-such-study")
	if !errors.IsNotFound(err) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestWalkHierarchy(t *testing.T) {
	_, server := newFakeStore(t)
	c := newTestClient(t, server)
	ctx := context.Background()

	subjects, err := c.Subjects(ctx, "p1")
	if err != nil {
		t.Fatalf("Subjects() error = %v", err)
	}
	if len(subjects) != 1 || subjects[0].Label != "sub-01" {
		t.Fatalf("Subjects() = %+v", subjects)
	}

	sessions, err := c.Sessions(ctx, subjects[0].ID)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].Label != "ses-01" {
		t.Fatalf("Sessions() = %+v", sessions)
	}

	acquisitions, err := c.Acquisitions(ctx, sessions[0].ID)
	if err != nil {
		t.Fatalf("Acquisitions() error = %v", err)
	}
	if len(acquisitions) != 1 || len(acquisitions[0].Files) != 1 {
		t.Fatalf("Acquisitions() = %+v", acquisitions)
	}
	if acquisitions[0].Files[0].Type != "nifti" {
		t.Errorf("file type = %q, want nifti", acquisitions[0].Files[0].Type)
	}
}

func TestAcquisitionNotFound(t *testing.T) {
	_, server := newFakeStore(t)
	c := newTestClient(t, server)

	_, err := c.Acquisition(context.Background(), "a999")
	if err == nil {
		t.Fatal("Acquisition() for unknown id succeeded")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestUpdateFileInfo(t *testing.T) {
	f, server := newFakeStore(t)
	c := newTestClient(t, server)

	info := map[string]any{"SliceTiming": "0.5", "task": "rest"}
	if err := c.UpdateFileInfo(context.Background(), "a1", "sub-01_task-rest_bold.nii.gz", info); err != nil {
		t.Fatalf("UpdateFileInfo() error = %v", err)
	}

	if len(f.updates) != 1 {
		t.Fatalf("server saw %d updates, want 1", len(f.updates))
	}
	set, ok := f.updates[0]["set"].(map[string]any)
	if !ok {
		t.Fatalf("update body = %v, want a set envelope", f.updates[0])
	}
	if set["SliceTiming"] != "0.5" {
		t.Errorf("set.SliceTiming = %v", set["SliceTiming"])
	}
}

func TestUpdateFileClassification(t *testing.T) {
	f, server := newFakeStore(t)
	c := newTestClient(t, server)

	classification := map[string][]string{"Measurement": {"T1", "T2"}}
	if err := c.UpdateFileClassification(context.Background(), "a1", "sub-01_task-rest_bold.nii.gz", classification); err != nil {
		t.Fatalf("UpdateFileClassification() error = %v", err)
	}

	if len(f.updates) != 1 {
		t.Fatalf("server saw %d updates, want 1", len(f.updates))
	}
	if _, ok := f.updates[0]["replace"]; !ok {
		t.Errorf("update body = %v, want a replace envelope", f.updates[0])
	}
}

func TestUpdateFile(t *testing.T) {
	f, server := newFakeStore(t)
	c := newTestClient(t, server)

	attrs := map[string]any{"modality": "mr"}
	if err := c.UpdateFile(context.Background(), "a1", "sub-01_task-rest_bold.nii.gz", attrs); err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}

	if len(f.updates) != 1 {
		t.Fatalf("server saw %d updates, want 1", len(f.updates))
	}
	if f.updates[0]["modality"] != "mr" {
		t.Errorf("update body = %v, want modality set directly", f.updates[0])
	}
}

func TestNewOptionValidation(t *testing.T) {
	if _, err := New(WithBaseURL("not a url")); err == nil {
		t.Error("New() accepted an invalid base URL")
	}
	if _, err := New(WithAPIKey("")); !errors.Is(err, errors.ErrAPIKeyRequired) {
		t.Errorf("New(WithAPIKey(\"\")) error = %v, want ErrAPIKeyRequired", err)
	}
	if _, err := New(WithAuth("kerberos", "")); err == nil {
		t.Error("New() accepted an unknown auth scheme")
	}
	if _, err := New(WithTransport(nil)); err == nil {
		t.Error("New() accepted a nil transport")
	}
}
