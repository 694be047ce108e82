package upload

import (
	"context"
	"strings"
	"testing"

	"github.com/redlinedata/redline/internal/store"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/tables"
)

// storeCall records one update the fake store received.
type storeCall struct {
	kind           string
	acquisitionID  string
	fileName       string
	info           map[string]any
	classification map[string][]string
	attrs          map[string]any
}

// fakeClient serves fixed acquisitions and records every update call.
type fakeClient struct {
	acquisitions map[string]*store.Acquisition
	calls        []storeCall
	failID       string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		acquisitions: map[string]*store.Acquisition{
			"a1": {ID: "a1", Files: []store.File{
				{Name: "sub-01_T1w.nii.gz", Type: "nifti"},
				{Name: "sub-01_T1w.dicom.zip", Type: "dicom"},
			}},
			"a2": {ID: "a2", Files: []store.File{
				{Name: "sub-02_task-rest_bold.nii.gz", Type: "nifti"},
			}},
		},
	}
}

func (f *fakeClient) Projects(_ context.Context) ([]store.Project, error) { return nil, nil }

func (f *fakeClient) LookupProject(_ context.Context, label string) (*store.Project, error) {
	return nil, errors.NewNotFoundError("project", label)
}

func (f *fakeClient) Subjects(_ context.Context, _ string) ([]store.Subject, error) {
	return nil, nil
}

func (f *fakeClient) Sessions(_ context.Context, _ string) ([]store.Session, error) {
	return nil, nil
}

func (f *fakeClient) Acquisitions(_ context.Context, _ string) ([]store.Acquisition, error) {
	return nil, nil
}

func (f *fakeClient) Acquisition(_ context.Context, id string) (*store.Acquisition, error) {
	if id == f.failID {
		return nil, errors.New("store offline")
	}
	acq, ok := f.acquisitions[id]
	if !ok {
		return nil, errors.NewNotFoundError("acquisition", id)
	}
	return acq, nil
}

func (f *fakeClient) UpdateFileInfo(_ context.Context, acquisitionID, fileName string, info map[string]any) error {
	f.calls = append(f.calls, storeCall{kind: "info", acquisitionID: acquisitionID, fileName: fileName, info: info})
	return nil
}

func (f *fakeClient) UpdateFileClassification(_ context.Context, acquisitionID, fileName string, classification map[string][]string) error {
	f.calls = append(f.calls, storeCall{kind: "classification", acquisitionID: acquisitionID, fileName: fileName, classification: classification})
	return nil
}

func (f *fakeClient) UpdateFile(_ context.Context, acquisitionID, fileName string, attrs map[string]any) error {
	f.calls = append(f.calls, storeCall{kind: "attrs", acquisitionID: acquisitionID, fileName: fileName, attrs: attrs})
	return nil
}

// newTestTables returns a four-row record table and an identical clone to
// edit. Rows 0 and 1 are two files of acquisition a1; row 3 names a file
// type a2 does not have.
func newTestTables(t testing.TB) (*tables.Table, *tables.Table) {
	t.Helper()
	original, err := tables.New(
		"acquisition.id", "subject.label", "filename", "type", "modality",
		"classification_Measurement", "info_BIDS_valid", "info_BIDS_Task", "size",
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rows := [][]string{
		{"a1", "sub-01", "sub-01_T1w.nii.gz", "nifti", "mr", "T1", "", "", "1024"},
		{"a1", "sub-01", "", "dicom", "", "", "", "", ""},
		{"a2", "sub-02", "sub-02_task-rest_bold.nii.gz", "nifti", "mr", "", "true", "rest", ""},
		{"a2", "sub-02", "", "qa", "", "", "", "", ""},
	}
	for _, row := range rows {
		if err := original.AppendValues(row...); err != nil {
			t.Fatalf("AppendValues() error = %v", err)
		}
	}
	return original, original.Clone()
}

func newUploader(t testing.TB, client store.Client, opts ...Option) Uploader {
	t.Helper()
	u, err := New(client, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return u
}

func setCell(t testing.TB, tbl *tables.Table, row int, column, value string) {
	t.Helper()
	if err := tbl.SetCell(row, column, value); err != nil {
		t.Fatalf("SetCell(%d, %s) error = %v", row, column, err)
	}
}

func TestUploadRoutesPayloads(t *testing.T) {
	f := newFakeClient()
	u := newUploader(t, f)
	original, reconciled := newTestTables(t)

	setCell(t, reconciled, 0, "classification_Measurement", "T1, Structural")
	setCell(t, reconciled, 0, "info_BIDS_valid", "true")
	setCell(t, reconciled, 0, "info_BIDS_Task", "rest")
	setCell(t, reconciled, 2, "modality", "pet")

	result, err := u.Upload(context.Background(), original, reconciled)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("Upload() failed: %s", result.Report())
	}

	stats := result.Metadata.Stats
	if stats.CellsChanged != 4 || stats.RowsChanged != 2 {
		t.Errorf("stats = %+v, want 4 cells across 2 rows", stats)
	}
	if stats.RowsUploaded != 2 || stats.InfoUpdates != 1 || stats.ClassificationUpdates != 1 || stats.AttributeUpdates != 1 {
		t.Errorf("stats = %+v, want one update of each kind across 2 rows", stats)
	}

	if len(f.calls) != 3 {
		t.Fatalf("store saw %d calls, want 3", len(f.calls))
	}

	// Row 0 resolves to a1's nifti file; both info edits merge into one call.
	info := f.calls[0]
	if info.kind != "info" || info.acquisitionID != "a1" || info.fileName != "sub-01_T1w.nii.gz" {
		t.Fatalf("calls[0] = %+v", info)
	}
	bids, ok := info.info["BIDS"].(map[string]any)
	if !ok {
		t.Fatalf("info payload = %v, want a nested BIDS map", info.info)
	}
	if bids["valid"] != true {
		t.Errorf("BIDS.valid = %v (%T), want true", bids["valid"], bids["valid"])
	}
	if bids["Task"] != "rest" {
		t.Errorf("BIDS.Task = %v, want rest", bids["Task"])
	}

	classification := f.calls[1]
	if classification.kind != "classification" || classification.acquisitionID != "a1" {
		t.Fatalf("calls[1] = %+v", classification)
	}
	axes := classification.classification["Measurement"]
	if len(axes) != 2 || axes[0] != "T1" || axes[1] != "Structural" {
		t.Errorf("Measurement = %v, want [T1 Structural]", axes)
	}

	attrs := f.calls[2]
	if attrs.kind != "attrs" || attrs.acquisitionID != "a2" || attrs.fileName != "sub-02_task-rest_bold.nii.gz" {
		t.Fatalf("calls[2] = %+v", attrs)
	}
	if attrs.attrs["modality"] != "pet" {
		t.Errorf("attrs = %v, want modality pet", attrs.attrs)
	}
}

func TestUploadSkipsUnroutableColumns(t *testing.T) {
	f := newFakeClient()
	u := newUploader(t, f)
	original, reconciled := newTestTables(t)

	setCell(t, reconciled, 0, "subject.label", "sub-99")
	setCell(t, reconciled, 2, "size", "4096")

	result, err := u.Upload(context.Background(), original, reconciled)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("Upload() failed: %s", result.Report())
	}
	if len(f.calls) != 0 {
		t.Errorf("store saw %d calls, want none", len(f.calls))
	}

	stats := result.Metadata.Stats
	if stats.CellsChanged != 2 || stats.RowsChanged != 0 || stats.SkippedColumns != 2 {
		t.Errorf("stats = %+v, want 2 skipped columns and no routed rows", stats)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "subject.label") {
		t.Errorf("warnings[0] = %q", result.Warnings[0])
	}
	if !strings.Contains(result.Warnings[1], "size") {
		t.Errorf("warnings[1] = %q", result.Warnings[1])
	}
}

func TestUploadValidationBlocks(t *testing.T) {
	f := newFakeClient()
	u := newUploader(t, f)
	original, reconciled := newTestTables(t)

	setCell(t, reconciled, 0, "classification_Measurement", "T2")
	setCell(t, reconciled, 2, "modality", "sonar")

	result, err := u.Upload(context.Background(), original, reconciled)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.IsSuccess() {
		t.Fatal("Upload() succeeded despite an invalid value")
	}
	if len(result.Violations) != 1 {
		t.Fatalf("violations = %v, want 1", result.Violations)
	}
	v := result.Violations[0]
	if v.Row != 2 || v.Column != "modality" || v.Value != "sonar" {
		t.Errorf("violation = %+v", v)
	}

	// A single violation blocks the whole upload.
	if len(f.calls) != 0 {
		t.Errorf("store saw %d calls, want none", len(f.calls))
	}
	if !strings.Contains(result.Summary(), "blocked") {
		t.Errorf("Summary() = %q", result.Summary())
	}
}

func TestUploadIdentityMismatch(t *testing.T) {
	u := newUploader(t, newFakeClient())
	original, reconciled := newTestTables(t)

	setCell(t, reconciled, 1, "acquisition.id", "a9")

	_, err := u.Upload(context.Background(), original, reconciled)
	if !errors.IsValidationError(err) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestUploadSchemaMismatch(t *testing.T) {
	u := newUploader(t, newFakeClient())
	original, reconciled := newTestTables(t)

	t.Run("extra column", func(t *testing.T) {
		widened, err := reconciled.WithColumns("notes")
		if err != nil {
			t.Fatalf("WithColumns() error = %v", err)
		}
		for i := 0; i < reconciled.Len(); i++ {
			if err := widened.Append(reconciled.Row(i).Clone()); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}

		_, err = u.Upload(context.Background(), original, widened)
		if !errors.IsSchemaMismatch(err) {
			t.Errorf("error = %v, want schema mismatch", err)
		}
	})

	t.Run("row count", func(t *testing.T) {
		truncated, err := tables.New(original.Columns()...)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := truncated.Append(original.Row(0).Clone()); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		_, err = u.Upload(context.Background(), original, truncated)
		if !errors.IsValidationError(err) {
			t.Errorf("error = %v, want validation error", err)
		}
	})
}

func TestUploadRowFailureContinues(t *testing.T) {
	f := newFakeClient()
	f.failID = "a1"
	u := newUploader(t, f)
	original, reconciled := newTestTables(t)

	setCell(t, reconciled, 0, "classification_Measurement", "T2")
	setCell(t, reconciled, 2, "modality", "pet")

	result, err := u.Upload(context.Background(), original, reconciled)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.IsSuccess() {
		t.Fatal("Upload() reported success despite a failed row")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", result.Errors)
	}

	stats := result.Metadata.Stats
	if stats.RowsUploaded != 1 || stats.FailedRows != 1 {
		t.Errorf("stats = %+v, want 1 uploaded and 1 failed row", stats)
	}

	// The a2 row is still pushed after a1 fails.
	if len(f.calls) != 1 || f.calls[0].acquisitionID != "a2" {
		t.Errorf("calls = %+v, want one call for a2", f.calls)
	}
}

func TestUploadMissingFile(t *testing.T) {
	f := newFakeClient()
	u := newUploader(t, f)
	original, reconciled := newTestTables(t)

	// Row 3's type is qa; a2 has no such file.
	setCell(t, reconciled, 3, "modality", "ct")

	result, err := u.Upload(context.Background(), original, reconciled)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", result.Errors)
	}
	if !errors.IsNotFound(result.Errors[0]) {
		t.Errorf("error = %v, want not found", result.Errors[0])
	}
}

func TestUploadDryRun(t *testing.T) {
	f := newFakeClient()
	u := newUploader(t, f, WithDryRun(true))
	original, reconciled := newTestTables(t)

	setCell(t, reconciled, 0, "classification_Measurement", "T2")
	setCell(t, reconciled, 2, "modality", "pet")

	result, err := u.Upload(context.Background(), original, reconciled)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("Upload() failed: %s", result.Report())
	}
	if !result.Metadata.DryRun {
		t.Error("Metadata.DryRun = false")
	}
	if len(f.calls) != 0 {
		t.Errorf("store saw %d calls during a dry run", len(f.calls))
	}
	if len(result.Changes) != 2 {
		t.Errorf("changes = %v, want 2", result.Changes)
	}
	if !strings.Contains(result.Summary(), "Dry run") {
		t.Errorf("Summary() = %q", result.Summary())
	}
}

func TestUploadNoChanges(t *testing.T) {
	f := newFakeClient()
	u := newUploader(t, f)
	original, reconciled := newTestTables(t)

	result, err := u.Upload(context.Background(), original, reconciled)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !result.IsSuccess() || result.HasChanges() {
		t.Fatalf("result = %s", result.Summary())
	}
	if len(f.calls) != 0 {
		t.Errorf("store saw %d calls, want none", len(f.calls))
	}
}

func TestUploadLogReplay(t *testing.T) {
	f := newFakeClient()
	u := newUploader(t, f)
	original, _ := newTestTables(t)

	log := provenance.New("acquisition.type")
	log.Append(provenance.Entry{GroupID: 0, Row: 2, Column: "modality", Original: "mr", Modified: "pet"})

	result, err := u.UploadLog(context.Background(), original, log)
	if err != nil {
		t.Fatalf("UploadLog() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("UploadLog() failed: %s", result.Report())
	}
	if len(f.calls) != 1 || f.calls[0].kind != "attrs" {
		t.Fatalf("calls = %+v, want one attribute update", f.calls)
	}
	if f.calls[0].attrs["modality"] != "pet" {
		t.Errorf("attrs = %v", f.calls[0].attrs)
	}
}

func TestUploadProgress(t *testing.T) {
	var calls [][2]int
	f := newFakeClient()
	u := newUploader(t, f, WithProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))
	original, reconciled := newTestTables(t)

	setCell(t, reconciled, 0, "classification_Measurement", "T2")
	setCell(t, reconciled, 2, "modality", "pet")

	if _, err := u.Upload(context.Background(), original, reconciled); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	want := [][2]int{{1, 2}, {2, 2}}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestUploadCanceled(t *testing.T) {
	u := newUploader(t, newFakeClient())
	original, reconciled := newTestTables(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := u.Upload(ctx, original, reconciled); err == nil {
		t.Error("Upload() with canceled context succeeded")
	}
}

func TestNewUploaderValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) succeeded")
	}
	f := newFakeClient()
	if _, err := New(f, WithChecker(nil)); err == nil {
		t.Error("New() accepted a nil checker")
	}
	if _, err := New(f, WithProgress(nil)); err == nil {
		t.Error("New() accepted a nil progress callback")
	}
	if _, err := New(f, WithRules(nil)); err == nil {
		t.Error("New() accepted nil rules")
	}
}

func TestTypedValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"true", true},
		{"False", false},
		{"3", int64(3)},
		{"0.5", 0.5},
		{"rest", "rest"},
		{"NA", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := typedValue(tt.input); got != tt.want {
			t.Errorf("typedValue(%q) = %v (%T), want %v", tt.input, got, got, tt.want)
		}
	}
}
