package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Frames: []sim.Frame{
			{Time: 0.1, Particles: 1, Moving: 1, Spawned: 1},
			{Time: 0.2, Particles: 2, Moving: 1, Sleeping: 1, Spawned: 1},
		},
		Final: []sand.Particle{
			{ID: 1, Kind: sand.KindSand, Pos: sand.Vec2{X: 3, Y: -357}},
			{ID: 2, Kind: sand.KindStone, Pos: sand.Vec2{X: -7.5, Y: 12.25}},
		},
		Metrics: map[string]float64{"pile_height": 1.5},
	}
}

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st, tmpDir
}

func TestStoreSaveLoad(t *testing.T) {
	st, _ := newStore(t)

	runID, err := st.Save(RunMetadata{Scene: "test", Seed: 42, Dt: 0.1, Duration: 0.2, CellSize: 5}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scene != "test" {
		t.Errorf("expected scene 'test', got '%s'", meta.Scene)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["pile_height"] != 1.5 {
		t.Errorf("expected pile height 1.5, got %f", meta.Metrics["pile_height"])
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[1].Sleeping != 1 || frames[1].Particles != 2 {
		t.Errorf("unexpected frame %+v", frames[1])
	}

	final, err := st.LoadFinal(runID)
	if err != nil {
		t.Fatalf("load final failed: %v", err)
	}
	want := testResult().Final
	if len(final) != len(want) {
		t.Fatalf("expected %d particles, got %d", len(want), len(final))
	}
	for i := range want {
		if final[i] != want[i] {
			t.Errorf("particle %d: expected %+v, got %+v", i, want[i], final[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st, _ := newStore(t)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, err := st.Save(RunMetadata{Scene: "a"}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(RunMetadata{Scene: "b"}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestStoreNotFound(t *testing.T) {
	st, _ := newStore(t)

	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadFrames("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	st, tmpDir := newStore(t)

	runID, err := st.Save(RunMetadata{Scene: "test"}, &sim.Result{Metrics: map[string]float64{}})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{metadataFile, framesFile, finalFile} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames, got %d", len(frames))
	}
}

func TestExportJSON(t *testing.T) {
	st, _ := newStore(t)
	runID, err := st.Save(RunMetadata{Scene: "test", Seed: 3}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if data.Run.ID != runID || data.Run.Seed != 3 {
		t.Errorf("unexpected run header %+v", data.Run)
	}
	if data.Steps != 2 || len(data.Particles) != 2 {
		t.Errorf("expected 2 steps and 2 particles, got %d and %d", data.Steps, len(data.Particles))
	}
	if data.Particles[1].Kind != "stone" {
		t.Errorf("expected stone, got %s", data.Particles[1].Kind)
	}
}

type failingClose struct {
	bytes.Buffer
}

func (f *failingClose) Close() error { return errLostWrite }

var errLostWrite = errors.New("lost write")

func TestSaveReportsCloseError(t *testing.T) {
	st, _ := newStore(t)

	orig := createFile
	t.Cleanup(func() { createFile = orig })
	createFile = func(string) (io.WriteCloser, error) { return &failingClose{}, nil }

	if _, err := st.Save(RunMetadata{Scene: "test"}, testResult()); !errors.Is(err, errLostWrite) {
		t.Errorf("expected close error from Save, got %v", err)
	}
	if err := writeCSV("frames.csv", []string{"time"}, func(*csv.Writer) error { return nil }); !errors.Is(err, errLostWrite) {
		t.Errorf("expected close error from writeCSV, got %v", err)
	}
}

func TestCloseFileKeepsFirstError(t *testing.T) {
	first := errors.New("encode failed")
	err := first
	closeFile(&failingClose{}, &err)
	if err != first {
		t.Errorf("expected the earlier error to win, got %v", err)
	}
}
