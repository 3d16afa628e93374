package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	finalFile    = "final.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	CellSize  float64            `json:"cell_size"`
	FallSpeed float64            `json:"fall_speed"`
	TieBreak  string             `json:"tie_break"`
	Floor     string             `json:"floor"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run under a fresh ID derived from the scene name. ID and
// Timestamp in meta are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}
	if err := writeFinal(filepath.Join(runDir, finalFile), result.Final); err != nil {
		return "", err
	}
	return runID, nil
}

// createFile opens a run file for writing.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// closeFile closes c and reports its error unless an earlier one is set.
func closeFile(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func writeJSON(path string, v any) (err error) {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows func(w *csv.Writer) error) (err error) {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeFrames(path string, frames []sim.Frame) error {
	header := []string{"time", "particles", "moving", "sleeping", "spawned", "despawned"}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for _, f := range frames {
			row := []string{
				strconv.FormatFloat(f.Time, 'f', 6, 64),
				strconv.Itoa(f.Particles),
				strconv.Itoa(f.Moving),
				strconv.Itoa(f.Sleeping),
				strconv.Itoa(f.Spawned),
				strconv.Itoa(f.Despawned),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeFinal(path string, particles []sand.Particle) error {
	header := []string{"id", "kind", "x", "y"}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for _, p := range particles {
			row := []string{
				strconv.FormatUint(uint64(p.ID), 10),
				p.Kind.String(),
				strconv.FormatFloat(float64(p.Pos.X), 'g', -1, 32),
				strconv.FormatFloat(float64(p.Pos.Y), 'g', -1, 32),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, notFound(runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}

	return &meta, nil
}

func notFound(runID string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}

func (s *Store) readCSV(runID, name string) ([][]string, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, notFound(runID, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

// LoadFrames reads the per-tick summary of a run. Malformed rows are
// skipped.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	records, err := s.readCSV(runID, framesFile)
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0, len(records))
	for _, record := range records {
		if len(record) < 6 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		ints, ok := parseInts(record[1:6])
		if !ok {
			continue
		}
		frames = append(frames, sim.Frame{
			Time:      t,
			Particles: ints[0],
			Moving:    ints[1],
			Sleeping:  ints[2],
			Spawned:   ints[3],
			Despawned: ints[4],
		})
	}
	return frames, nil
}

// LoadFinal reads the particle snapshot taken at the end of a run.
func (s *Store) LoadFinal(runID string) ([]sand.Particle, error) {
	records, err := s.readCSV(runID, finalFile)
	if err != nil {
		return nil, err
	}

	particles := make([]sand.Particle, 0, len(records))
	for _, record := range records {
		if len(record) < 4 {
			continue
		}
		id, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			continue
		}
		kind := sand.KindSand
		if record[1] == sand.KindStone.String() {
			kind = sand.KindStone
		}
		x, errX := strconv.ParseFloat(record[2], 32)
		y, errY := strconv.ParseFloat(record[3], 32)
		if errX != nil || errY != nil {
			continue
		}
		particles = append(particles, sand.Particle{
			ID:   sand.ParticleID(id),
			Kind: kind,
			Pos:  sand.Vec2{X: float32(x), Y: float32(y)},
		})
	}
	return particles, nil
}

func parseInts(fields []string) ([]int, bool) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Path returns the directory holding runID.
func (s *Store) Path(runID string) string {
	return filepath.Join(s.baseDir, runID)
}
