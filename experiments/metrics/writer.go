package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// WorkerConfig describes how one worker of an experiment was set up.
type WorkerConfig struct {
	ID                 int
	Seed               uint64
	Scalar             float64
	DescendProbability float64
	InitialBudget      int
	Steps              int
}

type EpisodeRecord struct {
	ID int
	EpisodeMetric
}

type SearchRecord struct {
	Episode int // EpisodeRecord.ID
	StepMetric
}

type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case CSV, Parquet:
		return f, nil
	default:
		return "", fmt.Errorf("unknown record format %q", s)
	}
}

type Writer struct {
	baseDir string
	format  Format
}

// NewWriter creates root/name/<timestamp> and writes records there.
func NewWriter(root, name string, format Format) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
		format:  format,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) path(name string) string {
	return filepath.Join(w.baseDir, name+"."+string(w.format))
}

type workerConfigRow struct {
	ID                 int64   `parquet:"id"`
	Seed               uint64  `parquet:"seed"`
	Scalar             float64 `parquet:"scalar"`
	DescendProbability float64 `parquet:"descend_probability"`
	InitialBudget      int64   `parquet:"initial_budget"`
	Steps              int64   `parquet:"steps"`
}

func (w *Writer) WriteWorkerConfigs(configs []WorkerConfig) error {
	if w.format == Parquet {
		rows := make([]workerConfigRow, len(configs))
		for i, c := range configs {
			rows[i] = workerConfigRow{
				ID:                 int64(c.ID),
				Seed:               c.Seed,
				Scalar:             c.Scalar,
				DescendProbability: c.DescendProbability,
				InitialBudget:      int64(c.InitialBudget),
				Steps:              int64(c.Steps),
			}
		}
		return writeParquet(w.path("worker_configs"), rows, "worker_config_v1")
	}

	header := []string{"id", "seed", "scalar", "descend_probability", "initial_budget", "steps"}
	rows := make([][]string, len(configs))
	for i, c := range configs {
		rows[i] = []string{
			strconv.Itoa(c.ID),
			strconv.FormatUint(c.Seed, 10),
			formatFloat(c.Scalar),
			formatFloat(c.DescendProbability),
			strconv.Itoa(c.InitialBudget),
			strconv.Itoa(c.Steps),
		}
	}
	return writeCSV(w.path("worker_configs"), "worker configs", header, rows)
}

type episodeRow struct {
	ID         int64   `parquet:"id"`
	Worker     int64   `parquet:"worker"`
	StartTime  string  `parquet:"start_time"`
	EndTime    string  `parquet:"end_time"`
	DurationNs int64   `parquet:"duration_ns"`
	Steps      int64   `parquet:"steps"`
	Terminal   bool    `parquet:"terminal"`
	Reward     float64 `parquet:"reward"`
	Final      string  `parquet:"final,zstd"`
}

func (w *Writer) WriteEpisodeRecords(records []EpisodeRecord) error {
	if w.format == Parquet {
		rows := make([]episodeRow, len(records))
		for i, r := range records {
			rows[i] = episodeRow{
				ID:         int64(r.ID),
				Worker:     int64(r.Worker),
				StartTime:  r.StartTime.Format(time.RFC3339Nano),
				EndTime:    r.EndTime.Format(time.RFC3339Nano),
				DurationNs: r.Duration.Nanoseconds(),
				Steps:      int64(r.Steps),
				Terminal:   r.Terminal,
				Reward:     r.Reward,
				Final:      r.Final,
			}
		}
		return writeParquet(w.path("episode_records"), rows, "episode_record_v1")
	}

	header := []string{"id", "worker", "start_time", "end_time", "duration", "steps", "terminal", "reward", "final"}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			strconv.Itoa(r.ID),
			strconv.Itoa(r.Worker),
			r.StartTime.Format(time.RFC3339),
			r.EndTime.Format(time.RFC3339),
			r.Duration.String(),
			strconv.Itoa(r.Steps),
			strconv.FormatBool(r.Terminal),
			formatFloat(r.Reward),
			r.Final,
		}
	}
	return writeCSV(w.path("episode_records"), "episode records", header, rows)
}

type searchRow struct {
	Episode        int64   `parquet:"episode"`
	Step           int64   `parquet:"step"`
	Worker         int64   `parquet:"worker"`
	Budget         int64   `parquet:"budget"`
	Iterations     int64   `parquet:"iterations"`
	Expansions     int64   `parquet:"expansions"`
	TerminalHits   int64   `parquet:"terminal_hits"`
	DurationNs     int64   `parquet:"duration_ns"`
	RootVisits     int64   `parquet:"root_visits"`
	RootReward     float64 `parquet:"root_reward"`
	TreeSize       int64   `parquet:"tree_size"`
	TreeDepth      int64   `parquet:"tree_depth"`
	IsTreeReused   bool    `parquet:"is_tree_reused"`
	BestReward     float64 `parquet:"best_reward"`
	BestVisits     int64   `parquet:"best_visits"`
	IsBestTerminal bool    `parquet:"is_best_terminal"`
}

func (w *Writer) WriteSearchRecords(records []SearchRecord) error {
	if w.format == Parquet {
		rows := make([]searchRow, len(records))
		for i, r := range records {
			rows[i] = searchRow{
				Episode:        int64(r.Episode),
				Step:           int64(r.Step),
				Worker:         int64(r.Worker),
				Budget:         int64(r.Budget),
				Iterations:     int64(r.Iterations),
				Expansions:     int64(r.Expansions),
				TerminalHits:   int64(r.TerminalHits),
				DurationNs:     r.Duration.Nanoseconds(),
				RootVisits:     int64(r.RootVisits),
				RootReward:     r.RootReward,
				TreeSize:       int64(r.TreeSize),
				TreeDepth:      int64(r.TreeDepth),
				IsTreeReused:   r.IsTreeReused,
				BestReward:     r.BestReward,
				BestVisits:     int64(r.BestVisits),
				IsBestTerminal: r.IsBestTerminal,
			}
		}
		return writeParquet(w.path("search_records"), rows, "search_record_v1")
	}

	header := []string{
		"episode", "step", "worker", "budget", "iterations", "expansions", "terminal_hits", "duration",
		"root_visits", "root_reward", "tree_size", "tree_depth", "is_tree_reused",
		"best_reward", "best_visits", "is_best_terminal",
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			strconv.Itoa(r.Episode),
			strconv.Itoa(r.Step),
			strconv.Itoa(r.Worker),
			strconv.Itoa(r.Budget),
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Expansions),
			strconv.Itoa(r.TerminalHits),
			r.Duration.String(),
			strconv.Itoa(r.RootVisits),
			formatFloat(r.RootReward),
			strconv.Itoa(r.TreeSize),
			strconv.Itoa(r.TreeDepth),
			strconv.FormatBool(r.IsTreeReused),
			formatFloat(r.BestReward),
			strconv.Itoa(r.BestVisits),
			strconv.FormatBool(r.IsBestTerminal),
		}
	}
	return writeCSV(w.path("search_records"), "search records", header, rows)
}

// WriteFile stores an arbitrary artifact, such as a tree dump, next to the records.
func (w *Writer) WriteFile(name string, data []byte) error {
	err := os.WriteFile(filepath.Join(w.baseDir, name), data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func writeCSV(path, what string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", what, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", what, err)
	}
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", what, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", what, err)
	}
	return nil
}

// writeParquet writes rows to a temporary file and renames it into place so
// readers never see a partial file.
func writeParquet[T any](path string, rows []T, schema string) error {
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write parquet %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename parquet %s: %w", filepath.Base(path), err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
