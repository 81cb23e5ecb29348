package render

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sbpy-tools/sbforge/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// snapshotJob is the stable on-disk shape of one expanded job. Env is a
// list of KEY=VALUE strings so declaration order survives the round trip.
type snapshotJob struct {
	Name         string   `yaml:"name"`
	Stage        string   `yaml:"stage,omitempty"`
	OS           string   `yaml:"os"`
	OnEvent      string   `yaml:"on_event,omitempty"`
	AllowFailure bool     `yaml:"allow_failure,omitempty"`
	Command      string   `yaml:"command,omitempty"`
	Env          []string `yaml:"env"`
}

type snapshotFile struct {
	Jobs []snapshotJob `yaml:"jobs"`
}

// Snapshot encodes the expanded matrix deterministically: jobs in
// expansion order, env vars in declaration order.
func Snapshot(jobs []entities.Job) ([]byte, error) {
	file := snapshotFile{Jobs: make([]snapshotJob, 0, len(jobs))}
	for _, job := range jobs {
		sj := snapshotJob{
			Name:         job.Name,
			Stage:        job.Stage,
			OS:           job.OS,
			OnEvent:      job.OnEvent,
			AllowFailure: job.AllowFailure,
			Command:      job.Command(),
		}
		for _, v := range job.Env.Vars() {
			sj.Env = append(sj.Env, v.Key+"="+v.Value)
		}
		file.Jobs = append(file.Jobs, sj)
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Diff returns a unified diff between the recorded and current snapshot
// bytes, or the empty string when they are identical.
func Diff(recorded, current []byte, recordedName, currentName string) (string, error) {
	if string(recorded) == string(current) {
		return "", nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(recorded)),
		B:        difflib.SplitLines(string(current)),
		FromFile: recordedName,
		ToFile:   currentName,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute diff: %w", err)
	}
	return diff, nil
}
