package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"heirloom/pkg/domain"
)

// EngineResult is the parsed outcome of a successful encryption run.
type EngineResult struct {
	MapFile           string
	FragmentCount     int
	EncryptionKeyHash string
}

// Engine fragments and encrypts a file, returning where the fragment map
// landed. Implemented by ExecEngine; tests substitute fakes.
type Engine interface {
	Encrypt(ctx context.Context, filePath string, ownerID domain.OwnerID) (EngineResult, error)
}

// ExecEngine shells out to the external encryption engine. The engine is a
// separate program with its own lifecycle; it prints progress chatter on
// stdout and a single JSON result object as one of the final lines.
type ExecEngine struct {
	command []string
}

// NewExecEngine builds an engine from a command line such as
// "python3 glue_algorithm.py". The file path and owner id are appended as
// the last two arguments on every run.
func NewExecEngine(command string) (*ExecEngine, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("engine command is empty")
	}
	return &ExecEngine{command: parts}, nil
}

// DisabledEngine rejects every upload. Used when no engine command is
// configured so the rest of the vault API stays available.
type DisabledEngine struct{}

func (DisabledEngine) Encrypt(context.Context, string, domain.OwnerID) (EngineResult, error) {
	return EngineResult{}, fmt.Errorf("encryption engine is not configured")
}

// engineOutput is the JSON object the engine prints on completion.
type engineOutput struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	MapFile           string `json:"map_file"`
	FragmentCount     int    `json:"fragment_count"`
	EncryptionKeyHash string `json:"encryption_key_hash"`
}

func (e *ExecEngine) Encrypt(ctx context.Context, filePath string, ownerID domain.OwnerID) (EngineResult, error) {
	args := append(append([]string{}, e.command[1:]...), filePath, ownerID.String())
	cmd := exec.CommandContext(ctx, e.command[0], args...)

	stdout, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return EngineResult{}, fmt.Errorf("encryption engine failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return EngineResult{}, fmt.Errorf("run encryption engine: %w", err)
	}

	out, err := parseEngineOutput(stdout)
	if err != nil {
		return EngineResult{}, err
	}
	if out.Status != "success" {
		msg := out.Message
		if msg == "" {
			msg = "unknown encryption error"
		}
		return EngineResult{}, fmt.Errorf("encryption engine reported failure: %s", msg)
	}
	if out.MapFile == "" || out.FragmentCount <= 0 {
		return EngineResult{}, fmt.Errorf("encryption engine result incomplete")
	}
	return EngineResult{
		MapFile:           out.MapFile,
		FragmentCount:     out.FragmentCount,
		EncryptionKeyHash: out.EncryptionKeyHash,
	}, nil
}

// parseEngineOutput scans stdout from the last line backwards for the first
// parseable JSON object. Progress chatter above it is ignored.
func parseEngineOutput(stdout []byte) (engineOutput, error) {
	lines := strings.Split(string(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var out engineOutput
		if err := json.Unmarshal([]byte(line), &out); err != nil {
			continue
		}
		return out, nil
	}
	return engineOutput{}, fmt.Errorf("no JSON result in encryption engine output")
}
