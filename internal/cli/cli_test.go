package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Trinity/internal/engine"
)

const diamondYAML = `name: diamond
version: "1"
steps:
  - id: A
    type: agent_task
  - id: B
    type: agent_task
    depends_on: [A]
  - id: C
    type: human_approval
    depends_on: [A]
  - id: D
    type: notification
    depends_on: [B, C]
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "process.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

func runCmd(cmd *cobra.Command, out *Output, stdout, stderr *bytes.Buffer, args ...string) cmdResult {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newTestOutput(jsonMode bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return NewOutputTo(jsonMode, &stdout, &stderr), &stdout, &stderr
}

func TestBuildPreview_Diamond(t *testing.T) {
	p := BuildPreview(diamondYAML, time.Now(), 3)

	require.Empty(t, p.Error)
	assert.Equal(t, "diamond", p.Name)
	require.Len(t, p.Groups, 3)
	assert.Equal(t, []string{"B", "C"}, p.Groups[1].Steps)
	assert.True(t, p.Groups[1].Parallel)
	assert.Equal(t, engine.Stats{StepCount: 4, LevelCount: 3, MaxParallel: 2}, p.Stats)
	require.NotNil(t, p.Steps[3].Level)
	assert.Equal(t, 2, *p.Steps[3].Level)
}

func TestBuildPreview_Schedule(t *testing.T) {
	text := "trigger:\n  type: schedule\n  schedule: \"*/15 * * * *\"\nsteps:\n  - id: A\n"
	now := time.Date(2026, 5, 1, 10, 7, 0, 0, time.UTC)

	p := BuildPreview(text, now, 2)

	require.Len(t, p.NextFireTimes, 2)
	assert.True(t, p.NextFireTimes[0].Equal(time.Date(2026, 5, 1, 10, 15, 0, 0, time.UTC)))
	assert.True(t, p.NextFireTimes[1].Equal(time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)))
}

func TestRenderSwimlanes(t *testing.T) {
	p := BuildPreview(diamondYAML+"  - id: E\n    depends_on: [ghost]\n", time.Now(), 0)

	out := RenderSwimlanes(&p)

	for _, want := range []string{"diamond 1", "L0", "L1", "L2", "A", "B", "C", "D", "approval", "notify", "unknown", "E: missing_dependency (ghost)"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "L0"), strings.Index(out, "L1"))
	assert.Less(t, strings.Index(out, "L1"), strings.Index(out, "L2"))
}

func TestRenderSwimlanes_UnrecognisedTypeKeepsName(t *testing.T) {
	p := BuildPreview("steps:\n  - id: hook\n    type: webhook_call\n", time.Now(), 0)

	out := RenderSwimlanes(&p)

	assert.Contains(t, out, "hook")
	assert.Contains(t, out, "webhook_call")
}

func TestRenderSwimlanes_ParseError(t *testing.T) {
	p := BuildPreview("steps: [a, b\n", time.Now(), 0)

	out := RenderSwimlanes(&p)

	assert.Contains(t, out, "parse error")
	assert.NotContains(t, out, "L0")
}

func TestRenderSwimlanes_Empty(t *testing.T) {
	p := BuildPreview("name: empty\n", time.Now(), 0)

	assert.Contains(t, RenderSwimlanes(&p), "no steps")
}

func TestPreviewCmd_Local(t *testing.T) {
	out, stdout, stderr := newTestOutput(false)
	cmd := NewPreviewCmd(func() *Client { t.Fatal("client must not be used"); return nil },
		func() *Output { return out }, func() int { return 3 })

	res := runCmd(cmd, out, stdout, stderr, writeFile(t, diamondYAML))

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "L2")
	assert.Contains(t, res.stdout, "4 steps, 3 levels, max 2 in parallel")
}

func TestPreviewCmd_JSON(t *testing.T) {
	out, stdout, stderr := newTestOutput(true)
	cmd := NewPreviewCmd(nil, func() *Output { return out }, func() int { return 3 })

	res := runCmd(cmd, out, stdout, stderr, writeFile(t, diamondYAML))
	require.NoError(t, res.err)

	var p PreviewResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &p))
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 1, "D": 2}, p.Levels)
}

func TestPreviewCmd_MalformedFails(t *testing.T) {
	out, stdout, stderr := newTestOutput(false)
	cmd := NewPreviewCmd(nil, func() *Output { return out }, func() int { return 0 })

	res := runCmd(cmd, out, stdout, stderr, writeFile(t, "steps: [a, b\n"))

	assert.Error(t, res.err)
	assert.Contains(t, res.stdout, "parse error")
}

func TestPreviewCmd_Stdin(t *testing.T) {
	out, stdout, stderr := newTestOutput(true)
	cmd := NewPreviewCmd(nil, func() *Output { return out }, func() int { return 0 })
	cmd.SetIn(strings.NewReader("steps:\n  - id: only\n"))

	res := runCmd(cmd, out, stdout, stderr, "-")
	require.NoError(t, res.err)

	var p PreviewResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &p))
	assert.Equal(t, 1, p.Stats.StepCount)
}

func TestValidateCmd(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{name: "valid", text: diamondYAML},
		{name: "malformed", text: "steps: [a, b\n", wantErr: "parse"},
		{name: "missing dependency", text: "steps:\n  - id: a\n    type: agent_task\n    depends_on: [ghost]\n", wantErr: "ghost"},
		{name: "unknown type", text: "steps:\n  - id: a\n    type: teleport\n", wantErr: "teleport"},
		{name: "no steps", text: "name: x\n", wantErr: "no steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stdout, stderr := newTestOutput(false)
			cmd := NewValidateCmd(func() *Output { return out })

			res := runCmd(cmd, out, stdout, stderr, writeFile(t, tt.text))

			if tt.wantErr == "" {
				require.NoError(t, res.err)
				assert.Contains(t, res.stderr, "is valid: 4 steps, 3 levels")
				return
			}
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
}

// fakeAPI — минимальный сервер с форматом ответов Trinity API.
func fakeAPI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var requests []string

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /api/v1/processes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []ProcessResponse{{ID: "p1", Name: "review", CreatedAt: "2026-01-01T00:00:00Z"}},
			"total": 1,
		})
	})
	mux.HandleFunc("POST /api/v1/processes/{id}/versions", func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RequestURI())
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["definition"] == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"code": "BAD_REQUEST", "message": "definition is required"}})
			return
		}
		if r.URL.Query().Get("strict") == "true" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": map[string]string{
				"code": "INVALID_DEFINITION", "message": "depends on unknown step: ghost", "step_id": "a", "field": "depends_on",
			}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": ProcessVersionResponse{ProcessID: r.PathValue("id"), Version: 2}})
	})
	mux.HandleFunc("GET /api/v1/processes/{id}/versions/{version}/preview", func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path)
		p := BuildPreview(diamondYAML, time.Now(), 0)
		writeJSON(w, http.StatusOK, map[string]any{"data": p})
	})
	mux.HandleFunc("DELETE /api/v1/processes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]string{"code": "NOT_FOUND", "message": "process not found"}})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestClient_ListProcesses(t *testing.T) {
	srv, _ := fakeAPI(t)

	processes, err := NewClient(srv.URL + "/").ListProcesses()

	require.NoError(t, err)
	require.Len(t, processes, 1)
	assert.Equal(t, "review", processes[0].Name)
}

func TestClient_APIError(t *testing.T) {
	srv, _ := fakeAPI(t)
	client := NewClient(srv.URL)

	err := client.DeleteProcess("missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND: process not found", apiErr.Error())

	_, err = client.CreateVersion("p1", "steps: []", true)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "a", apiErr.StepID)
	assert.Equal(t, "depends_on", apiErr.Field)
	assert.Contains(t, apiErr.Error(), "step a")

	assert.NoError(t, client.DeleteProcess("p1"))
}

func TestProcessPublishCmd(t *testing.T) {
	srv, requests := fakeAPI(t)
	out, stdout, stderr := newTestOutput(false)
	cmd := NewProcessCmd(func() *Client { return NewClient(srv.URL) }, func() *Output { return out })

	res := runCmd(cmd, out, stdout, stderr, "publish", "p1", "--file", writeFile(t, diamondYAML))

	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Version 2 published for process p1")
	assert.Contains(t, res.stdout, "v2")
	assert.Equal(t, []string{"/api/v1/processes/p1/versions"}, *requests)
}

func TestProcessPreviewCmd_DefaultsToLatest(t *testing.T) {
	srv, requests := fakeAPI(t)
	out, stdout, stderr := newTestOutput(false)
	cmd := NewProcessCmd(func() *Client { return NewClient(srv.URL) }, func() *Output { return out })

	res := runCmd(cmd, out, stdout, stderr, "preview", "p1")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "L1")
	assert.Equal(t, []string{"/api/v1/processes/p1/versions/latest/preview"}, *requests)
}

func TestProcessListCmd_Table(t *testing.T) {
	srv, _ := fakeAPI(t)
	out, stdout, stderr := newTestOutput(false)
	cmd := NewProcessCmd(func() *Client { return NewClient(srv.URL) }, func() *Output { return out })

	res := runCmd(cmd, out, stdout, stderr, "list")

	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[2], "review")
}

func TestStepTypesCmd(t *testing.T) {
	out, stdout, stderr := newTestOutput(false)

	res := runCmd(NewStepTypesCmd(func() *Output { return out }), out, stdout, stderr)

	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "TYPE")
	assert.Contains(t, lines[2], "agent_task")
	assert.Contains(t, res.stdout, "human_approval")
}

func TestStepTypesCmd_JSON(t *testing.T) {
	out, stdout, stderr := newTestOutput(true)

	res := runCmd(NewStepTypesCmd(func() *Output { return out }), out, stdout, stderr)

	require.NoError(t, res.err)
	var kinds []map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &kinds))
	require.Len(t, kinds, 6)
	assert.Equal(t, "agent_task", kinds[0]["type"])
}
