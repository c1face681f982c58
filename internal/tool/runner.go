package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	dockerpkg "github.com/Rob9999/ethos-ai-clim/internal/docker"
)

// Runner executes an instruction script.
type Runner interface {
	Run(ctx context.Context, subject, language, script string) (string, error)
}

// ExecutedScript is one script recorded by LogRunner.
type ExecutedScript struct {
	Subject  string
	Language string
	Script   string
}

// LogRunner records scripts without executing them.
type LogRunner struct {
	logger *zap.Logger

	mu      sync.Mutex
	scripts []ExecutedScript
}

// NewLogRunner creates a LogRunner.
func NewLogRunner(logger *zap.Logger) *LogRunner {
	return &LogRunner{logger: logger}
}

// Run implements Runner.
func (r *LogRunner) Run(_ context.Context, subject, language, script string) (string, error) {
	r.mu.Lock()
	r.scripts = append(r.scripts, ExecutedScript{Subject: subject, Language: language, Script: script})
	r.mu.Unlock()

	r.logger.Info("Instruction script recorded",
		zap.String("event_type", "script_recorded"),
		zap.String("subject", subject),
		zap.String("language", language),
		zap.Int("bytes", len(script)))
	return "", nil
}

// Scripts returns the recorded scripts.
func (r *LogRunner) Scripts() []ExecutedScript {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ExecutedScript, len(r.scripts))
	copy(out, r.scripts)
	return out
}

// DefaultImages maps script languages to interpreter images.
var DefaultImages = map[string]string{
	"python":     "python:3.12-alpine",
	"javascript": "node:22-alpine",
	"shell":      "alpine:3.20",
}

var interpreters = map[string][]string{
	"python":     {"python", "-c"},
	"javascript": {"node", "-e"},
	"shell":      {"sh", "-c"},
}

// DockerRunner executes each script in a fresh container, collects its
// logs and removes it.
type DockerRunner struct {
	cli          *client.Client
	registry     imageAPI
	instanceName string
	images       map[string]string
	logger       *zap.Logger
}

// NewDockerRunner creates a runner. images overrides DefaultImages per language.
func NewDockerRunner(cli *client.Client, instanceName string, images map[string]string, logger *zap.Logger) *DockerRunner {
	merged := make(map[string]string, len(DefaultImages))
	for k, v := range DefaultImages {
		merged[k] = v
	}
	for k, v := range images {
		merged[k] = v
	}
	return &DockerRunner{cli: cli, registry: cli, instanceName: instanceName, images: merged, logger: logger}
}

// imageAPI is the part of the Docker client that resolves images.
type imageAPI interface {
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error)
}

// ensureImage pulls image unless it is already present locally.
func (r *DockerRunner) ensureImage(ctx context.Context, image string) error {
	_, _, err := r.registry.ImageInspectWithRaw(ctx, image)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return fmt.Errorf("failed to inspect image %s: %w", image, err)
	}

	r.logger.Info("Pulling script image", zap.String("image", image))
	reader, err := r.registry.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	defer reader.Close()

	// The pull completes when the progress stream ends.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to complete pull of %s: %w", image, err)
	}
	return nil
}

// Run implements Runner. A non-zero exit code is an error carrying the logs.
func (r *DockerRunner) Run(ctx context.Context, subject, language, script string) (string, error) {
	image, ok := r.images[language]
	interp, known := interpreters[language]
	if !ok || !known {
		return "", fmt.Errorf("unsupported script language %q", language)
	}

	if err := r.ensureImage(ctx, image); err != nil {
		return "", err
	}

	runID := dockerpkg.GenerateRunID()
	name := dockerpkg.ScriptContainerName(r.instanceName, runID)

	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:  image,
		Cmd:    append(append([]string{}, interp...), script),
		Labels: dockerpkg.BuildLabels(r.instanceName, runID, dockerpkg.ComponentScript, subject),
	}, &container.HostConfig{NetworkMode: "none"}, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("failed to create script container: %w", err)
	}
	defer r.remove(resp.ID)

	if err := r.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start script container: %w", err)
	}

	r.logger.Info("Script container started",
		zap.String("event_type", "script_started"),
		zap.String("container_name", name),
		zap.String("subject", subject))

	var exitCode int64
	statusCh, errCh := r.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return "", fmt.Errorf("failed waiting for script container: %w", err)
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs := r.logs(ctx, resp.ID)
	if exitCode != 0 {
		return logs, fmt.Errorf("script exited with code %d", exitCode)
	}
	return logs, nil
}

func (r *DockerRunner) logs(ctx context.Context, id string) string {
	reader, err := r.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true, Tail: "100"})
	if err != nil {
		return fmt.Sprintf("(failed to retrieve logs: %v)", err)
	}
	defer reader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return fmt.Sprintf("(failed to read logs: %v)", err)
	}
	return stdout.String() + stderr.String()
}

func (r *DockerRunner) remove(id string) {
	// The run context may already be cancelled.
	if err := r.cli.ContainerRemove(context.Background(), id, container.RemoveOptions{Force: true}); err != nil {
		r.logger.Warn("Failed to remove script container", zap.String("container_id", id), zap.Error(err))
	}
}
