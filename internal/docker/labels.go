package docker

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys set on every container the agent launches.
const (
	LabelProject      = "ethos.project"
	LabelInstanceName = "ethos.instance.name"
	LabelRunID        = "ethos.run_id"
	LabelComponent    = "ethos.component"
	LabelToDo         = "ethos.todo"
)

// ComponentScript marks containers that execute instruction scripts.
const ComponentScript = "script"

// BuildLabels creates the standard label set. component and todo may be empty.
func BuildLabels(instanceName, runID, component, todo string) map[string]string {
	labels := map[string]string{
		LabelProject:      "true",
		LabelInstanceName: instanceName,
		LabelRunID:        runID,
	}
	if component != "" {
		labels[LabelComponent] = component
	}
	if todo != "" {
		labels[LabelToDo] = todo
	}
	return labels
}

// GenerateRunID creates a new UUID for one container run.
func GenerateRunID() string {
	return uuid.New().String()
}

// ScriptContainerName returns the container name for one script run.
func ScriptContainerName(instanceName, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("ethos-%s-script-%s", instanceName, short)
}
