package state

import "time"

// Phase is what the agent is doing right now.
type Phase string

const (
	PhaseDreaming               Phase = "DREAMING"
	PhaseSleeping               Phase = "SLEEPING"
	PhaseWaking                 Phase = "WAKING"
	PhaseThinking               Phase = "THINKING"
	PhaseActing                 Phase = "ACTING"
	PhaseReflecting             Phase = "REFLECTING"
	PhaseOff                    Phase = "OFF"
	PhaseInitializing           Phase = "INITIALIZING"
	PhaseLearning               Phase = "LEARNING"
	PhaseEthicalLearning        Phase = "ETHICAL_LEARNING"
	PhaseDeviationCheck         Phase = "DEVIATION_CHECK"
	PhaseRunning                Phase = "RUNNING"
	PhaseStarting               Phase = "STARTING"
	PhaseStopping               Phase = "STOPPING"
	PhaseAdvice                 Phase = "ADVICE"
	PhaseExecution              Phase = "EXECUTION"
	PhaseRequest                Phase = "REQUEST"
	PhaseDecision               Phase = "DECISION"
	PhaseHandlePriority1Tasks   Phase = "HANDLE_PRIORITY_1_TASKS"
	PhaseHandlePriority2Tasks   Phase = "HANDLE_PRIORITY_2_TASKS"
	PhaseHandlePriorityLowTasks Phase = "HANDLE_PRIORITY_LOW_TASKS"
	PhaseNormalOperation        Phase = "NORMAL_OPERATION"
	PhaseEmergency              Phase = "EMERGENCY"
	PhaseTrainingEthics         Phase = "TRAINING_ETHICS"
	PhaseTrainingIndividual     Phase = "TRAINING_INDIVIDUAL"
	PhaseTrainingClim           Phase = "TRAINING_CLIM"
	PhaseMaintenance            Phase = "MAINTENANCE"
	PhaseService                Phase = "SERVICE"
)

type phaseInfo struct {
	display     string
	description string
	duration    time.Duration
	priority    Priority
	next        Phase
}

var phases = map[Phase]phaseInfo{
	PhaseDreaming:               {"Dreaming", "The individual dreams.", 0, PriorityNormal, PhaseSleeping},
	PhaseSleeping:               {"Sleeping", "The individual sleeps.", 0, PriorityNormal, PhaseWaking},
	PhaseWaking:                 {"Waking", "The individual wakes up.", 0, PriorityNormal, PhaseDreaming},
	PhaseThinking:               {"Thinking", "The individual thinks.", 0, PriorityNormal, PhaseActing},
	PhaseActing:                 {"Acting", "The individual acts.", 0, PriorityNormal, PhaseThinking},
	PhaseReflecting:             {"Reflecting", "The individual reflects.", 0, PriorityNormal, PhaseDreaming},
	PhaseOff:                    {"Off", "The individual is switched off.", 0, PriorityNormal, PhaseDreaming},
	PhaseInitializing:           {"Initializing", "The model is initialized.", 0, PriorityNormal, PhaseDreaming},
	PhaseLearning:               {"Learning", "The individual learns.", 0, PriorityNormal, PhaseDreaming},
	PhaseEthicalLearning:        {"Ethical learning", "The individual learns ethics.", 0, PriorityNormal, PhaseDreaming},
	PhaseDeviationCheck:         {"Deviation check", "The individual checks for deviations.", 0, PriorityNormal, PhaseDreaming},
	PhaseRunning:                {"Running", "The individual runs.", 0, PriorityNormal, PhaseDreaming},
	PhaseStarting:               {"Starting", "The individual starts.", 0, PriorityNormal, PhaseDreaming},
	PhaseStopping:               {"Stopping", "The individual stops.", 0, PriorityNormal, PhaseOff},
	PhaseAdvice:                 {"Advice", "The individual is advised.", 0, PriorityNormal, PhaseDreaming},
	PhaseExecution:              {"Execution", "A task is executed.", 0, PriorityNormal, PhaseDreaming},
	PhaseRequest:                {"Request", "A request is made.", 0, PriorityNormal, PhaseDreaming},
	PhaseDecision:               {"Decision", "A decision is made.", 0, PriorityNormal, PhaseDreaming},
	PhaseHandlePriority1Tasks:   {"Handling priority 1 tasks", "Priority 1 tasks are processed.", 0, Priority1, PhaseDreaming},
	PhaseHandlePriority2Tasks:   {"Handling priority 2 tasks", "Priority 2 tasks are processed.", 0, Priority2, PhaseDreaming},
	PhaseHandlePriorityLowTasks: {"Handling low priority tasks", "Low priority tasks are processed.", 0, PriorityLow, PhaseDreaming},
	PhaseNormalOperation:        {"Normal operation", "Regular work is done.", 0, PriorityNormal, PhaseDreaming},
	PhaseEmergency:              {"Emergency", "An emergency is handled.", 0, PriorityEmergency, PhaseDreaming},
	PhaseTrainingEthics:         {"Training ethics", "The ethics layer is trained.", 0, PriorityNormal, PhaseDreaming},
	PhaseTrainingIndividual:     {"Training individual", "The individual layer is trained.", 0, PriorityNormal, PhaseDreaming},
	PhaseTrainingClim:           {"Training CLIM", "The language model stack is trained.", 0, PriorityNormal, PhaseDreaming},
	PhaseMaintenance:            {"Maintenance", "Maintenance is carried out.", 0, PriorityNormal, PhaseDreaming},
	PhaseService:                {"Service", "The individual is being serviced.", 0, PriorityNormal, PhaseDreaming},
}

// Phases returns every known phase.
func Phases() []Phase {
	out := make([]Phase, 0, len(phases))
	for p := range phases {
		out = append(out, p)
	}
	return out
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := phases[p]
	return ok
}

func (p Phase) DisplayName() string { return phases[p].display }
func (p Phase) Description() string { return phases[p].description }
func (p Phase) Duration() time.Duration { return phases[p].duration }
func (p Phase) Priority() Priority { return phases[p].priority }

// Next returns the phase that follows p. Unknown phases lead to DREAMING.
func (p Phase) Next() Phase {
	if info, ok := phases[p]; ok {
		return info.next
	}
	return PhaseDreaming
}

// HandlePhaseFor returns the task-handling phase of an interrupt tier.
func HandlePhaseFor(p Priority) Phase {
	switch p {
	case Priority1:
		return PhaseHandlePriority1Tasks
	case Priority2:
		return PhaseHandlePriority2Tasks
	case PriorityLow:
		return PhaseHandlePriorityLowTasks
	case PriorityEmergency:
		return PhaseEmergency
	default:
		return PhaseNormalOperation
	}
}

// MaintenancePhase refines MAINTENANCE while the scheduler checks and
// handles interrupt tiers.
type MaintenancePhase string

const (
	MaintenanceNone                MaintenancePhase = "NONE"
	MaintenanceHandlingPriority1   MaintenancePhase = "HANDLING_PRIORITY_1_TASKS"
	MaintenanceHandlingPriority2   MaintenancePhase = "HANDLING_PRIORITY_2_TASKS"
	MaintenanceHandlingPriorityLow MaintenancePhase = "HANDLING_PRIORITY_LOW_TASKS"
	MaintenanceCheckingPriority1   MaintenancePhase = "CHECKING_FOR_PRIO_1_TASKS"
	MaintenanceCheckingPriority2   MaintenancePhase = "CHECKING_FOR_PRIO_2_TASKS"
	MaintenanceCheckingPriorityLow MaintenancePhase = "CHECKING_FOR_PRIO_LOW_TASKS"
)

// CheckingPhaseFor returns the maintenance phase used while a tier is checked.
func CheckingPhaseFor(p Priority) MaintenancePhase {
	switch p {
	case Priority1:
		return MaintenanceCheckingPriority1
	case Priority2:
		return MaintenanceCheckingPriority2
	case PriorityLow:
		return MaintenanceCheckingPriorityLow
	default:
		return MaintenanceNone
	}
}

// HandlingPhaseFor returns the maintenance phase used while a tier is handled.
func HandlingPhaseFor(p Priority) MaintenancePhase {
	switch p {
	case Priority1:
		return MaintenanceHandlingPriority1
	case Priority2:
		return MaintenanceHandlingPriority2
	case PriorityLow:
		return MaintenanceHandlingPriorityLow
	default:
		return MaintenanceNone
	}
}
