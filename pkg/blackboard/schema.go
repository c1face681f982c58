package blackboard

import "fmt"

// Redis key pattern helpers
//
// Key pattern: ethos:{instance_name}:{entity}:{id}
// Channel pattern: ethos:{instance_name}:events

// BlackboardKey returns the Redis key for a stored blackboard.
// Pattern: ethos:{instance_name}:blackboard:{blackboard_id}
func BlackboardKey(instanceName, blackboardID string) string {
	return fmt.Sprintf("ethos:%s:blackboard:%s", instanceName, blackboardID)
}

// HistoryKey returns the Redis key of the blackboard history ZSET.
// Pattern: ethos:{instance_name}:history
func HistoryKey(instanceName string) string {
	return fmt.Sprintf("ethos:%s:history", instanceName)
}

// TaskQueueKey returns the Redis key of the mirrored task list for one tier.
// Pattern: ethos:{instance_name}:tasks:{priority}
func TaskQueueKey(instanceName, priority string) string {
	return fmt.Sprintf("ethos:%s:tasks:%s", instanceName, priority)
}

// EventsChannel returns the Pub/Sub channel carrying all agent events.
// Pattern: ethos:{instance_name}:events
func EventsChannel(instanceName string) string {
	return fmt.Sprintf("ethos:%s:events", instanceName)
}

// HistoryScore converts a creation timestamp to a history ZSET score.
func HistoryScore(createdAtMs int64) float64 {
	return float64(createdAtMs)
}
