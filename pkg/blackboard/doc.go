// Package blackboard holds the shared working memory of one decision run and
// its Redis persistence.
//
// # Overview
//
// Every top-level request gets a fresh Blackboard. Each layer of the review
// pipeline writes one Entry per (layer, stage) pair and updates the
// blackboard's LastResponse and LastDecision, which the next layer reads as
// its input. A blackboard is owned by exactly one pipeline run and is never
// shared between runs.
//
// # Persistence
//
// The Client stores finished blackboards in Redis and fans out events so
// that other processes (the `ethos watch` command, dashboards) can follow
// the agent. Persistence is optional: the pipeline works on in-memory
// blackboards alone.
//
// # Redis Schema
//
// All keys are namespaced by instance name so several agents can share one
// Redis server.
//
// Blackboards: ethos:{instance}:blackboard:{id} (hash)
// History: ethos:{instance}:history (zset, score = created_at_ms)
// Task mirror: ethos:{instance}:tasks:{priority} (list of JSON records)
//
// Events: ethos:{instance}:events (one channel, typed by Event.Type)
//
// # Usage Example
//
//	bb := blackboard.New("Should I help my neighbour move?")
//	entry := bb.Entry("ETHIC", "prerun")
//	entry.Response = "GO, helping is kind."
//	entry.Decision = decision.Go
//	bb.LastDecision = entry.Decision
//
//	client, err := blackboard.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.SaveBlackboard(ctx, bb); err != nil {
//		log.Fatal(err)
//	}
package blackboard
