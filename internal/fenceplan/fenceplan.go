// Package fenceplan allocates cross-queue fence slots over a batched
// schedule (spec §4.6): a signal slot on each producer batch, a wait
// reference on each dependent consumer batch.
package fenceplan

import (
	"sort"

	"github.com/gogpu/rpsgraph/internal/barrier"
)

// NoSignalFence marks a batch with no downstream waiter (spec §6's NONE
// sentinel), mirrored here so callers that only import fenceplan don't need
// to reach into internal/barrier for the constant.
const NoSignalFence = barrier.NoSignalFence

// Slot is one dense fence-slot table entry: the queue that signals it and
// the monotonically increasing value that queue's fence reaches when the
// producer batch completes.
type Slot struct {
	SignalingQueue int
	Value          uint64
}

// Wait is one (fence slot, consumer batch) wait reference.
type Wait struct {
	ConsumerBatch int
	Slot          int // index into Result.Slots
}

// Result assigns each cross-queue dependency a dense fence slot, plus the
// per-batch wait/signal bookkeeping the record orchestrator consumes via
// barrier.CommandBatch's WaitFencesBegin/NumWaitFences/SignalFenceIndex
// fields (spec §6's BatchLayout).
type Result struct {
	Slots []Slot
	// Waits is grouped so that batch b's waits occupy Waits[b.WaitFencesBegin
	// : b.WaitFencesBegin+b.NumWaitFences] once applied to Batches.
	Waits []Wait
	// Batches is in's Batches with SignalFenceIndex, WaitFencesBegin, and
	// NumWaitFences filled in.
	Batches []barrier.CommandBatch
}

// Plan assigns fence slots for every barrier.CrossQueueDependency in in,
// and returns the batches with their signal/wait fields populated.
func Plan(in barrier.Result) Result {
	batches := make([]barrier.CommandBatch, len(in.Batches))
	copy(batches, in.Batches)

	// perQueueValue counts how many batches on a given queue have already
	// been assigned a signal slot, giving each a distinct, increasing fence
	// value on that queue.
	perQueueValue := map[int]uint64{}
	var slots []Slot

	// waitsByConsumer groups dependencies so each consumer batch's waits sit
	// contiguously once flattened into Result.Waits.
	waitsByConsumer := map[int][]int{} // consumerBatch -> slot indices

	deps := make([]barrier.CrossQueueDependency, len(in.CrossQueueDeps))
	copy(deps, in.CrossQueueDeps)
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].ProducerBatch != deps[j].ProducerBatch {
			return deps[i].ProducerBatch < deps[j].ProducerBatch
		}
		return deps[i].ConsumerBatch < deps[j].ConsumerBatch
	})

	producerSlot := map[int]int{} // producer batch index -> slot index, reused across consumers
	for _, dep := range deps {
		slotIdx, ok := producerSlot[dep.ProducerBatch]
		if !ok {
			q := batches[dep.ProducerBatch].QueueIndex
			perQueueValue[q]++
			slotIdx = len(slots)
			slots = append(slots, Slot{SignalingQueue: q, Value: perQueueValue[q]})
			producerSlot[dep.ProducerBatch] = slotIdx
			batches[dep.ProducerBatch].SignalFenceIndex = slotIdx
		}
		waitsByConsumer[dep.ConsumerBatch] = append(waitsByConsumer[dep.ConsumerBatch], slotIdx)
	}

	// Batches that never acquire a producer slot keep the NoSignalFence
	// value barrier.Build already initialized them with.
	var waits []Wait
	for i := range batches {
		slotIdxs := waitsByConsumer[i]
		batches[i].WaitFencesBegin = len(waits)
		batches[i].NumWaitFences = len(slotIdxs)
		for _, s := range slotIdxs {
			waits = append(waits, Wait{ConsumerBatch: i, Slot: s})
		}
	}

	return Result{Slots: slots, Waits: waits, Batches: batches}
}
