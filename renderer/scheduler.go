package renderer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign them to the
	// pool of workers using feedback collected from previous frames.
	//
	// This function returns the block height assignment for each worker
	// given its relative speed estimate.
	Schedule(speeds []float32, lastFrame []BlockStat, frameH uint32) []uint32
}

// The naive scheduler splits the frame rows based on worker speed estimates.
type naiveScheduler struct{}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return &naiveScheduler{}
}

func (sch *naiveScheduler) Schedule(speeds []float32, _ []BlockStat, frameH uint32) []uint32 {
	var total float64 = 0.0
	for _, speed := range speeds {
		total += float64(speed)
	}
	scaler := float64(frameH) / total

	blockAssignment := make([]uint32, len(speeds))
	for idx, speed := range speeds {
		blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(float64(speed)*scaler)))
	}

	return balanceRows(blockAssignment, frameH)
}

// The perfect scheduler assumes that the volume of work between two
// subsequent frames is approximately the same. This holds for the capture
// loop where the camera orbits the same object.
type perfectScheduler struct {
	naive BlockScheduler
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{
		naive: NaiveScheduler(),
	}
}

// When previous frame information is available the scheduler uses the
// following formula for estimating the workload for worker w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(speeds []float32, lastFrame []BlockStat, frameH uint32) []uint32 {
	// If this is the first frame or the number of workers has changed
	// fall back to the speed estimates.
	if len(lastFrame) != len(speeds) {
		return sch.naive.Schedule(speeds, lastFrame, frameH)
	}

	var total float64 = 0.0
	for _, stat := range lastFrame {
		if stat.RenderTime <= 0 {
			return sch.naive.Schedule(speeds, lastFrame, frameH)
		}
		total += float64(stat.BlockH) / float64(stat.RenderTime)
	}

	scaler := float64(frameH) / total
	blockAssignment := make([]uint32, len(speeds))
	for idx, stat := range lastFrame {
		blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(float64(stat.BlockH)/float64(stat.RenderTime)*scaler)))
	}

	return balanceRows(blockAssignment, frameH)
}

// Make sure that the assigned rows add up to the frame height. Missing rows
// are appended to the first block; excess rows are removed from the largest blocks.
func balanceRows(blockAssignment []uint32, frameH uint32) []uint32 {
	var scheduledRows uint32 = 0
	for _, rows := range blockAssignment {
		scheduledRows += rows
	}

	if scheduledRows <= frameH {
		blockAssignment[0] += frameH - scheduledRows
		return blockAssignment
	}

	for ; scheduledRows > frameH; scheduledRows-- {
		largest := 0
		for idx, rows := range blockAssignment {
			if rows > blockAssignment[largest] {
				largest = idx
			}
		}
		blockAssignment[largest]--
	}
	return blockAssignment
}
