package renderer

import (
	"testing"
	"time"
)

func TestNaiveScheduler(t *testing.T) {
	type spec struct {
		speed1   float32
		speed2   float32
		frameH   uint32
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		{1, 2, 10, 4, 6},
		{2, 1, 10, 7, 3},
		{1, 1000, 10, 1, 9},
	}

	for index, s := range specs {
		sch := NaiveScheduler()
		blockAssignment := sch.Schedule([]float32{s.speed1, s.speed2}, nil, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected worker 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected worker 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}
	}
}

func TestPerfectScheduler(t *testing.T) {
	type spec struct {
		frameH   uint32
		rTime1   time.Duration
		rTime2   time.Duration
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		// First call always behaves like the naive scheduler
		{10, time.Duration(1), time.Duration(5), 5, 5},
		// Second call should use the render times to assign rows
		{10, time.Duration(1), time.Duration(5), 9, 1},
		// This time worker 2 performed much better
		{10, time.Duration(5), time.Duration(1), 7, 3},
	}

	// Workers have same speed
	speeds := []float32{1, 1}
	var lastFrame []BlockStat

	sch := PerfectScheduler()
	for index, s := range specs {
		blockAssignment := sch.Schedule(speeds, lastFrame, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected worker 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected worker 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}

		lastFrame = []BlockStat{
			{BlockH: blockAssignment[0], RenderTime: s.rTime1},
			{BlockH: blockAssignment[1], RenderTime: s.rTime2},
		}
	}
}

func TestSchedulerNeverExceedsFrameHeight(t *testing.T) {
	blockAssignment := NaiveScheduler().Schedule([]float32{1, 1, 1, 1}, nil, 3)

	var total uint32
	for _, rows := range blockAssignment {
		total += rows
	}
	if total != 3 {
		t.Fatalf("expected assigned rows to add up to 3; got %d (%v)", total, blockAssignment)
	}
}
