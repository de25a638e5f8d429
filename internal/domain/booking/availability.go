package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/balneo/balneo/internal/domain/center"
)

const (
	// TickMinutes is the availability grid granularity.
	TickMinutes = 5

	// PrepBuffer is the turnaround time guaranteed before and after every
	// appointment. It is derived at comparison time, never stored: the probe
	// interval is widened by the buffer on both sides and tested against the
	// literal intervals of existing bookings, which keeps any two adjacent
	// appointments on a lane at least PrepBuffer apart.
	PrepBuffer = 15 * time.Minute
)

const (
	ReasonPast           = "past"
	ReasonNoAvailability = "no_availability"
)

// AvailabilityInput carries everything the slot computation needs, already
// fetched. The computation itself is pure: identical inputs always produce
// identical slot grids, so it is safe to re-run on every selection change.
type AvailabilityInput struct {
	// Open and Close bound the tick grid, both inclusive, in the center's
	// timezone and on the requested date.
	Open  time.Time
	Close time.Time

	// Now enables the past-time cutoff for slots on its own calendar day.
	Now time.Time

	DurationMinutes int

	// CandidateLanes is the resolver's eligible set, in scan order.
	CandidateLanes []*center.Lane
	Blocks         []*center.LaneBlock
	Bookings       []*Booking
}

// ComputeSlots produces one TimeSlot per 5-minute tick between Open and
// Close. A slot is enabled when at least one candidate lane can host it.
func ComputeSlots(in AvailabilityInput) []TimeSlot {
	duration := time.Duration(in.DurationMinutes) * time.Minute

	blocksByLane := make(map[uuid.UUID][]*center.LaneBlock)
	for _, b := range in.Blocks {
		blocksByLane[b.LaneID] = append(blocksByLane[b.LaneID], b)
	}
	bookingsByLane := make(map[uuid.UUID][]*Booking)
	for _, b := range in.Bookings {
		if b.Active() {
			bookingsByLane[b.LaneID] = append(bookingsByLane[b.LaneID], b)
		}
	}

	var slots []TimeSlot
	for t := in.Open; !t.After(in.Close); t = t.Add(TickMinutes * time.Minute) {
		slots = append(slots, computeSlot(t, duration, in, blocksByLane, bookingsByLane))
	}
	return slots
}

func computeSlot(t time.Time, duration time.Duration, in AvailabilityInput,
	blocksByLane map[uuid.UUID][]*center.LaneBlock, bookingsByLane map[uuid.UUID][]*Booking) TimeSlot {

	slot := TimeSlot{Time: t.Format("15:04")}

	// Literal past exclusion: no buffer on this check.
	if sameDay(t, in.Now) && t.Before(in.Now) {
		slot.Disabled = true
		slot.Reason = ReasonPast
		return slot
	}

	end := t.Add(duration)
	bufferedStart := t.Add(-PrepBuffer)
	bufferedEnd := end.Add(PrepBuffer)

	for _, lane := range in.CandidateLanes {
		if laneFree(lane, t, end, bufferedStart, bufferedEnd, blocksByLane[lane.ID], bookingsByLane[lane.ID]) {
			return slot // first fit
		}
	}

	slot.Disabled = true
	slot.Reason = ReasonNoAvailability
	return slot
}

func laneFree(lane *center.Lane, start, end, bufferedStart, bufferedEnd time.Time,
	blocks []*center.LaneBlock, bookings []*Booking) bool {

	if lane.Blocked(start) {
		return false
	}
	for _, b := range blocks {
		if b.Overlaps(start, end) {
			return false
		}
	}

	count := 0
	for _, b := range bookings {
		if b.Overlaps(bufferedStart, bufferedEnd) {
			count++
		}
	}
	return count < lane.Capacity
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
