package matching

import "math/bits"

// HourSet is the set of hours 0..23 of one day, one bit per hour.
type HourSet uint32

// AllHours has every hour of the day set.
const AllHours HourSet = 1<<24 - 1

func (s HourSet) Add(hour int) HourSet {
	if hour < 0 || hour > 23 {
		return s
	}
	return s | 1<<uint(hour)
}

func (s HourSet) Has(hour int) bool {
	if hour < 0 || hour > 23 {
		return false
	}
	return s&(1<<uint(hour)) != 0
}

func (s HourSet) Intersect(o HourSet) HourSet { return s & o }

func (s HourSet) Empty() bool { return s&AllHours == 0 }

func (s HourSet) Len() int { return bits.OnesCount32(uint32(s & AllHours)) }

// Hours lists the members in ascending order.
func (s HourSet) Hours() []int {
	s &= AllHours
	out := make([]int, 0, s.Len())
	for s != 0 {
		h := bits.TrailingZeros32(uint32(s))
		out = append(out, h)
		s &= s - 1
	}
	return out
}

// HoursOf builds a set from a list of hours, ignoring values outside 0..23.
func HoursOf(hours ...int) HourSet {
	var s HourSet
	for _, h := range hours {
		s = s.Add(h)
	}
	return s
}
