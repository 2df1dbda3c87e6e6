package service

import "time"

const windowMonths = 12

type bucket struct {
	key   string
	label string
	start time.Time
	end   time.Time
}

// window is the trailing run of calendar months ending at the month of now,
// inclusive, with month boundaries taken in loc.
type window struct {
	loc     *time.Location
	buckets []bucket
	index   map[string]int
}

func newWindow(now time.Time, loc *time.Location) window {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	w := window{
		loc:     loc,
		buckets: make([]bucket, 0, windowMonths),
		index:   make(map[string]int, windowMonths),
	}
	for i := windowMonths - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
		key := monthKey(start)
		w.index[key] = len(w.buckets)
		w.buckets = append(w.buckets, bucket{
			key:   key,
			label: start.Format("Jan 2006"),
			start: start,
			end:   end,
		})
	}
	return w
}

func (w window) start() time.Time {
	return w.buckets[0].start
}

func (w window) end() time.Time {
	return w.buckets[len(w.buckets)-1].end
}

// lookup returns the bucket position of t, if t falls inside the window.
func (w window) lookup(t time.Time) (int, bool) {
	idx, ok := w.index[w.key(t)]
	return idx, ok
}

func (w window) key(t time.Time) string {
	return monthKey(t.In(w.loc))
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
