package session

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropSnapshot
	KickWatcher
)

// Policy decides what happens to a watcher whose buffer is full.
type Policy interface {
	OnBackPressure(w *Watcher) BackpressureAction
}

// SimplePolicy drops snapshots for a lagging watcher and kicks it once it has
// missed MaxMissed in a row. A newer snapshot always supersedes an older one.
type SimplePolicy struct {
	MaxMissed int
}

func (p SimplePolicy) OnBackPressure(w *Watcher) BackpressureAction {
	if p.MaxMissed > 0 && w.Missed() >= p.MaxMissed {
		return KickWatcher
	}
	return DropSnapshot
}
