package persist

import "github.com/google/uuid"

// Progress is reported to Options.OnProgress while rows are persisted.
type Progress struct {
	Processed int
	Total     int
	Succeeded int
	Failed    int
}

type Options struct {
	JobID         *uuid.UUID
	Source        string
	Actor         string
	ProgressEvery int
	OnProgress    func(Progress)
}

func (o Options) report(p Progress, force bool) {
	if o.OnProgress == nil {
		return
	}
	every := o.ProgressEvery
	if every <= 0 {
		every = 50
	}
	if force || (p.Processed > 0 && p.Processed%every == 0) {
		o.OnProgress(p)
	}
}
