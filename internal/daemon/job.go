package daemon

import (
	"muzzman/internal/ids"
	"muzzman/internal/value"
)

// job is the plugin's view of one element during one Init or Run call.
// Once the element's run generation moves past run (the element was
// stopped, re-enabled, re-resolved or destroyed) reads see empty values
// and writes are dropped.
type job struct {
	d   *Daemon
	id  ids.ElementID
	run uint64
}

func (j *job) with(fn func(el *element)) {
	j.d.mu.Lock()
	defer j.d.mu.Unlock()
	if el, ok := j.d.elements[j.id]; ok && el.run == j.run {
		fn(el)
	}
}

func (j *job) Name() string {
	var name string
	j.with(func(el *element) { name = el.name })
	return name
}

func (j *job) Dir() string {
	var dir string
	j.with(func(el *element) {
		if loc, ok := j.d.locations[el.location]; ok {
			dir = loc.path
		}
	})
	return dir
}

func (j *job) ElementData() value.Data {
	out := value.NewData()
	j.with(func(el *element) { out = el.data.Clone() })
	return out
}

func (j *job) Options() value.Data {
	out := value.NewData()
	j.with(func(el *element) { out = el.options.Clone() })
	return out
}

func (j *job) ModuleData() value.Data {
	out := value.NewData()
	j.with(func(el *element) { out = el.moduleData.Clone() })
	return out
}

func (j *job) SetModuleData(data value.Data) {
	j.with(func(el *element) { el.moduleData = data.Clone() })
}

func (j *job) SetOutput(data value.Data) {
	j.with(func(el *element) { el.output = data.Clone() })
}

// SetProgress clamps to [0, 1] and never moves backwards within a run.
func (j *job) SetProgress(p float64) {
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	j.with(func(el *element) {
		if p > el.progress {
			el.progress = p
		}
	})
}

func (j *job) SetStatus(msg string) {
	j.with(func(el *element) { el.status = msg })
}
