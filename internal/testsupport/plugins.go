package testsupport

import (
	"context"
	"strings"

	"muzzman/internal/modules"
	"muzzman/internal/value"
)

// StubPlugin is a scriptable module capability for tests. It accepts
// elements whose url starts with Prefix and normalizes their data to
// {"source": url}, dropping the caller's url key.
type StubPlugin struct {
	KindName string
	Prefix   string
	InitErr  error
	RunErr   error
	// Block keeps Run going at half progress until the run is cancelled.
	Block bool
	// AfterCancel, with Block, is called with the job once the run's
	// context is done and before Run returns.
	AfterCancel func(job modules.Job)
}

// Factory returns a factory producing copies of p.
func (p StubPlugin) Factory() modules.Factory {
	return func() modules.Plugin {
		cp := p
		return &cp
	}
}

func (p *StubPlugin) Kind() string        { return p.KindName }
func (p *StubPlugin) DefaultName() string { return "Stub " + p.KindName }
func (p *StubPlugin) DefaultDesc() string { return "Test plugin" }

func (p *StubPlugin) Accepts(data value.Data) bool {
	url, ok := data.GetString("url")
	return ok && strings.HasPrefix(url, p.Prefix)
}

func (p *StubPlugin) Normalize(data value.Data) value.Data {
	url, _ := data.GetString("url")
	out := value.NewData()
	out.Set("source", value.String(url))
	return out
}

func (p *StubPlugin) Init(_ context.Context, job modules.Job) error {
	if p.InitErr != nil {
		return p.InitErr
	}
	md := job.ModuleData()
	md.Set("prepared", value.Bool(true))
	job.SetModuleData(md)
	return nil
}

func (p *StubPlugin) Run(ctx context.Context, job modules.Job) error {
	job.SetStatus("Working")
	if p.Block {
		job.SetProgress(0.5)
		<-ctx.Done()
		if p.AfterCancel != nil {
			p.AfterCancel(job)
		}
		return ctx.Err()
	}
	if p.RunErr != nil {
		return p.RunErr
	}
	job.SetProgress(1)
	return nil
}
