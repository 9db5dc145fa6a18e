// Package bootstrap runs installers in sequence and aggregates their outcomes.
// The offline path runs at most once per host, guarded by a marker file.
package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"teleop/internal/install"
)

// ErrNoResources is returned when the bundled resources directory cannot be
// determined. The marker is not written in that case.
var ErrNoResources = errors.New("resources directory unavailable")

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, r Report) error
}

// Options configures an Orchestrator.
type Options struct {
	Env       install.Env
	State     *State
	Recorder  Recorder
	Observers []Observer
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Orchestrator owns the install plans and the bootstrap state.
type Orchestrator struct {
	env       install.Env
	state     *State
	recorder  Recorder
	observers observers
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// New builds an orchestrator. Nil clocks and id generators default to
// time.Now and random UUIDs.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		env:       opts.Env,
		state:     opts.State,
		recorder:  opts.Recorder,
		observers: observers(opts.Observers),
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if o.state == nil {
		o.state = NewState(opts.Env.Paths)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = func() string { return uuid.NewString() }
	}
	return o
}

// State returns the persisted state handle.
func (o *Orchestrator) State() *State { return o.state }

// NetworkedPlan returns the networked installers in run order.
func NetworkedPlan(env install.Env) []install.Installer {
	return []install.Installer{
		install.NewMesh(env),
		install.NewMediaManager(env),
		install.NewMessagingPip(env),
	}
}

// OfflinePlan returns the offline installers in run order.
func OfflinePlan(env install.Env) []install.Installer {
	return []install.Installer{
		install.NewMeshBundled(env),
		install.NewMediaBundled(env),
		install.NewVenv(env),
		install.NewWheel(env),
	}
}

// Networked installs everything it can from the network. Step failures are
// recorded in the report and never stop later steps.
func (o *Orchestrator) Networked(ctx context.Context) (Report, error) {
	return o.run(ctx, ModeNetworked, NetworkedPlan(o.env))
}

// Offline provisions from the bundled resources once per host. When the marker
// exists it returns a report with AlreadyDone set and does nothing else:
// observers and the recorder are not called. The
// marker is written after the last step whatever the step outcomes were; a
// cancelled run does not write it.
func (o *Orchestrator) Offline(ctx context.Context) (Report, error) {
	done, err := o.state.Done()
	if err != nil {
		return Report{}, err
	}
	if done {
		return Report{Mode: ModeOffline, AlreadyDone: true}, nil
	}
	if o.env.Paths.ResourcesDir == "" {
		return Report{}, ErrNoResources
	}
	if err := o.state.ensureDir(); err != nil {
		return Report{}, err
	}

	r, err := o.run(ctx, ModeOffline, OfflinePlan(o.env))
	if err != nil {
		return r, err
	}
	if err := o.state.MarkDone(r.RunID, r.FinishedAt); err != nil {
		return r, err
	}
	o.logger.Info("offline bootstrap marked done", "marker", o.state.MarkerPath(), "run", r.RunID)
	return r, nil
}

// Single runs one installer. Unlike the multi-step entry points, the step's
// error is returned.
func (o *Orchestrator) Single(ctx context.Context, inst install.Installer) (Report, error) {
	r, err := o.run(ctx, ModeSingle, []install.Installer{inst})
	if err != nil {
		return r, err
	}
	return r, r.Err()
}

// Plan runs an arbitrary plan like Networked does, without touching the
// offline marker.
func (o *Orchestrator) Plan(ctx context.Context, plan []install.Installer) (Report, error) {
	return o.run(ctx, ModeManual, plan)
}

func (o *Orchestrator) run(ctx context.Context, mode Mode, plan []install.Installer) (Report, error) {
	r := Report{RunID: o.newID(), Mode: mode, StartedAt: o.now()}
	steps := make([]string, len(plan))
	for i, inst := range plan {
		steps[i] = inst.Step()
	}
	o.logger.Info("bootstrap started", "mode", mode, "run", r.RunID, "steps", steps)
	o.observers.runStarted(r.RunID, mode, steps)

	for _, inst := range plan {
		if ctx.Err() != nil {
			break
		}
		o.observers.stepStarted(inst.Step())
		started := o.now()
		out, err := inst.Install(ctx)
		if out.Step == "" {
			out.Step = inst.Step()
		}
		if err != nil {
			out.Status = install.StatusFailed
			if out.Err == nil {
				out.Err = err
			}
			o.logger.Warn("step failed", "step", out.Step, "err", err)
		} else {
			o.logger.Info("step finished", "step", out.Step, "status", out.Status)
		}
		r.Outcomes = append(r.Outcomes, out)
		o.observers.stepFinished(out, o.now().Sub(started))
	}
	r.FinishedAt = o.now()

	if o.recorder != nil {
		if err := o.recorder.Record(context.WithoutCancel(ctx), r); err != nil {
			o.logger.Warn("record run", "run", r.RunID, "err", err)
		}
	}
	o.observers.runFinished(r)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	return r, nil
}
