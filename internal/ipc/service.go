package ipc

import (
	"context"
	"errors"
	"log/slog"

	"muzzman/internal/daemon"
	"muzzman/internal/failure"
	"muzzman/internal/logging"
	"muzzman/internal/wire"
)

// service is the RPC receiver. Every error leaves through remote so the
// client can recover its classification.
type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) remote(method string, err error) error {
	if err == nil {
		return nil
	}
	s.logger.Debug("rpc call failed",
		logging.String("method", method),
		logging.String("code", string(failure.CodeOf(err))),
		logging.Error(err))
	return errors.New(failure.Encode(err))
}

func (s *service) Ping(_ wire.PingRequest, resp *wire.PingReply) error {
	resp.PID, resp.Version = s.daemon.Ping()
	return nil
}

func (s *service) DefaultLocation(_ wire.Empty, resp *wire.LocationReply) error {
	id, err := s.daemon.DefaultLocation()
	if err != nil {
		return s.remote(wire.MethodDefaultLocation, err)
	}
	resp.ID = id
	return nil
}

func (s *service) ModulesLen(_ wire.Empty, resp *wire.LenReply) error {
	resp.Len = s.daemon.ModulesLen()
	return nil
}

func (s *service) Modules(req wire.RangeRequest, resp *wire.ModulesReply) error {
	list, err := s.daemon.Modules(req.Start, req.End)
	if err != nil {
		return s.remote(wire.MethodModules, err)
	}
	resp.IDs = list
	return nil
}

func (s *service) LoadModule(req wire.LoadModuleRequest, resp *wire.ModuleReply) error {
	id, err := s.daemon.LoadModule(s.ctx, req.Path)
	if err != nil {
		return s.remote(wire.MethodLoadModule, err)
	}
	resp.ID = id
	return nil
}

func (s *service) Lookup(req wire.LookupRequest, _ *wire.Empty) error {
	return s.remote(wire.MethodLookup, s.daemon.Lookup(req.Target, req.ID))
}

func (s *service) Get(req wire.GetRequest, resp *wire.GetReply) error {
	v, err := s.daemon.Get(req.Target, req.ID, req.Field)
	if err != nil {
		return s.remote(wire.MethodGet, err)
	}
	resp.Value = v
	return nil
}

func (s *service) Set(req wire.SetRequest, _ *wire.Empty) error {
	return s.remote(wire.MethodSet, s.daemon.Set(s.ctx, req.Target, req.ID, req.Field, req.Value))
}

func (s *service) Children(req wire.LocationRangeRequest, resp *wire.ChildrenReply) error {
	list, err := s.daemon.Children(req.ID, req.Start, req.End)
	if err != nil {
		return s.remote(wire.MethodChildren, err)
	}
	resp.IDs = list
	return nil
}

func (s *service) Elements(req wire.LocationRangeRequest, resp *wire.ElementsReply) error {
	list, err := s.daemon.Elements(req.ID, req.Start, req.End)
	if err != nil {
		return s.remote(wire.MethodElements, err)
	}
	resp.IDs = list
	return nil
}

func (s *service) CreateElement(req wire.CreateElementRequest, resp *wire.ElementReply) error {
	id, err := s.daemon.CreateElement(s.ctx, req.Location, req.Name)
	if err != nil {
		return s.remote(wire.MethodCreateElement, err)
	}
	resp.ID = id
	return nil
}

func (s *service) CreateLocation(req wire.CreateLocationRequest, resp *wire.LocationReply) error {
	id, err := s.daemon.CreateLocation(s.ctx, req.Parent, req.Name)
	if err != nil {
		return s.remote(wire.MethodCreateLocation, err)
	}
	resp.ID = id
	return nil
}

func (s *service) GetData(req wire.DataRequest, resp *wire.DataReply) error {
	data, err := s.daemon.GetData(req.ID, req.Store)
	if err != nil {
		return s.remote(wire.MethodGetData, err)
	}
	resp.Data = data
	return nil
}

func (s *service) SetData(req wire.SetDataRequest, _ *wire.Empty) error {
	return s.remote(wire.MethodSetData, s.daemon.SetData(s.ctx, req.ID, req.Store, req.Data))
}

func (s *service) Info(req wire.ElementRequest, resp *wire.InfoReply) error {
	info, err := s.daemon.Info(req.ID)
	if err != nil {
		return s.remote(wire.MethodInfo, err)
	}
	resp.Info = info
	return nil
}

func (s *service) SetEnabled(req wire.SetEnabledRequest, _ *wire.Empty) error {
	return s.remote(wire.MethodSetEnabled, s.daemon.SetEnabled(s.ctx, req.ID, req.Enabled, req.Options))
}

func (s *service) ResolvModule(req wire.ElementRequest, resp *wire.BoolReply) error {
	ok, err := s.daemon.ResolvModule(s.ctx, req.ID)
	if err != nil {
		return s.remote(wire.MethodResolvModule, err)
	}
	resp.OK = ok
	return nil
}

func (s *service) Init(req wire.ElementRequest, _ *wire.Empty) error {
	return s.remote(wire.MethodInit, s.daemon.Init(s.ctx, req.ID))
}

func (s *service) Destroy(req wire.ElementRequest, _ *wire.Empty) error {
	return s.remote(wire.MethodDestroy, s.daemon.Destroy(s.ctx, req.ID))
}
