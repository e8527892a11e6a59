package wire

import (
	"time"

	"muzzman/internal/ids"
	"muzzman/internal/value"
)

// Service is the RPC receiver name registered by the daemon.
const Service = "Muzzman"

const (
	MethodPing            = Service + ".Ping"
	MethodDefaultLocation = Service + ".DefaultLocation"
	MethodModulesLen      = Service + ".ModulesLen"
	MethodModules         = Service + ".Modules"
	MethodLoadModule      = Service + ".LoadModule"
	MethodLookup          = Service + ".Lookup"
	MethodGet             = Service + ".Get"
	MethodSet             = Service + ".Set"
	MethodChildren        = Service + ".Children"
	MethodElements        = Service + ".Elements"
	MethodCreateElement   = Service + ".CreateElement"
	MethodCreateLocation  = Service + ".CreateLocation"
	MethodGetData         = Service + ".GetData"
	MethodSetData         = Service + ".SetData"
	MethodInfo            = Service + ".Info"
	MethodSetEnabled      = Service + ".SetEnabled"
	MethodResolvModule    = Service + ".ResolvModule"
	MethodInit            = Service + ".Init"
	MethodDestroy         = Service + ".Destroy"
)

// Target selects the object family a generic call addresses.
type Target string

const (
	TargetModule   Target = "module"
	TargetLocation Target = "location"
	TargetElement  Target = "element"
)

// Field names a scalar attribute reachable through Get/Set.
type Field string

const (
	FieldName         Field = "name"
	FieldDesc         Field = "desc"
	FieldDefaultName  Field = "default_name"
	FieldDefaultDesc  Field = "default_desc"
	FieldProxy        Field = "proxy"
	FieldPath         Field = "path"
	FieldShouldSave   Field = "should_save"
	FieldMeta         Field = "meta"
	FieldEnabled      Field = "enabled"
	FieldProgress     Field = "progress"
	FieldStatusMsg    Field = "status_msg"
	FieldLocationsLen Field = "locations_len"
	FieldElementsLen  Field = "elements_len"
)

// Store selects one of an element's data stores.
type Store string

const (
	StoreElement Store = "element"
	StoreModule  Store = "module"
	StoreOutput  Store = "output"
)

type Empty struct{}

type PingRequest struct{}

type PingReply struct {
	PID     int    `json:"pid"`
	Version string `json:"version"`
}

type RangeRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type LenReply struct {
	Len int `json:"len"`
}

type ModulesReply struct {
	IDs []ids.ModuleID `json:"ids"`
}

type LoadModuleRequest struct {
	Path string `json:"path"`
}

type ModuleReply struct {
	ID ids.ModuleID `json:"id"`
}

type LocationReply struct {
	ID ids.LocationID `json:"id"`
}

// LookupRequest asks whether ID names a live object of Target.
type LookupRequest struct {
	Target Target `json:"target"`
	ID     string `json:"id"`
}

type GetRequest struct {
	Target Target `json:"target"`
	ID     string `json:"id"`
	Field  Field  `json:"field"`
}

type GetReply struct {
	Value value.Type `json:"value"`
}

type SetRequest struct {
	Target Target     `json:"target"`
	ID     string     `json:"id"`
	Field  Field      `json:"field"`
	Value  value.Type `json:"value"`
}

// LocationRangeRequest pages through a location's children or elements.
type LocationRangeRequest struct {
	ID    ids.LocationID `json:"id"`
	Start int            `json:"start"`
	End   int            `json:"end"`
}

type ChildrenReply struct {
	IDs []ids.LocationID `json:"ids"`
}

type ElementsReply struct {
	IDs []ids.ElementID `json:"ids"`
}

type CreateElementRequest struct {
	Location ids.LocationID `json:"location"`
	Name     string         `json:"name"`
}

// CreateLocationRequest adds a child named Name under Parent.
type CreateLocationRequest struct {
	Parent ids.LocationID `json:"parent"`
	Name   string         `json:"name"`
}

type ElementReply struct {
	ID ids.ElementID `json:"id"`
}

type ElementRequest struct {
	ID ids.ElementID `json:"id"`
}

type DataRequest struct {
	ID    ids.ElementID `json:"id"`
	Store Store         `json:"store"`
}

type DataReply struct {
	Data value.Data `json:"data"`
}

type SetDataRequest struct {
	ID    ids.ElementID `json:"id"`
	Store Store         `json:"store"`
	Data  value.Data    `json:"data"`
}

// EnableOptions carries run-scoped settings handed to the module when an
// element is enabled. They are not persisted.
type EnableOptions struct {
	Data value.Data `json:"data"`
}

type SetEnabledRequest struct {
	ID      ids.ElementID  `json:"id"`
	Enabled bool           `json:"enabled"`
	Options *EnableOptions `json:"options,omitempty"`
}

type BoolReply struct {
	OK bool `json:"ok"`
}

// ElementInfo is the daemon's derived view of an element's lifecycle.
type ElementInfo struct {
	ID          ids.ElementID  `json:"id"`
	Location    ids.LocationID `json:"location"`
	Module      *ids.ModuleID  `json:"module,omitempty"`
	Initialized bool           `json:"initialized"`
	Enabled     bool           `json:"enabled"`
	CreatedAt   time.Time      `json:"created_at"`
}

type InfoReply struct {
	Info ElementInfo `json:"info"`
}
