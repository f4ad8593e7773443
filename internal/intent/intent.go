// Package intent classifies advisor questions into a closed set of intents.
package intent

import "encoding/json"

// Kind names an intent.
type Kind string

const (
	KindSchedule    Kind = "schedule"
	KindModulesList Kind = "modules_list"
	KindModuleInfo  Kind = "module_info"
	KindGeneral     Kind = "general"
)

// Result is the classified intent of a query. The concrete type is one of
// Schedule, ModulesList, ModuleInfo or General.
type Result interface {
	Kind() Kind
	// Accept calls the visitor method matching the concrete type.
	Accept(v Visitor) error
}

// Visitor handles every intent. Adding an intent adds a method here, so
// every consumer fails to compile until it handles the new case.
type Visitor interface {
	VisitSchedule(Schedule) error
	VisitModulesList(ModulesList) error
	VisitModuleInfo(ModuleInfo) error
	VisitGeneral(General) error
}

// Schedule asks when or where classes take place.
type Schedule struct {
	Criteria
}

// ModulesList asks which modules belong to a semester or term.
type ModulesList struct {
	Criteria
}

// ModuleInfo asks about one module's content, credits or prerequisites.
type ModuleInfo struct {
	Criteria
}

// General is anything else.
type General struct{}

func (Schedule) Kind() Kind    { return KindSchedule }
func (ModulesList) Kind() Kind { return KindModulesList }
func (ModuleInfo) Kind() Kind  { return KindModuleInfo }
func (General) Kind() Kind     { return KindGeneral }

func (r Schedule) Accept(v Visitor) error    { return v.VisitSchedule(r) }
func (r ModulesList) Accept(v Visitor) error { return v.VisitModulesList(r) }
func (r ModuleInfo) Accept(v Visitor) error  { return v.VisitModuleInfo(r) }
func (r General) Accept(v Visitor) error     { return v.VisitGeneral(r) }

type tagged struct {
	Kind Kind `json:"kind"`
	Criteria
}

func (r Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(tagged{KindSchedule, r.Criteria})
}

func (r ModulesList) MarshalJSON() ([]byte, error) {
	return json.Marshal(tagged{KindModulesList, r.Criteria})
}

func (r ModuleInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(tagged{KindModuleInfo, r.Criteria})
}

func (r General) MarshalJSON() ([]byte, error) {
	return json.Marshal(tagged{Kind: KindGeneral})
}
