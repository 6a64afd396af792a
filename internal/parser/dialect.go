package parser

import (
	"strings"

	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/workspace"
)

// Version is the AUTOSAR schema generation a parser reads.
type Version = workspace.Version

const (
	V3 = workspace.V3
	V4 = workspace.V4
)

// phase orders package elements so that references resolve regardless of
// document order: declarations first, then component types, then behaviors.
type phase int

const (
	phaseDeclarations phase = iota
	phaseComponents
	phaseBehaviors
	phaseCount
)

func (p phase) String() string {
	switch p {
	case phaseDeclarations:
		return "declarations"
	case phaseComponents:
		return "components"
	case phaseBehaviors:
		return "behaviors"
	}
	return "unknown"
}

// elementFunc builds one package element. Elements that are owned elsewhere
// (AUTOSAR 3 internal behaviors attach to their component by reference) still
// return the entity so it keeps its slot in the package.
type elementFunc func(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error)

// elementHandler binds a package element tag to a phase. A nil parse marks a
// recognized element that is intentionally not modeled.
type elementHandler struct {
	phase phase
	parse elementFunc
}

var ignored = elementHandler{phase: phaseDeclarations}

// comSpecKind selects the derivation rule for a comspec tag.
type comSpecKind int

const (
	comSpecData comSpecKind = iota
	comSpecOperation
	comSpecModeSwitch
)

// eventFunc builds one event of an internal behavior.
type eventFunc func(p *Parser, b *model.InternalBehavior, e *etree.Element) (model.Event, error)

// dialect holds the tag tables of one schema generation.
type dialect struct {
	version     Version
	packageList string
	subPackages string

	elements       map[string]elementHandler
	componentTypes map[string]model.Kind
	requireComSpec map[string]comSpecKind
	provideComSpec map[string]comSpecKind
	events         map[string]eventFunc

	pkg         shape
	component   shape
	composition shape
	behavior    shape
	runnable    shape
}

var dialects = map[Version]*dialect{
	V3: {
		version:     V3,
		packageList: "TOP-LEVEL-PACKAGES",
		subPackages: "SUB-PACKAGES",
		elements: map[string]elementHandler{
			"INTEGER-TYPE":                         {phaseDeclarations, parseDataType},
			"REAL-TYPE":                            {phaseDeclarations, parseDataType},
			"BOOLEAN-TYPE":                         {phaseDeclarations, parseDataType},
			"STRING-TYPE":                          {phaseDeclarations, parseDataType},
			"CHAR-TYPE":                            {phaseDeclarations, parseDataType},
			"OPAQUE-TYPE":                          {phaseDeclarations, parseDataType},
			"ARRAY-TYPE":                           {phaseDeclarations, parseDataType},
			"RECORD-TYPE":                          {phaseDeclarations, parseDataType},
			"CONSTANT-SPECIFICATION":               {phaseDeclarations, parseConstant},
			"SENDER-RECEIVER-INTERFACE":            {phaseDeclarations, parseSenderReceiverInterface},
			"CLIENT-SERVER-INTERFACE":              {phaseDeclarations, parseClientServerInterface},
			"MODE-DECLARATION-GROUP":               {phaseDeclarations, parseModeDeclarationGroup},
			"APPLICATION-SOFTWARE-COMPONENT-TYPE":  {phaseComponents, parseComponentType},
			"COMPLEX-DEVICE-DRIVER-COMPONENT-TYPE": {phaseComponents, parseComponentType},
			"COMPOSITION-TYPE":                     {phaseComponents, parseCompositionType},
			"INTERNAL-BEHAVIOR":                    {phaseBehaviors, parseInternalBehaviorV3},
			"SWC-IMPLEMENTATION":                   {phaseBehaviors, parseSwcImplementation},
			"CALPRM-INTERFACE":                     ignored,
			"COMPU-METHOD":                         ignored,
			"UNIT":                                 ignored,
			"DATA-CONSTRAINT":                      ignored,
			"SW-ADDR-METHOD":                       ignored,
			"SYSTEM":                               ignored,
			"ECU-INSTANCE":                         ignored,
		},
		componentTypes: map[string]model.Kind{
			"APPLICATION-SOFTWARE-COMPONENT-TYPE":  model.KindApplicationComponent,
			"COMPLEX-DEVICE-DRIVER-COMPONENT-TYPE": model.KindCDDComponent,
		},
		requireComSpec: map[string]comSpecKind{
			"UNQUEUED-RECEIVER-COM-SPEC": comSpecData,
			"QUEUED-RECEIVER-COM-SPEC":   comSpecData,
			"CLIENT-COM-SPEC":            comSpecOperation,
		},
		provideComSpec: map[string]comSpecKind{
			"UNQUEUED-SENDER-COM-SPEC": comSpecData,
			"QUEUED-SENDER-COM-SPEC":   comSpecData,
			"SERVER-COM-SPEC":          comSpecOperation,
		},
		events: map[string]eventFunc{
			"MODE-SWITCH-EVENT":       parseModeSwitchEvent,
			"TIMING-EVENT":            parseTimingEvent,
			"DATA-RECEIVED-EVENT":     parseDataReceivedEvent,
			"OPERATION-INVOKED-EVENT": parseOperationInvokedEvent,
		},
		pkg:         newShape("SHORT-NAME", "ELEMENTS", "SUB-PACKAGES"),
		component:   newShape("SHORT-NAME", "PORTS"),
		composition: newShape("SHORT-NAME", "PORTS", "COMPONENTS", "CONNECTORS"),
		behavior: newShape("SHORT-NAME", "COMPONENT-REF", "SUPPORTS-MULTIPLE-INSTANTIATION",
			"EVENTS", "PORT-API-OPTIONS", "RUNNABLES", "PER-INSTANCE-MEMORYS", "SERVICE-NEEDSS",
			"SHARED-CALPRMS", "EXCLUSIVE-AREAS"),
		runnable: newShape("SHORT-NAME", "CAN-BE-INVOKED-CONCURRENTLY", "DATA-RECEIVE-POINTS",
			"DATA-SEND-POINTS", "SERVER-CALL-POINTS", "SYMBOL", "CAN-ENTER-EXCLUSIVE-AREA-REFS"),
	},
	V4: {
		version:     V4,
		packageList: "AR-PACKAGES",
		subPackages: "AR-PACKAGES",
		elements: map[string]elementHandler{
			"APPLICATION-PRIMITIVE-DATA-TYPE":         {phaseDeclarations, parseDataType},
			"APPLICATION-ARRAY-DATA-TYPE":             {phaseDeclarations, parseDataType},
			"APPLICATION-RECORD-DATA-TYPE":            {phaseDeclarations, parseDataType},
			"IMPLEMENTATION-DATA-TYPE":                {phaseDeclarations, parseDataType},
			"SW-BASE-TYPE":                            {phaseDeclarations, parseDataType},
			"CONSTANT-SPECIFICATION":                  {phaseDeclarations, parseConstant},
			"SENDER-RECEIVER-INTERFACE":               {phaseDeclarations, parseSenderReceiverInterface},
			"CLIENT-SERVER-INTERFACE":                 {phaseDeclarations, parseClientServerInterface},
			"MODE-SWITCH-INTERFACE":                   {phaseDeclarations, parseModeSwitchInterface},
			"MODE-DECLARATION-GROUP":                  {phaseDeclarations, parseModeDeclarationGroup},
			"APPLICATION-SW-COMPONENT-TYPE":           {phaseComponents, parseComponentType},
			"COMPLEX-DEVICE-DRIVER-SW-COMPONENT-TYPE": {phaseComponents, parseComponentType},
			"COMPOSITION-SW-COMPONENT-TYPE":           {phaseComponents, parseCompositionType},
			"SWC-IMPLEMENTATION":                      {phaseBehaviors, parseSwcImplementation},
			"DATA-TYPE-MAPPING-SET":                   ignored,
			"PORT-INTERFACE-MAPPING-SET":              ignored,
			"PARAMETER-INTERFACE":                     ignored,
			"NV-DATA-INTERFACE":                       ignored,
			"COMPU-METHOD":                            ignored,
			"UNIT":                                    ignored,
			"DATA-CONSTR":                             ignored,
			"SW-ADDR-METHOD":                          ignored,
			"SYSTEM":                                  ignored,
			"ECU-INSTANCE":                            ignored,
		},
		componentTypes: map[string]model.Kind{
			"APPLICATION-SW-COMPONENT-TYPE":           model.KindApplicationComponent,
			"COMPLEX-DEVICE-DRIVER-SW-COMPONENT-TYPE": model.KindCDDComponent,
		},
		requireComSpec: map[string]comSpecKind{
			"NONQUEUED-RECEIVER-COM-SPEC":   comSpecData,
			"QUEUED-RECEIVER-COM-SPEC":      comSpecData,
			"CLIENT-COM-SPEC":               comSpecOperation,
			"MODE-SWITCH-RECEIVER-COM-SPEC": comSpecModeSwitch,
		},
		provideComSpec: map[string]comSpecKind{
			"NONQUEUED-SENDER-COM-SPEC":   comSpecData,
			"QUEUED-SENDER-COM-SPEC":      comSpecData,
			"SERVER-COM-SPEC":             comSpecOperation,
			"MODE-SWITCH-SENDER-COM-SPEC": comSpecModeSwitch,
		},
		events: map[string]eventFunc{
			"INIT-EVENT":              parseInitEvent,
			"SWC-MODE-SWITCH-EVENT":   parseModeSwitchEvent,
			"TIMING-EVENT":            parseTimingEvent,
			"DATA-RECEIVED-EVENT":     parseDataReceivedEvent,
			"OPERATION-INVOKED-EVENT": parseOperationInvokedEvent,
		},
		pkg:         newShape("SHORT-NAME", "ELEMENTS", "AR-PACKAGES", "REFERENCE-BASES"),
		component:   newShape("SHORT-NAME", "PORTS", "INTERNAL-BEHAVIORS", "SYMBOL-PROPS"),
		composition: newShape("SHORT-NAME", "PORTS", "COMPONENTS", "CONNECTORS", "DATA-TYPE-MAPPING-REFS"),
		behavior: newShape("SHORT-NAME", "SUPPORTS-MULTIPLE-INSTANTIATION", "DATA-TYPE-MAPPING-REFS",
			"EVENTS", "PORT-API-OPTIONS", "RUNNABLES", "EXCLUSIVE-AREAS", "PER-INSTANCE-MEMORYS",
			"SHARED-PARAMETERS", "HANDLE-TERMINATION-AND-RESTART", "SERVICE-DEPENDENCYS"),
		runnable: newShape("SHORT-NAME", "CAN-BE-INVOKED-CONCURRENTLY", "MODE-ACCESS-POINTS",
			"DATA-RECEIVE-POINT-BY-ARGUMENTS", "DATA-RECEIVE-POINT-BY-VALUES", "DATA-READ-ACCESSS",
			"DATA-SEND-POINTS", "DATA-WRITE-ACCESSS", "SERVER-CALL-POINTS", "SYMBOL",
			"CAN-ENTER-EXCLUSIVE-AREA-REFS", "MINIMUM-START-INTERVAL"),
	},
}

func dialectFor(v Version) (*dialect, error) {
	d, ok := dialects[v]
	if !ok {
		return nil, arerrors.NewModelError(arerrors.UnsupportedConstruct,
			"unsupported AUTOSAR version "+v.String(), nil)
	}
	return d, nil
}

// DetectVersion reads the schema generation from the AUTOSAR root namespace.
func DetectVersion(doc *etree.Document) (Version, error) {
	root := doc.Root()
	if root == nil || root.Tag != "AUTOSAR" {
		return 0, arerrors.Structural("document root is not <AUTOSAR>")
	}
	ns := root.SelectAttrValue("xmlns", "")
	switch {
	case strings.HasPrefix(ns, "http://autosar.org/3."):
		return V3, nil
	case strings.HasPrefix(ns, "http://autosar.org/schema/r4.0"):
		return V4, nil
	}
	return 0, arerrors.NewModelError(arerrors.UnsupportedConstruct,
		"unrecognized AUTOSAR namespace "+ns, nil).AtTag("AUTOSAR")
}
