package parser

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
	"autosar/internal/workspace"
)

func loadFixture(t *testing.T, name string, opts ...Option) *workspace.Workspace {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filepath.Join("testdata", name)); err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	ws, err := build(doc, opts...)
	if err != nil {
		t.Fatalf("building %s: %v", name, err)
	}
	return ws
}

func build(doc *etree.Document, opts ...Option) (*workspace.Workspace, error) {
	v, err := DetectVersion(doc)
	if err != nil {
		return nil, err
	}
	ws := workspace.New(v)
	p, err := New(ws, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.ParseDocument(doc); err != nil {
		return nil, err
	}
	return ws, p.Build(context.Background())
}

func buildString(t *testing.T, xml string, opts ...Option) (*workspace.Workspace, error) {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("reading document: %v", err)
	}
	return build(doc, opts...)
}

// v3Doc wraps elements in a package Pkg that already declares the sensor
// interfaces, types and constants.
func v3Doc(elements string) string {
	return `<AUTOSAR xmlns="http://autosar.org/3.1.4"><TOP-LEVEL-PACKAGES><AR-PACKAGE>
<SHORT-NAME>Pkg</SHORT-NAME><ELEMENTS>
<INTEGER-TYPE><SHORT-NAME>T1</SHORT-NAME></INTEGER-TYPE>
<BOOLEAN-TYPE><SHORT-NAME>T2</SHORT-NAME></BOOLEAN-TYPE>
<CONSTANT-SPECIFICATION><SHORT-NAME>C_T1</SHORT-NAME><VALUE><INTEGER-LITERAL>
<SHORT-NAME>C_T1</SHORT-NAME><TYPE-TREF>/Pkg/T1</TYPE-TREF><VALUE>0</VALUE></INTEGER-LITERAL></VALUE></CONSTANT-SPECIFICATION>
<CONSTANT-SPECIFICATION><SHORT-NAME>C_T2</SHORT-NAME><VALUE><BOOLEAN-LITERAL>
<SHORT-NAME>C_T2</SHORT-NAME><TYPE-TREF>/Pkg/T2</TYPE-TREF><VALUE>false</VALUE></BOOLEAN-LITERAL></VALUE></CONSTANT-SPECIFICATION>
<SENDER-RECEIVER-INTERFACE><SHORT-NAME>ISensorValue</SHORT-NAME><DATA-ELEMENTS>
<DATA-ELEMENT-PROTOTYPE><SHORT-NAME>Value</SHORT-NAME><TYPE-TREF>/Pkg/T1</TYPE-TREF></DATA-ELEMENT-PROTOTYPE>
<DATA-ELEMENT-PROTOTYPE><SHORT-NAME>Status</SHORT-NAME><TYPE-TREF>/Pkg/T2</TYPE-TREF></DATA-ELEMENT-PROTOTYPE>
</DATA-ELEMENTS></SENDER-RECEIVER-INTERFACE>
<CLIENT-SERVER-INTERFACE><SHORT-NAME>ICalc</SHORT-NAME><OPERATIONS>
<OPERATION-PROTOTYPE><SHORT-NAME>Add</SHORT-NAME></OPERATION-PROTOTYPE>
</OPERATIONS></CLIENT-SERVER-INTERFACE>
` + elements + `
</ELEMENTS></AR-PACKAGE></TOP-LEVEL-PACKAGES></AUTOSAR>`
}

// v3Swc declares component Swc with the given ports.
func v3Swc(ports string) string {
	return `<APPLICATION-SOFTWARE-COMPONENT-TYPE><SHORT-NAME>Swc</SHORT-NAME><PORTS>` + ports +
		`</PORTS></APPLICATION-SOFTWARE-COMPONENT-TYPE>`
}

func rPort(name, iface, comspec string) string {
	return `<R-PORT-PROTOTYPE><SHORT-NAME>` + name + `</SHORT-NAME><REQUIRED-COM-SPECS>` + comspec +
		`</REQUIRED-COM-SPECS><REQUIRED-INTERFACE-TREF>` + iface + `</REQUIRED-INTERFACE-TREF></R-PORT-PROTOTYPE>`
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name     string
		xml      string
		want     Version
		wantCode arerrors.ErrorCode
	}{
		{"autosar 3", `<AUTOSAR xmlns="http://autosar.org/3.1.4"/>`, V3, ""},
		{"autosar 4", `<AUTOSAR xmlns="http://autosar.org/schema/r4.0"/>`, V4, ""},
		{"unknown generation", `<AUTOSAR xmlns="http://autosar.org/schema/r5.0"/>`, 0, arerrors.UnsupportedConstruct},
		{"not autosar", `<PROJECT/>`, 0, arerrors.StructuralViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := etree.NewDocument()
			if err := doc.ReadFromString(tt.xml); err != nil {
				t.Fatal(err)
			}
			got, err := DetectVersion(doc)
			if tt.wantCode != "" {
				if arerrors.CodeOf(err) != tt.wantCode {
					t.Fatalf("DetectVersion() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectVersion() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_UnsupportedVersion(t *testing.T) {
	if _, err := New(workspace.New(5)); arerrors.CodeOf(err) != arerrors.UnsupportedConstruct {
		t.Errorf("New() error = %v, want UNSUPPORTED_CONSTRUCT", err)
	}
}

func TestParseV3Fixture(t *testing.T) {
	ws := loadFixture(t, "sensor_v3.arxml")

	pkg, err := workspace.ResolveAs[*model.Package](ws, "/Pkg")
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, e := range pkg.Elements {
		order = append(order, e.Name())
	}
	wantOrder := "T1,T2,C_T1,ISensorValue,ICalc,Sensor,Calculator,Top,SensorBehavior,SensorImpl"
	if got := strings.Join(order, ","); got != wantOrder {
		t.Errorf("package elements = %s, want %s", got, wantOrder)
	}

	t.Run("receiver comspec defaults to first data element", func(t *testing.T) {
		port, err := workspace.ResolveAs[*model.Port](ws, "/Pkg/Sensor/RPort")
		if err != nil {
			t.Fatal(err)
		}
		if len(port.ComSpecs) != 1 {
			t.Fatalf("len(ComSpecs) = %d, want 1", len(port.ComSpecs))
		}
		cs, ok := port.ComSpecs[0].(*model.DataElementComSpec)
		if !ok {
			t.Fatalf("ComSpecs[0] is %T", port.ComSpecs[0])
		}
		if cs.Name != "Value" {
			t.Errorf("Name = %q, want Value", cs.Name)
		}
		if cs.InitValueRef != "/Pkg/C_T1" {
			t.Errorf("InitValueRef = %q", cs.InitValueRef)
		}
		if v, ok := cs.AliveTimeout(); !ok || v != 5 {
			t.Errorf("AliveTimeout() = %d, %v, want 5, true", v, ok)
		}
	})

	t.Run("operation comspecs", func(t *testing.T) {
		server, err := workspace.ResolveAs[*model.Port](ws, "/Pkg/Calculator/Server")
		if err != nil {
			t.Fatal(err)
		}
		cs := server.ComSpecs[0].(*model.OperationComSpec)
		if cs.Name != "Add" {
			t.Errorf("Name = %q, want Add", cs.Name)
		}
		if v, ok := cs.QueueLength(); !ok || v != 2 {
			t.Errorf("QueueLength() = %d, %v, want 2, true", v, ok)
		}
	})

	t.Run("composition connectors", func(t *testing.T) {
		top, err := workspace.ResolveAs[*model.CompositionType](ws, "/Pkg/Top")
		if err != nil {
			t.Fatal(err)
		}
		if len(top.Components) != 2 || len(top.AssemblyConnectors) != 1 || len(top.DelegationConnectors) != 1 {
			t.Fatalf("composition has %d components, %d assemblies, %d delegations",
				len(top.Components), len(top.AssemblyConnectors), len(top.DelegationConnectors))
		}
		asm := top.AssemblyConnectors[0]
		if asm.Provider.ProvidePortRef != "/Pkg/Calculator/Server" || asm.Requester.ComponentRef != "/Pkg/Top/SensorProto" {
			t.Errorf("assembly = %+v", asm)
		}
		if got := top.DelegationConnectors[0].OuterPortRef; got != "/Pkg/Top/RPort" {
			t.Errorf("OuterPortRef = %q", got)
		}
	})

	t.Run("behavior", func(t *testing.T) {
		b, ok := ws.BehaviorOf("/Pkg/Sensor")
		if !ok {
			t.Fatal("no behavior for /Pkg/Sensor")
		}
		if b.Path() != "/Pkg/SensorBehavior" {
			t.Errorf("behavior path = %q", b.Path())
		}
		if len(b.Events) != 3 {
			t.Fatalf("len(Events) = %d, want 3", len(b.Events))
		}
		tick := b.Event("Tick").(*model.TimingEvent)
		if !approx(tick.PeriodMs, 10) {
			t.Errorf("Tick.PeriodMs = %v, want 10", tick.PeriodMs)
		}
		if got := b.Event("NoPeriod").(*model.TimingEvent).PeriodMs; got != 0 {
			t.Errorf("NoPeriod.PeriodMs = %v, want 0", got)
		}
		recv := b.Event("OnValue").(*model.DataReceivedEvent)
		if recv.DataInstanceRef.DataElementRef != "/Pkg/ISensorValue/Value" {
			t.Errorf("DataElementRef = %q", recv.DataInstanceRef.DataElementRef)
		}
		if len(b.PortAPIOptions) != 1 || !b.PortAPIOptions[0].EnableTakeAddress {
			t.Errorf("PortAPIOptions = %+v", b.PortAPIOptions)
		}

		run := b.Runnable("Run")
		if run == nil {
			t.Fatal("runnable Run missing")
		}
		if run.Symbol != "Sensor_Run" {
			t.Errorf("Symbol = %q", run.Symbol)
		}
		if len(run.DataReceivePoints) != 1 || run.DataReceivePoints[0].PortRef != "/Pkg/Sensor/RPort" {
			t.Errorf("DataReceivePoints = %+v", run.DataReceivePoints)
		}
		if len(run.ServerCallPoints) != 1 {
			t.Fatalf("len(ServerCallPoints) = %d", len(run.ServerCallPoints))
		}
		call := run.ServerCallPoints[0]
		if call.Timeout != 0.5 || len(call.OperationInstanceRefs) != 1 || call.OperationInstanceRefs[0].OperationRef != "/Pkg/ICalc/Add" {
			t.Errorf("server call point = %+v", call)
		}
		if len(run.ExclusiveAreaRefs) != 1 || run.ExclusiveAreaRefs[0] != "/Pkg/SensorBehavior/Lock" {
			t.Errorf("ExclusiveAreaRefs = %v", run.ExclusiveAreaRefs)
		}
		if _, ok := ws.Find("/Pkg/SensorBehavior/Run/ReadValue"); !ok {
			t.Error("data receive point not registered")
		}

		if len(b.NvBlockNeeds) != 1 {
			t.Fatalf("len(NvBlockNeeds) = %d", len(b.NvBlockNeeds))
		}
		nv := b.NvBlockNeeds[0]
		if nv.Reliability != model.ReliabilityErrorDetection || nv.WritingPriority != model.WritingPriorityLow {
			t.Errorf("policy = %+v", nv.NvBlockPolicy)
		}
		if nv.NumberOfDataSets == nil || *nv.NumberOfDataSets != 1 || !nv.RestoreAtStart {
			t.Errorf("policy = %+v", nv.NvBlockPolicy)
		}
		if len(nv.ServiceCallPorts) != 1 || nv.ServiceCallPorts[0].Role != "NvMService" {
			t.Errorf("ServiceCallPorts = %+v", nv.ServiceCallPorts)
		}

		if len(b.SharedCalPrms) != 1 || len(b.SharedCalPrms[0].SwAddrMethodRefs) != 1 {
			t.Fatalf("SharedCalPrms = %+v", b.SharedCalPrms)
		}
		if len(b.PerInstanceMemories) != 1 || b.PerInstanceMemories[0].TypeDefinition != "uint8" {
			t.Errorf("PerInstanceMemories = %+v", b.PerInstanceMemories)
		}
		if b.ExclusiveArea("Lock") == nil {
			t.Error("exclusive area Lock missing")
		}
	})
}

func TestParseV4Fixture(t *testing.T) {
	ws := loadFixture(t, "sensor_v4.arxml")

	pkgs := ws.Packages()
	if len(pkgs) != 2 || pkgs[0].Name() != "Swcs" || pkgs[1].Name() != "Types" {
		t.Fatalf("Packages() = %v", pkgs)
	}

	t.Run("comspecs", func(t *testing.T) {
		port, err := workspace.ResolveAs[*model.Port](ws, "/Swcs/Sensor/RPort")
		if err != nil {
			t.Fatal(err)
		}
		cs := port.ComSpecs[0].(*model.DataElementComSpec)
		if cs.Name != "Value" || cs.InitValueRef != "/Types/C1" {
			t.Errorf("comspec = %+v", cs)
		}
		if c, err := workspace.ResolveAs[*model.Constant](ws, "/Types/C1"); err != nil || !c.Value.Untyped {
			t.Errorf("constant /Types/C1 = %+v, %v, want untyped value", c, err)
		}
		if v, ok := cs.AliveTimeout(); !ok || v != 500 {
			t.Errorf("AliveTimeout() = %d, %v, want 500, true", v, ok)
		}

		out, err := workspace.ResolveAs[*model.Port](ws, "/Swcs/Producer/Out")
		if err != nil {
			t.Fatal(err)
		}
		if got := out.ComSpecs[0].(*model.DataElementComSpec).InitValue; got != "42" {
			t.Errorf("InitValue = %q, want 42", got)
		}

		mode, err := workspace.ResolveAs[*model.Port](ws, "/Swcs/Sensor/Mode")
		if err != nil {
			t.Fatal(err)
		}
		ms, ok := mode.ComSpecs[0].(*model.ModeSwitchComSpec)
		if !ok || ms.Name != "currentMode" {
			t.Errorf("mode switch comspec = %+v", mode.ComSpecs[0])
		}
	})

	t.Run("nested behavior", func(t *testing.T) {
		swc, err := workspace.ResolveAs[*model.ComponentType](ws, "/Swcs/Sensor")
		if err != nil {
			t.Fatal(err)
		}
		b := swc.Behavior
		if b == nil {
			t.Fatal("component has no behavior")
		}
		if b.Path() != "/Swcs/Sensor/SensorBehavior" || b.ComponentRef != "/Swcs/Sensor" {
			t.Errorf("behavior path %q, component %q", b.Path(), b.ComponentRef)
		}
		if got, _ := ws.BehaviorOf("/Swcs/Sensor"); got != b {
			t.Error("BehaviorOf() does not return the nested behavior")
		}
		if len(b.DataTypeMappingRefs) != 1 || b.DataTypeMappingRefs[0] != "/Types/Mappings" {
			t.Errorf("DataTypeMappingRefs = %v", b.DataTypeMappingRefs)
		}

		if _, ok := b.Event("Init").(*model.InitEvent); !ok {
			t.Error("Init is not an init event")
		}
		onRun := b.Event("OnRun").(*model.ModeSwitchEvent)
		if onRun.Activation != model.ActivationEntry || len(onRun.ModeInstanceRefs) != 1 {
			t.Errorf("OnRun = %+v", onRun)
		}
		if onRun.ModeInstanceRefs[0].ModeDeclarationRef != "/Types/EcuModes/RUN" {
			t.Errorf("mode ref = %+v", onRun.ModeInstanceRefs[0])
		}
		tick := b.Event("Tick").(*model.TimingEvent)
		if !approx(tick.PeriodMs, 10) {
			t.Errorf("PeriodMs = %v, want 10", tick.PeriodMs)
		}
		dep := tick.ModeDependency()
		if dep == nil || !dep.Disabled || len(dep.ModeInstanceRefs) != 1 {
			t.Errorf("ModeDependency() = %+v", dep)
		}

		run := b.Runnable("Run")
		if run == nil {
			t.Fatal("runnable Run missing")
		}
		if !run.CanBeInvokedConcurrently {
			t.Error("CanBeInvokedConcurrently = false")
		}
		if run.MinimumStartInterval == nil || !approx(*run.MinimumStartInterval, 2) {
			t.Errorf("MinimumStartInterval = %v, want 2", run.MinimumStartInterval)
		}
		if len(run.DataReceivePoints) != 1 || run.DataReceivePoints[0].DataElementRef != "/Types/ISensorValue/Value" {
			t.Errorf("DataReceivePoints = %+v", run.DataReceivePoints)
		}
		if len(run.ModeAccessPoints) != 1 || run.ModeAccessPoints[0].ModeGroupRef != "/Types/IEcuMode/currentMode" {
			t.Errorf("ModeAccessPoints = %+v", run.ModeAccessPoints)
		}
		if len(run.ServerCallPoints) != 1 || run.ServerCallPoints[0].OperationInstanceRefs[0].PortRef != "/Swcs/Sensor/Calc" {
			t.Errorf("ServerCallPoints = %+v", run.ServerCallPoints)
		}
		if len(b.SharedCalPrms) != 1 || b.SharedCalPrms[0].SwAddrMethodRefs[0] != "/Types/CalibRam" {
			t.Errorf("SharedCalPrms = %+v", b.SharedCalPrms)
		}
	})

	t.Run("delegation", func(t *testing.T) {
		top, err := workspace.ResolveAs[*model.CompositionType](ws, "/Swcs/Top")
		if err != nil {
			t.Fatal(err)
		}
		d := top.DelegationConnectors[0]
		if d.InnerPort.PortRef != "/Swcs/Producer/Out" || d.OuterPortRef != "/Swcs/Top/Out" {
			t.Errorf("delegation = %+v", d)
		}
	})

	t.Run("implementation", func(t *testing.T) {
		impl, err := workspace.ResolveAs[*model.SwcImplementation](ws, "/Swcs/SensorImpl")
		if err != nil {
			t.Fatal(err)
		}
		if impl.BehaviorRef != "/Swcs/Sensor/SensorBehavior" || impl.SwVersion != "1.0.0" {
			t.Errorf("implementation = %+v", impl)
		}
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		elements string
		opts     []Option
		wantCode arerrors.ErrorCode
		wantPath string
		wantMsg  string
	}{
		{
			name: "unknown data element",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue",
				`<UNQUEUED-RECEIVER-COM-SPEC><DATA-ELEMENT-REF>/Pkg/ISensorValue/Missing</DATA-ELEMENT-REF></UNQUEUED-RECEIVER-COM-SPEC>`)),
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/Swc/RPort",
		},
		{
			name: "data element of another interface",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue",
				`<UNQUEUED-RECEIVER-COM-SPEC><DATA-ELEMENT-REF>/Pkg/Other/Value</DATA-ELEMENT-REF></UNQUEUED-RECEIVER-COM-SPEC>`)),
			wantCode: arerrors.UnknownElement,
		},
		{
			name: "init value of another type",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue",
				`<UNQUEUED-RECEIVER-COM-SPEC><INIT-VALUE-REF>/Pkg/C_T2</INIT-VALUE-REF></UNQUEUED-RECEIVER-COM-SPEC>`)),
			wantCode: arerrors.TypeIncompatible,
			wantMsg:  "expected '/Pkg/T1', found '/Pkg/T2'",
		},
		{
			name: "init value literal without type",
			elements: `<CONSTANT-SPECIFICATION><SHORT-NAME>C_NoType</SHORT-NAME><VALUE><BOOLEAN-LITERAL>
<SHORT-NAME>C_NoType</SHORT-NAME><VALUE>false</VALUE></BOOLEAN-LITERAL></VALUE></CONSTANT-SPECIFICATION>` +
				v3Swc(rPort("RPort", "/Pkg/ISensorValue",
					`<UNQUEUED-RECEIVER-COM-SPEC><INIT-VALUE-REF>/Pkg/C_NoType</INIT-VALUE-REF></UNQUEUED-RECEIVER-COM-SPEC>`)),
			wantCode: arerrors.TypeIncompatible,
			wantMsg:  "expected '/Pkg/T1', found 'none'",
		},
		{
			name: "missing init value",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue",
				`<UNQUEUED-RECEIVER-COM-SPEC><INIT-VALUE-REF>/Pkg/C_Missing</INIT-VALUE-REF></UNQUEUED-RECEIVER-COM-SPEC>`)),
			wantCode: arerrors.UnresolvedReference,
		},
		{
			name: "unresolved interface",
			elements: v3Swc(rPort("RPort", "/Pkg/IMissing",
				`<UNQUEUED-RECEIVER-COM-SPEC/>`)),
			wantCode: arerrors.UnresolvedReference,
		},
		{
			name: "data comspec on client-server interface",
			elements: v3Swc(rPort("RPort", "/Pkg/ICalc",
				`<UNQUEUED-RECEIVER-COM-SPEC/>`)),
			wantCode: arerrors.TypeIncompatible,
		},
		{
			name:     "relative interface reference",
			elements: v3Swc(rPort("RPort", "Pkg/ISensorValue", "")),
			wantCode: arerrors.InvalidReference,
		},
		{
			name: "duplicate port",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue", "") +
				rPort("RPort", "/Pkg/ISensorValue", "")),
			wantCode: arerrors.StructuralViolation,
			wantPath: "/Pkg/Swc/RPort",
		},
		{
			name:     "unsupported component child",
			elements: `<APPLICATION-SOFTWARE-COMPONENT-TYPE><SHORT-NAME>Swc</SHORT-NAME><FOO-BAR/></APPLICATION-SOFTWARE-COMPONENT-TYPE>`,
			wantCode: arerrors.UnsupportedConstruct,
		},
		{
			name:     "unsupported package element",
			elements: `<FANCY-TYPE><SHORT-NAME>X</SHORT-NAME></FANCY-TYPE>`,
			wantCode: arerrors.UnsupportedConstruct,
		},
		{
			name: "non-numeric queue length",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue",
				`<QUEUED-RECEIVER-COM-SPEC><QUEUE-LENGTH>abc</QUEUE-LENGTH></QUEUED-RECEIVER-COM-SPEC>`)),
			wantCode: arerrors.InvalidValue,
		},
		{
			name: "negative queue length rejected on request",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue",
				`<QUEUED-RECEIVER-COM-SPEC><QUEUE-LENGTH>-1</QUEUE-LENGTH></QUEUED-RECEIVER-COM-SPEC>`)),
			opts:     []Option{WithRejectNegative(true)},
			wantCode: arerrors.InvalidValue,
		},
		{
			name: "NV block needs without ports",
			elements: v3Swc("") + `<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF>
<SERVICE-NEEDSS><SWC-NV-BLOCK-NEEDS><SHORT-NAME>Persist</SHORT-NAME><SERVICE-CALL-PORTS/></SWC-NV-BLOCK-NEEDS></SERVICE-NEEDSS>
</INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.StructuralViolation,
			wantPath: "/Pkg/B/Persist",
		},
		{
			name: "second behavior for one component",
			elements: v3Swc("") +
				`<INTERNAL-BEHAVIOR><SHORT-NAME>B1</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF></INTERNAL-BEHAVIOR>` +
				`<INTERNAL-BEHAVIOR><SHORT-NAME>B2</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.StructuralViolation,
			wantPath: "/Pkg/B2",
		},
		{
			name: "unknown mode activation",
			elements: `<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF><EVENTS>
<MODE-SWITCH-EVENT><SHORT-NAME>E</SHORT-NAME><START-ON-EVENT-REF>/Pkg/B/R</START-ON-EVENT-REF><ACTIVATION>SOMETIMES</ACTIVATION></MODE-SWITCH-EVENT>
</EVENTS></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.InvalidValue,
		},
		{
			name: "unsupported event",
			elements: `<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF><EVENTS>
<BACKGROUND-EVENT><SHORT-NAME>E</SHORT-NAME></BACKGROUND-EVENT>
</EVENTS></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.UnsupportedConstruct,
		},
		{
			name: "unsupported data comspec child",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue",
				`<UNQUEUED-RECEIVER-COM-SPEC><ALIVE-TIMEOUT>5</ALIVE-TIMEOUT><SIGNAL-QUALIFIER>x</SIGNAL-QUALIFIER></UNQUEUED-RECEIVER-COM-SPEC>`)),
			wantCode: arerrors.UnsupportedConstruct,
			wantPath: "/Pkg/Swc/RPort",
		},
		{
			name: "unsupported operation comspec child",
			elements: v3Swc(rPort("Calc", "/Pkg/ICalc",
				`<CLIENT-COM-SPEC><OPERATION-REF>/Pkg/ICalc/Add</OPERATION-REF><TIMEOUT>1</TIMEOUT></CLIENT-COM-SPEC>`)),
			wantCode: arerrors.UnsupportedConstruct,
			wantPath: "/Pkg/Swc/Calc",
		},
		{
			name: "unsupported port API option child",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue", "")) +
				`<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF><PORT-API-OPTIONS>
<PORT-API-OPTION><PORT-REF>/Pkg/Swc/RPort</PORT-REF><PORT-DEFINED-ARGUMENT-VALUES/></PORT-API-OPTION>
</PORT-API-OPTIONS></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.UnsupportedConstruct,
			wantPath: "/Pkg/B",
		},
		{
			name: "unsupported receive point child",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue", "")) +
				`<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF><RUNNABLES>
<RUNNABLE-ENTITY><SHORT-NAME>Run</SHORT-NAME><DATA-RECEIVE-POINTS><DATA-RECEIVE-POINT><SHORT-NAME>Read</SHORT-NAME>
<DATA-ELEMENT-IREF><R-PORT-PROTOTYPE-REF>/Pkg/Swc/RPort</R-PORT-PROTOTYPE-REF><DATA-ELEMENT-PROTOTYPE-REF>/Pkg/ISensorValue/Value</DATA-ELEMENT-PROTOTYPE-REF></DATA-ELEMENT-IREF>
<FILTER/></DATA-RECEIVE-POINT></DATA-RECEIVE-POINTS></RUNNABLE-ENTITY>
</RUNNABLES></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.UnsupportedConstruct,
		},
		{
			name: "unsupported data element iref child",
			elements: v3Swc(rPort("RPort", "/Pkg/ISensorValue", "")) +
				`<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF><RUNNABLES>
<RUNNABLE-ENTITY><SHORT-NAME>Run</SHORT-NAME><DATA-RECEIVE-POINTS><DATA-RECEIVE-POINT><SHORT-NAME>Read</SHORT-NAME>
<DATA-ELEMENT-IREF><COMPONENT-PROTOTYPE-REF>/Pkg/Top/Swc</COMPONENT-PROTOTYPE-REF><R-PORT-PROTOTYPE-REF>/Pkg/Swc/RPort</R-PORT-PROTOTYPE-REF>
<DATA-ELEMENT-PROTOTYPE-REF>/Pkg/ISensorValue/Value</DATA-ELEMENT-PROTOTYPE-REF></DATA-ELEMENT-IREF>
</DATA-RECEIVE-POINT></DATA-RECEIVE-POINTS></RUNNABLE-ENTITY>
</RUNNABLES></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.UnsupportedConstruct,
		},
		{
			name: "foreign item in exclusive area list",
			elements: v3Swc("") + `<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF>
<EXCLUSIVE-AREAS><EXCLUSIVE-AREA><SHORT-NAME>Lock</SHORT-NAME></EXCLUSIVE-AREA></EXCLUSIVE-AREAS><RUNNABLES>
<RUNNABLE-ENTITY><SHORT-NAME>Run</SHORT-NAME><CAN-ENTER-EXCLUSIVE-AREA-REFS>
<RUNS-INSIDE-EXCLUSIVE-AREA-REF>/Pkg/B/Lock</RUNS-INSIDE-EXCLUSIVE-AREA-REF>
</CAN-ENTER-EXCLUSIVE-AREA-REFS></RUNNABLE-ENTITY>
</RUNNABLES></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.UnsupportedConstruct,
			wantMsg:  "RUNS-INSIDE-EXCLUSIVE-AREA-REF",
		},
		{
			name: "foreign item in possible error list",
			elements: `<CLIENT-SERVER-INTERFACE><SHORT-NAME>IStore</SHORT-NAME><OPERATIONS>
<OPERATION-PROTOTYPE><SHORT-NAME>Put</SHORT-NAME><POSSIBLE-ERROR-REFS><ARGUMENT-REF>/Pkg/IStore/Put/x</ARGUMENT-REF></POSSIBLE-ERROR-REFS></OPERATION-PROTOTYPE>
</OPERATIONS></CLIENT-SERVER-INTERFACE>`,
			wantCode: arerrors.UnsupportedConstruct,
			wantMsg:  "ARGUMENT-REF",
		},
		{
			name: "unsupported NV block needs child",
			elements: v3Swc("") + `<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF>
<SERVICE-NEEDSS><SWC-NV-BLOCK-NEEDS><SHORT-NAME>Persist</SHORT-NAME><RAM-BLOCK-STATUS-CONTROL>API</RAM-BLOCK-STATUS-CONTROL>
</SWC-NV-BLOCK-NEEDS></SERVICE-NEEDSS></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.UnsupportedConstruct,
			wantPath: "/Pkg/B",
		},
		{
			name: "unsupported role assignment child",
			elements: v3Swc("") + `<INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME><COMPONENT-REF>/Pkg/Swc</COMPONENT-REF>
<SERVICE-NEEDSS><SWC-NV-BLOCK-NEEDS><SHORT-NAME>Persist</SHORT-NAME><SERVICE-CALL-PORTS>
<ROLE-BASED-R-PORT-ASSIGNMENT><R-PORT-PROTOTYPE-REF>/Pkg/Swc/NvM</R-PORT-PROTOTYPE-REF><ROLE>NvMService</ROLE><INDEX>0</INDEX></ROLE-BASED-R-PORT-ASSIGNMENT>
</SERVICE-CALL-PORTS></SWC-NV-BLOCK-NEEDS></SERVICE-NEEDSS></INTERNAL-BEHAVIOR>`,
			wantCode: arerrors.UnsupportedConstruct,
		},
		{
			name: "assembly connector to foreign prototype",
			elements: `<COMPOSITION-TYPE><SHORT-NAME>Top</SHORT-NAME><CONNECTORS><ASSEMBLY-CONNECTOR-PROTOTYPE><SHORT-NAME>C</SHORT-NAME>
<PROVIDER-IREF><COMPONENT-PROTOTYPE-REF>/Pkg/Top/A</COMPONENT-PROTOTYPE-REF><P-PORT-PROTOTYPE-REF>/Pkg/X/P</P-PORT-PROTOTYPE-REF></PROVIDER-IREF>
<REQUESTER-IREF><COMPONENT-PROTOTYPE-REF>/Pkg/Top/B</COMPONENT-PROTOTYPE-REF><R-PORT-PROTOTYPE-REF>/Pkg/Y/R</R-PORT-PROTOTYPE-REF></REQUESTER-IREF>
</ASSEMBLY-CONNECTOR-PROTOTYPE></CONNECTORS></COMPOSITION-TYPE>`,
			wantCode: arerrors.UnresolvedReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildString(t, v3Doc(tt.elements), tt.opts...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			me, ok := arerrors.As(err)
			if !ok {
				t.Fatalf("error %v is not a model error", err)
			}
			if me.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s (%v)", me.Code, tt.wantCode, err)
			}
			if tt.wantPath != "" && me.Location.Path != tt.wantPath {
				t.Errorf("Location.Path = %q, want %q", me.Location.Path, tt.wantPath)
			}
			if tt.wantMsg != "" && !strings.Contains(me.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want to contain %q", me.Message, tt.wantMsg)
			}
		})
	}
}

func TestParseErrors_V4Behavior(t *testing.T) {
	doc := func(behavior string) string {
		return `<AUTOSAR xmlns="http://autosar.org/schema/r4.0"><AR-PACKAGES><AR-PACKAGE><SHORT-NAME>Swcs</SHORT-NAME><ELEMENTS>
<APPLICATION-SW-COMPONENT-TYPE><SHORT-NAME>Swc</SHORT-NAME><INTERNAL-BEHAVIORS>
<SWC-INTERNAL-BEHAVIOR><SHORT-NAME>B</SHORT-NAME>` + behavior + `</SWC-INTERNAL-BEHAVIOR>
</INTERNAL-BEHAVIORS></APPLICATION-SW-COMPONENT-TYPE>
</ELEMENTS></AR-PACKAGE></AR-PACKAGES></AUTOSAR>`
	}
	access := func(body string) string {
		return `<RUNNABLES><RUNNABLE-ENTITY><SHORT-NAME>Run</SHORT-NAME><DATA-READ-ACCESSS>` + body +
			`</DATA-READ-ACCESSS></RUNNABLE-ENTITY></RUNNABLES>`
	}
	tests := []struct {
		name    string
		xml     string
		wantTag string
	}{
		{
			name: "unsupported variable access child",
			xml: doc(access(`<VARIABLE-ACCESS><SHORT-NAME>Read</SHORT-NAME><ACCESSED-VARIABLE><AUTOSAR-VARIABLE-IREF>
<PORT-PROTOTYPE-REF>/Swcs/Swc/RPort</PORT-PROTOTYPE-REF><TARGET-DATA-PROTOTYPE-REF>/Types/I/Value</TARGET-DATA-PROTOTYPE-REF>
</AUTOSAR-VARIABLE-IREF></ACCESSED-VARIABLE><RETURN-VALUE-PROVISION/></VARIABLE-ACCESS>`)),
			wantTag: "RETURN-VALUE-PROVISION",
		},
		{
			name: "unsupported accessed variable sibling",
			xml: doc(access(`<VARIABLE-ACCESS><SHORT-NAME>Read</SHORT-NAME><ACCESSED-VARIABLE><AUTOSAR-VARIABLE-IREF>
<PORT-PROTOTYPE-REF>/Swcs/Swc/RPort</PORT-PROTOTYPE-REF><TARGET-DATA-PROTOTYPE-REF>/Types/I/Value</TARGET-DATA-PROTOTYPE-REF>
</AUTOSAR-VARIABLE-IREF><LOCAL-VARIABLE-REF>/Swcs/Swc/B/Local</LOCAL-VARIABLE-REF></ACCESSED-VARIABLE></VARIABLE-ACCESS>`)),
			wantTag: "LOCAL-VARIABLE-REF",
		},
		{
			name: "unsupported variable iref child",
			xml: doc(access(`<VARIABLE-ACCESS><SHORT-NAME>Read</SHORT-NAME><ACCESSED-VARIABLE><AUTOSAR-VARIABLE-IREF>
<PORT-PROTOTYPE-REF>/Swcs/Swc/RPort</PORT-PROTOTYPE-REF><TARGET-DATA-PROTOTYPE-REF>/Types/I/Value</TARGET-DATA-PROTOTYPE-REF>
<CONTEXT-DATA-PROTOTYPE-REF>/Types/I/Other</CONTEXT-DATA-PROTOTYPE-REF></AUTOSAR-VARIABLE-IREF></ACCESSED-VARIABLE></VARIABLE-ACCESS>`)),
			wantTag: "CONTEXT-DATA-PROTOTYPE-REF",
		},
		{
			name: "foreign item in data type mapping list",
			xml: doc(`<DATA-TYPE-MAPPING-REFS><CONSTANT-REF>/Types/C1</CONSTANT-REF></DATA-TYPE-MAPPING-REFS>`),
			wantTag: "CONSTANT-REF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildString(t, tt.xml)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			me, ok := arerrors.As(err)
			if !ok {
				t.Fatalf("error %v is not a model error", err)
			}
			if me.Code != arerrors.UnsupportedConstruct {
				t.Errorf("Code = %s, want %s (%v)", me.Code, arerrors.UnsupportedConstruct, err)
			}
			if !strings.Contains(me.Message, "<"+tt.wantTag+">") {
				t.Errorf("Message = %q, want to name <%s>", me.Message, tt.wantTag)
			}
		})
	}
}

func TestNegativeNumericsPreserved(t *testing.T) {
	ws, err := buildString(t, v3Doc(v3Swc(rPort("RPort", "/Pkg/ISensorValue",
		`<QUEUED-RECEIVER-COM-SPEC><QUEUE-LENGTH>-1</QUEUE-LENGTH></QUEUED-RECEIVER-COM-SPEC>`))))
	if err != nil {
		t.Fatal(err)
	}
	port, err := workspace.ResolveAs[*model.Port](ws, "/Pkg/Swc/RPort")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := port.ComSpecs[0].(*model.DataElementComSpec).QueueLength(); !ok || v != -1 {
		t.Errorf("QueueLength() = %d, %v, want -1, true", v, ok)
	}
}

func TestBuild_ReferencesAcrossDocuments(t *testing.T) {
	components := `<AUTOSAR xmlns="http://autosar.org/3.1.4"><TOP-LEVEL-PACKAGES>
<AR-PACKAGE><SHORT-NAME>Pkg</SHORT-NAME><ELEMENTS>` +
		v3Swc(rPort("RPort", "/Pkg/Ifaces/ISensorValue", `<UNQUEUED-RECEIVER-COM-SPEC/>`)) +
		`</ELEMENTS></AR-PACKAGE></TOP-LEVEL-PACKAGES></AUTOSAR>`
	interfaces := `<AUTOSAR xmlns="http://autosar.org/3.1.4"><TOP-LEVEL-PACKAGES>
<AR-PACKAGE><SHORT-NAME>Pkg</SHORT-NAME><ELEMENTS>
<INTEGER-TYPE><SHORT-NAME>T1</SHORT-NAME></INTEGER-TYPE>
</ELEMENTS><SUB-PACKAGES><AR-PACKAGE><SHORT-NAME>Ifaces</SHORT-NAME><ELEMENTS>
<SENDER-RECEIVER-INTERFACE><SHORT-NAME>ISensorValue</SHORT-NAME><DATA-ELEMENTS>
<DATA-ELEMENT-PROTOTYPE><SHORT-NAME>Value</SHORT-NAME><TYPE-TREF>/Pkg/T1</TYPE-TREF></DATA-ELEMENT-PROTOTYPE>
</DATA-ELEMENTS></SENDER-RECEIVER-INTERFACE>
</ELEMENTS></AR-PACKAGE></SUB-PACKAGES></AR-PACKAGE></TOP-LEVEL-PACKAGES></AUTOSAR>`

	ws := workspace.New(V3)
	p, err := New(ws)
	if err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{components, interfaces} {
		doc := etree.NewDocument()
		if err := doc.ReadFromString(src); err != nil {
			t.Fatal(err)
		}
		if err := p.ParseDocument(doc); err != nil {
			t.Fatalf("ParseDocument() error = %v", err)
		}
	}
	if err := p.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(ws.Packages()) != 1 {
		t.Fatalf("len(Packages()) = %d, want 1 merged package", len(ws.Packages()))
	}
	pkg := ws.Packages()[0]
	if len(pkg.Elements) != 2 || pkg.Elements[0].Name() != "Swc" || pkg.Elements[1].Name() != "T1" {
		t.Errorf("merged package elements = %v", pkg.Elements)
	}
	if len(pkg.SubPackages) != 1 || pkg.SubPackages[0].Path() != ref.MustParse("/Pkg/Ifaces") {
		t.Errorf("SubPackages = %v", pkg.SubPackages)
	}
	port, err := workspace.ResolveAs[*model.Port](ws, "/Pkg/Swc/RPort")
	if err != nil {
		t.Fatal(err)
	}
	if got := port.ComSpecs[0].ElementName(); got != "Value" {
		t.Errorf("ElementName() = %q, want Value", got)
	}
}

func TestBuild_Canceled(t *testing.T) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(v3Doc("")); err != nil {
		t.Fatal(err)
	}
	ws := workspace.New(V3)
	p, err := New(ws)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ParseDocument(doc); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Build(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestParseDocument_IgnoredElements(t *testing.T) {
	ws, err := buildString(t, v3Doc(`<COMPU-METHOD><SHORT-NAME>Identity</SHORT-NAME></COMPU-METHOD>`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ws.Find("/Pkg/Identity"); ok {
		t.Error("ignored element was registered")
	}
	pkg, _ := workspace.ResolveAs[*model.Package](ws, "/Pkg")
	if pkg.Element("Identity") != nil {
		t.Error("ignored element kept in package")
	}
}
