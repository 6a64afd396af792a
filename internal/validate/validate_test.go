package validate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/parser"
	"autosar/internal/workspace"
)

type fixture struct {
	ws   *workspace.Workspace
	pkg  *model.Package
	swc  *model.ComponentType
	beh  *model.InternalBehavior
	run  *model.RunnableEntity
	fail func(error)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ws: workspace.New(workspace.V3)}
	f.fail = func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	f.pkg = model.NewPackage(nil, "Pkg")
	f.fail(f.ws.AddPackage(f.pkg))

	f.add(model.NewDataType(f.pkg, "T1", "INTEGER-TYPE", ""))
	iface := model.NewSenderReceiverInterface(f.pkg, "ISensorValue", false)
	f.add(iface)
	de := model.NewDataElement(iface, "Value", "/Pkg/T1", false)
	iface.DataElements = append(iface.DataElements, de)
	f.add(de)
	other := model.NewSenderReceiverInterface(f.pkg, "IOther", false)
	f.add(other)
	f.add(model.NewDataElement(other, "Value", "/Pkg/T1", false))

	f.swc = model.NewApplicationComponent(f.pkg, "Swc")
	f.add(f.swc)
	port := model.NewRequirePort(f.swc, "RPort", "/Pkg/ISensorValue")
	f.swc.AddPort(port)
	f.add(port)

	f.beh = model.NewInternalBehavior(f.pkg, "B", "/Pkg/Swc", false)
	f.add(f.beh)
	f.run = model.NewRunnableEntity(f.beh, "Run", false, "Run")
	f.beh.Runnables = append(f.beh.Runnables, f.run)
	f.add(f.run)
	tick := model.NewTimingEvent(f.beh, "Tick", "/Pkg/B/Run", 10)
	f.beh.Events = append(f.beh.Events, tick)
	f.add(tick)

	// a second component with its own behavior
	calc := model.NewClientServerInterface(f.pkg, "ICalc", false)
	f.add(calc)
	op := model.NewOperation(calc, "Add")
	calc.Operations = append(calc.Operations, op)
	f.add(op)
	otherSwc := model.NewApplicationComponent(f.pkg, "Other")
	f.add(otherSwc)
	for _, p := range []*model.Port{
		model.NewRequirePort(otherSwc, "RPort", "/Pkg/ISensorValue"),
		model.NewRequirePort(otherSwc, "Calc", "/Pkg/ICalc"),
	} {
		otherSwc.AddPort(p)
		f.add(p)
	}
	ob := model.NewInternalBehavior(f.pkg, "OB", "/Pkg/Other", false)
	f.add(ob)
	orun := model.NewRunnableEntity(ob, "ORun", false, "ORun")
	ob.Runnables = append(ob.Runnables, orun)
	f.add(orun)
	lock := model.NewExclusiveArea(ob, "Lock")
	ob.ExclusiveAreas = append(ob.ExclusiveAreas, lock)
	f.add(lock)
	return f
}

func (f *fixture) add(e model.Entity) {
	f.fail(f.ws.Register(e))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *fixture)
		wantCode arerrors.ErrorCode
		wantPath string
	}{
		{
			name:   "consistent workspace",
			mutate: func(f *fixture) {},
		},
		{
			name: "port with missing interface",
			mutate: func(f *fixture) {
				f.add(model.NewRequirePort(f.swc, "Bad", "/Pkg/IMissing"))
			},
			wantCode: arerrors.UnresolvedReference,
			wantPath: "/Pkg/Swc/Bad",
		},
		{
			name: "event starting a missing runnable",
			mutate: func(f *fixture) {
				f.add(model.NewInitEvent(f.beh, "Init", "/Pkg/B/Missing"))
			},
			wantCode: arerrors.UnresolvedReference,
			wantPath: "/Pkg/B/Init",
		},
		{
			name: "event starting a port",
			mutate: func(f *fixture) {
				f.add(model.NewInitEvent(f.beh, "Init", "/Pkg/Swc/RPort"))
			},
			wantCode: arerrors.TypeIncompatible,
			wantPath: "/Pkg/B/Init",
		},
		{
			name: "receive point on element of another interface",
			mutate: func(f *fixture) {
				f.add(model.NewDataReceivePoint(f.run, "Read", "/Pkg/Swc/RPort", "/Pkg/IOther/Value"))
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Run/Read",
		},
		{
			name: "runnable entering a missing exclusive area",
			mutate: func(f *fixture) {
				f.run.ExclusiveAreaRefs = append(f.run.ExclusiveAreaRefs, "/Pkg/B/Lock")
			},
			wantCode: arerrors.UnresolvedReference,
			wantPath: "/Pkg/B/Run",
		},
		{
			name: "receive point on port of another component",
			mutate: func(f *fixture) {
				f.add(model.NewDataReceivePoint(f.run, "Read", "/Pkg/Other/RPort", "/Pkg/ISensorValue/Value"))
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Run/Read",
		},
		{
			name: "send point on port of another component",
			mutate: func(f *fixture) {
				f.add(model.NewDataSendPoint(f.run, "Write", "/Pkg/Other/RPort", "/Pkg/ISensorValue/Value"))
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Run/Write",
		},
		{
			name: "data received event on port of another component",
			mutate: func(f *fixture) {
				f.add(model.NewDataReceivedEvent(f.beh, "OnData", "/Pkg/B/Run",
					model.DataInstanceRef{PortRef: "/Pkg/Other/RPort", DataElementRef: "/Pkg/ISensorValue/Value"}))
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/OnData",
		},
		{
			name: "server call through port of another component",
			mutate: func(f *fixture) {
				call := model.NewSyncServerCallPoint(f.run, "Call", 0)
				call.OperationInstanceRefs = append(call.OperationInstanceRefs,
					model.OperationInstanceRef{PortRef: "/Pkg/Other/Calc", OperationRef: "/Pkg/ICalc/Add"})
				f.add(call)
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Run/Call",
		},
		{
			name: "event starting a runnable of another behavior",
			mutate: func(f *fixture) {
				f.add(model.NewTimingEvent(f.beh, "Foreign", "/Pkg/OB/ORun", 10))
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Foreign",
		},
		{
			name: "runnable entering an exclusive area of another behavior",
			mutate: func(f *fixture) {
				f.run.ExclusiveAreaRefs = append(f.run.ExclusiveAreaRefs, "/Pkg/OB/Lock")
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Run",
		},
		{
			name: "mode access point on port of another component",
			mutate: func(f *fixture) {
				f.run.ModeAccessPoints = append(f.run.ModeAccessPoints,
					&model.ModeAccessPoint{PortRef: "/Pkg/Other/RPort"})
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Run",
		},
		{
			name: "port API option for port of another component",
			mutate: func(f *fixture) {
				f.beh.PortAPIOptions = append(f.beh.PortAPIOptions, &model.PortAPIOption{PortRef: "/Pkg/Other/RPort"})
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B",
		},
		{
			name: "NV needs served by a port of another component",
			mutate: func(f *fixture) {
				needs, err := model.NewSwcNvBlockNeeds(f.beh, "Persist", model.NvBlockPolicy{},
					[]model.RoleBasedRPortAssignment{{PortRef: "/Pkg/Other/RPort", Role: "NvM"}})
				f.fail(err)
				f.add(needs)
			},
			wantCode: arerrors.UnknownElement,
			wantPath: "/Pkg/B/Persist",
		},
		{
			name: "behavior of a missing component",
			mutate: func(f *fixture) {
				f.add(model.NewInternalBehavior(f.pkg, "Orphan", "/Pkg/Gone", false))
			},
			wantCode: arerrors.UnresolvedReference,
			wantPath: "/Pkg/Orphan",
		},
		{
			name: "implementation of a missing behavior",
			mutate: func(f *fixture) {
				f.add(model.NewSwcImplementation(f.pkg, "Impl", "/Pkg/Nope"))
			},
			wantCode: arerrors.UnresolvedReference,
			wantPath: "/Pkg/Impl",
		},
		{
			name: "NV needs served by a provide port",
			mutate: func(f *fixture) {
				p := model.NewProvidePort(f.swc, "PPort", "/Pkg/ISensorValue")
				f.swc.AddPort(p)
				f.add(p)
				needs, err := model.NewSwcNvBlockNeeds(f.beh, "Persist", model.NvBlockPolicy{},
					[]model.RoleBasedRPortAssignment{{PortRef: "/Pkg/Swc/PPort", Role: "NvM"}})
				f.fail(err)
				f.add(needs)
			},
			wantCode: arerrors.TypeIncompatible,
			wantPath: "/Pkg/B/Persist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(f)

			err := Check(f.ws)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Check() error = %v", err)
				}
				return
			}
			me, ok := arerrors.As(err)
			if !ok {
				t.Fatalf("Check() error = %v, want model error", err)
			}
			if me.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s (%v)", me.Code, tt.wantCode, err)
			}
			if me.Location.Path != tt.wantPath {
				t.Errorf("Location.Path = %q, want %q", me.Location.Path, tt.wantPath)
			}
		})
	}
}

func TestCheckAll(t *testing.T) {
	f := newFixture(t)
	f.add(model.NewRequirePort(f.swc, "Bad", "/Pkg/IMissing"))
	f.add(model.NewInitEvent(f.beh, "Init", "/Pkg/B/Missing"))

	errs := CheckAll(f.ws)
	if len(errs) != 2 {
		t.Fatalf("CheckAll() returned %d errors, want 2: %v", len(errs), errs)
	}
	first, _ := arerrors.As(errs[0])
	if first.Location.Path != "/Pkg/Swc/Bad" {
		t.Errorf("first error at %q, want registration order", first.Location.Path)
	}
}

func TestCheck_ParsedFixtures(t *testing.T) {
	for _, name := range []string{"sensor_v3.arxml", "sensor_v4.arxml"} {
		t.Run(name, func(t *testing.T) {
			doc := etree.NewDocument()
			if err := doc.ReadFromFile(filepath.Join("..", "parser", "testdata", name)); err != nil {
				t.Fatal(err)
			}
			v, err := parser.DetectVersion(doc)
			if err != nil {
				t.Fatal(err)
			}
			ws := workspace.New(v)
			p, err := parser.New(ws)
			if err != nil {
				t.Fatal(err)
			}
			if err := p.ParseDocument(doc); err != nil {
				t.Fatal(err)
			}
			if err := p.Build(context.Background()); err != nil {
				t.Fatal(err)
			}
			if errs := CheckAll(ws); len(errs) != 0 {
				t.Errorf("CheckAll() = %v", errs)
			}
		})
	}
}
