package orchestrator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/assignment"
	"github.com/alexanderramin/fieldops/internal/domain"
)

// StepKind orders steps that share a parent entity.
type StepKind int

const (
	// Structural steps change the driver-vehicle link.
	Structural StepKind = iota
	// Membership steps change who belongs to a vehicle crew or a zone.
	Membership
)

func (k StepKind) String() string {
	if k == Structural {
		return "structural"
	}
	return "membership"
}

type Op string

const (
	OpSetDriverVehicle   Op = "set_driver_vehicle"
	OpClearDriverVehicle Op = "clear_driver_vehicle"
	OpSetCrew            Op = "set_crew"
	OpSetManpowerZone    Op = "set_manpower_zone"
	OpClearManpowerZone  Op = "clear_manpower_zone"
	OpRegisterVehicle    Op = "register_vehicle"
)

// Step is one remote call. Seq is its position in plan order.
type Step struct {
	Seq         int
	Kind        StepKind
	Op          Op
	DriverID    string
	VehicleID   string
	ManpowerID  string
	ZoneID      string
	ManpowerIDs []string
	Vehicle     *apiclient.VehicleInput
	Label       string
}

// EntityKey names the entity the step writes to.
func (s Step) EntityKey() string {
	switch s.Op {
	case OpSetManpowerZone, OpClearManpowerZone:
		return "manpower:" + s.ManpowerID
	case OpRegisterVehicle:
		return "vehicle:" + s.Vehicle.Plate
	default:
		return "driver:" + s.DriverID
	}
}

// Chain is a run of steps on one parent entity. Its steps run in order and
// a failure stops the rest of the chain.
type Chain struct {
	Parent string
	Steps  []Step
}

// Skip records a step left out because the current state already satisfies
// it.
type Skip struct {
	EntityKey string
	Reason    string
}

type Plan struct {
	Intent   Intent
	Chains   []Chain
	Skipped  []Skip
	Warnings []string
	Affected []domain.EntityKind
}

// Steps returns every step in plan order.
func (p *Plan) Steps() []Step {
	var out []Step
	for _, c := range p.Chains {
		out = append(out, c.Steps...)
	}
	return out
}

// Empty reports whether the plan issues no calls.
func (p *Plan) Empty() bool {
	for _, c := range p.Chains {
		if len(c.Steps) > 0 {
			return false
		}
	}
	return true
}

type planner struct {
	g    *assignment.Graph
	plan *Plan
	seq  int
}

// NewPlan validates intent against the graph and returns the calls needed to
// reach the desired state. A *domain.ValidationError means nothing must be
// sent.
func NewPlan(g *assignment.Graph, intent Intent) (*Plan, error) {
	if intent == nil {
		return nil, domain.Invalid("", "nothing to do")
	}
	p := &planner{g: g, plan: &Plan{Intent: intent, Affected: affected(intent.Kind())}}

	var err error
	switch in := intent.(type) {
	case AssignVehicle:
		err = p.assignVehicle(in)
	case UnassignVehicle:
		err = p.unassignVehicle(in)
	case SetCrew:
		err = p.setCrew(in)
	case MoveManpowerToZone:
		err = p.moveToZone(in)
	case UnassignManpowerZones:
		err = p.clearZones(in)
	case RegisterVehicle:
		err = p.registerVehicle(in)
	default:
		err = domain.Invalid("", "unsupported change %q", intent.Kind())
	}
	if err != nil {
		return nil, err
	}
	return p.plan, nil
}

func (p *planner) step(s Step) Step {
	p.seq++
	s.Seq = p.seq
	return s
}

func (p *planner) skip(key, format string, args ...any) {
	p.plan.Skipped = append(p.plan.Skipped, Skip{EntityKey: key, Reason: fmt.Sprintf(format, args...)})
}

func (p *planner) driver(id string) (domain.Driver, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Driver{}, domain.Invalid("driver", "is required")
	}
	d, ok := p.g.Driver(id)
	if !ok {
		return domain.Driver{}, domain.Invalid("driver", "unknown driver %s", id)
	}
	return d, nil
}

func (p *planner) crew(field string, ids []string) ([]string, error) {
	desired := domain.UniqueOrdered(ids)
	for _, id := range desired {
		if _, ok := p.g.Manpower(id); !ok {
			return nil, domain.Invalid(field, "unknown manpower %s", id)
		}
	}
	return desired, nil
}

func (p *planner) manpowerBatch(ids []string) ([]domain.Manpower, error) {
	ids = domain.UniqueOrdered(ids)
	if len(ids) == 0 {
		return nil, domain.Invalid("manpower", "select at least one worker")
	}
	out := make([]domain.Manpower, 0, len(ids))
	for _, id := range ids {
		m, ok := p.g.Manpower(id)
		if !ok {
			return nil, domain.Invalid("manpower", "unknown manpower %s", id)
		}
		out = append(out, m)
	}
	return out, nil
}

func (p *planner) assignVehicle(in AssignVehicle) error {
	d, err := p.driver(in.DriverID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.VehicleID) == "" {
		return domain.Invalid("vehicle", "is required")
	}
	v, ok := p.g.Vehicle(in.VehicleID)
	if !ok {
		return domain.Invalid("vehicle", "unknown vehicle %s", in.VehicleID)
	}
	var desired []string
	if in.Crew != nil {
		if desired, err = p.crew("crew", *in.Crew); err != nil {
			return err
		}
	}

	chain := Chain{Parent: "vehicle:" + v.ID}
	holds := d.VehicleID != nil && *d.VehicleID == v.ID

	if other, taken := p.g.VehicleTakenByOther(v.ID, d.ID); taken {
		if !in.ReleaseFromCurrent {
			return domain.Invalid("vehicle", "vehicle %s is already assigned to %s", v.Plate, other.Username)
		}
		chain.Steps = append(chain.Steps, p.step(Step{
			Kind:     Structural,
			Op:       OpClearDriverVehicle,
			DriverID: other.ID,
			Label:    fmt.Sprintf("release %s from %s", v.Plate, other.Username),
		}))
	}

	if holds {
		p.skip("driver:"+d.ID, "%s already drives %s", d.Username, v.Plate)
	} else {
		chain.Steps = append(chain.Steps, p.step(Step{
			Kind:      Structural,
			Op:        OpSetDriverVehicle,
			DriverID:  d.ID,
			VehicleID: v.ID,
			Label:     fmt.Sprintf("assign %s to %s", v.Plate, d.Username),
		}))
	}

	if in.Crew != nil {
		if holds && slices.Equal(p.g.CrewIDs(v.ID), desired) {
			p.skip("driver:"+d.ID, "crew of %s is already up to date", v.Plate)
		} else {
			chain.Steps = append(chain.Steps, p.crewStep(d, v.Plate, desired))
		}
	}

	if len(chain.Steps) > 0 {
		p.plan.Chains = append(p.plan.Chains, chain)
	}
	return nil
}

func (p *planner) crewStep(d domain.Driver, plate string, desired []string) Step {
	return p.step(Step{
		Kind:        Membership,
		Op:          OpSetCrew,
		DriverID:    d.ID,
		ManpowerIDs: desired,
		Label:       fmt.Sprintf("set crew of %s (%d)", plate, len(desired)),
	})
}

func (p *planner) unassignVehicle(in UnassignVehicle) error {
	d, err := p.driver(in.DriverID)
	if err != nil {
		return err
	}
	if !d.HasVehicle() {
		p.skip("driver:"+d.ID, "%s has no vehicle", d.Username)
		return nil
	}
	v, _ := p.g.VehicleOfDriver(d.ID)
	p.plan.Chains = append(p.plan.Chains, Chain{
		Parent: "vehicle:" + v.ID,
		Steps: []Step{p.step(Step{
			Kind:      Structural,
			Op:        OpClearDriverVehicle,
			DriverID:  d.ID,
			VehicleID: v.ID,
			Label:     fmt.Sprintf("unassign %s from %s", v.Plate, d.Username),
		})},
	})
	return nil
}

func (p *planner) setCrew(in SetCrew) error {
	d, err := p.driver(in.DriverID)
	if err != nil {
		return err
	}
	if !d.HasVehicle() {
		return domain.Invalid("driver", "%s has no vehicle; assign one before setting a crew", d.Username)
	}
	desired, err := p.crew("manpower", in.ManpowerIDs)
	if err != nil {
		return err
	}
	v, _ := p.g.VehicleOfDriver(d.ID)
	if slices.Equal(p.g.CrewIDs(v.ID), desired) {
		p.skip("driver:"+d.ID, "crew of %s is already up to date", v.Plate)
		return nil
	}
	p.plan.Chains = append(p.plan.Chains, Chain{
		Parent: "vehicle:" + v.ID,
		Steps:  []Step{p.crewStep(d, v.Plate, desired)},
	})
	return nil
}

func (p *planner) moveToZone(in MoveManpowerToZone) error {
	if strings.TrimSpace(in.ZoneID) == "" {
		return domain.Invalid("zone", "is required")
	}
	z, ok := p.g.Zone(in.ZoneID)
	if !ok {
		return domain.Invalid("zone", "unknown zone %s", in.ZoneID)
	}
	members, err := p.manpowerBatch(in.ManpowerIDs)
	if err != nil {
		return err
	}
	for _, m := range members {
		key := "manpower:" + m.ID
		if m.ZoneID != nil && *m.ZoneID == z.ID {
			p.skip(key, "%s is already in %s", m.Username, z.Name)
			continue
		}
		p.plan.Chains = append(p.plan.Chains, Chain{
			Parent: key,
			Steps: []Step{p.step(Step{
				Kind:       Membership,
				Op:         OpSetManpowerZone,
				ManpowerID: m.ID,
				ZoneID:     z.ID,
				Label:      fmt.Sprintf("move %s to %s", m.Username, z.Name),
			})},
		})
	}
	return nil
}

func (p *planner) clearZones(in UnassignManpowerZones) error {
	members, err := p.manpowerBatch(in.ManpowerIDs)
	if err != nil {
		return err
	}
	var cleared []string
	for _, m := range members {
		key := "manpower:" + m.ID
		if m.ZoneID == nil {
			p.skip(key, "%s has no zone", m.Username)
			continue
		}
		cleared = append(cleared, m.ID)
		p.plan.Chains = append(p.plan.Chains, Chain{
			Parent: key,
			Steps: []Step{p.step(Step{
				Kind:       Membership,
				Op:         OpClearManpowerZone,
				ManpowerID: m.ID,
				ZoneID:     *m.ZoneID,
				Label:      "remove " + m.Username + " from zone",
			})},
		})
	}
	for _, ref := range p.g.OrphanedCrewRefs(cleared) {
		p.plan.Warnings = append(p.plan.Warnings,
			fmt.Sprintf("%s stays in the crew of %s without a zone", ref.Username, ref.Plate))
	}
	return nil
}

func (p *planner) registerVehicle(in RegisterVehicle) error {
	plate := domain.NormalizePlate(in.Plate)
	if err := domain.ValidatePlate(plate); err != nil {
		return err
	}
	if v, ok := p.g.VehicleByPlate(plate); ok {
		return domain.Invalid("plate", "%s is already registered as vehicle %s", plate, v.ID)
	}
	input := &apiclient.VehicleInput{
		Plate: plate,
		Make:  strings.TrimSpace(in.Make),
		Model: strings.TrimSpace(in.Model),
	}
	p.plan.Chains = append(p.plan.Chains, Chain{
		Parent: "vehicle:" + plate,
		Steps: []Step{p.step(Step{
			Kind:    Structural,
			Op:      OpRegisterVehicle,
			Vehicle: input,
			Label:   "register " + plate,
		})},
	})
	return nil
}
