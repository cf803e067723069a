package sim

import "github.com/san-kum/dpsim/internal/physics"

// Params returns the clamped physical parameters in use.
func (d *Driver) Params() physics.Params { return d.model.Parameters() }

// Model exposes the pendulum for read-only use such as energy evaluation.
func (d *Driver) Model() *physics.DoublePendulum { return d.model }

func (d *Driver) SetM1(v float64) bool       { return d.paramChanged("m1", d.model.SetM1(v)) }
func (d *Driver) SetM2(v float64) bool       { return d.paramChanged("m2", d.model.SetM2(v)) }
func (d *Driver) SetRodMass1(v float64) bool { return d.paramChanged("rod_mass1", d.model.SetRodMass1(v)) }
func (d *Driver) SetRodMass2(v float64) bool { return d.paramChanged("rod_mass2", d.model.SetRodMass2(v)) }
func (d *Driver) SetL1(v float64) bool       { return d.paramChanged("l1", d.model.SetL1(v)) }
func (d *Driver) SetL2(v float64) bool       { return d.paramChanged("l2", d.model.SetL2(v)) }
func (d *Driver) SetB1(v float64) bool       { return d.paramChanged("b1", d.model.SetB1(v)) }
func (d *Driver) SetB2(v float64) bool       { return d.paramChanged("b2", d.model.SetB2(v)) }
func (d *Driver) SetC1(v float64) bool       { return d.paramChanged("c1", d.model.SetC1(v)) }
func (d *Driver) SetC2(v float64) bool       { return d.paramChanged("c2", d.model.SetC2(v)) }
func (d *Driver) SetG(v float64) bool        { return d.paramChanged("g", d.model.SetG(v)) }

// SetParam sets a parameter by its physics.ParamNames name.
func (d *Driver) SetParam(name string, v float64) (bool, error) {
	changed, err := d.model.SetParam(name, v)
	if err != nil {
		return false, err
	}
	return d.paramChanged(name, changed), nil
}

func (d *Driver) paramChanged(name string, changed bool) bool {
	if !changed {
		return false
	}
	// cached stage derivatives belong to the old parameters
	d.integ.Reset()
	d.energies = d.model.Energies(d.x)
	d.emit(ParamChanged, name)
	return true
}
