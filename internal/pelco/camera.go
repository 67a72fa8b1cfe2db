package pelco

// Camera pairs a Factory with a Session so callers can drive one device by
// operation name. With confirm set every command waits for the general reply,
// otherwise commands are written fire-and-forget.
type Camera struct {
	factory *Factory
	session *Session
	confirm bool
}

func NewCamera(f *Factory, s *Session, confirm bool) *Camera {
	return &Camera{factory: f, session: s, confirm: confirm}
}

// Factory returns the command factory for the camera's address.
func (c *Camera) Factory() *Factory { return c.factory }

// Do issues a prebuilt frame.
func (c *Camera) Do(f Frame) error {
	if c.confirm {
		_, err := c.session.TransactGeneral(f)
		return err
	}
	return c.session.Send(f)
}

func (c *Camera) do(f Frame, err error) error {
	if err != nil {
		return err
	}
	return c.Do(f)
}

func (c *Camera) Stop() error              { return c.do(c.factory.Stop()) }
func (c *Camera) Pan(speed int) error      { return c.do(c.factory.Pan(speed)) }
func (c *Camera) Tilt(speed int) error     { return c.do(c.factory.Tilt(speed)) }
func (c *Camera) Move(pan, tilt int) error { return c.do(c.factory.Move(pan, tilt)) }

// Zoom zooms in for positive values, out for negative ones and stops at 0.
func (c *Camera) Zoom(dir int) error {
	switch {
	case dir > 0:
		return c.do(c.factory.ZoomTele())
	case dir < 0:
		return c.do(c.factory.ZoomWide())
	}
	return c.Stop()
}

func (c *Camera) GoToPreset(id int) error  { return c.do(c.factory.GoToPreset(id)) }
func (c *Camera) SetPreset(id int) error   { return c.do(c.factory.SetPreset(id)) }
func (c *Camera) ClearPreset(id int) error { return c.do(c.factory.ClearPreset(id)) }
func (c *Camera) SetAux(id int) error      { return c.do(c.factory.SetAuxRelay(id)) }
func (c *Camera) ClearAux(id int) error    { return c.do(c.factory.ClearAux(id)) }

// QueryPanPosition returns the pan angle in degrees.
func (c *Camera) QueryPanPosition() (float64, error) {
	v, err := c.query(c.factory.QueryPanPosition())
	return float64(v) / 100, err
}

// QueryTiltPosition returns the tilt angle in degrees.
func (c *Camera) QueryTiltPosition() (float64, error) {
	v, err := c.query(c.factory.QueryTiltPosition())
	return float64(v) / 100, err
}

func (c *Camera) QueryZoomPosition() (uint16, error) {
	return c.query(c.factory.QueryZoomPosition())
}

// QueryMagnification returns the optical magnification, reported by the
// device in hundredths.
func (c *Camera) QueryMagnification() (float64, error) {
	v, err := c.query(c.factory.QueryMagnification())
	return float64(v) / 100, err
}

func (c *Camera) QueryDeviceType() (uint16, error) {
	return c.query(c.factory.QueryDeviceType())
}

func (c *Camera) QueryDiagnostics() (uint16, error) {
	return c.query(c.factory.QueryDiagnostics())
}

// Version requests version information; sub is VersionSoftware or
// VersionBuild.
func (c *Camera) Version(sub byte) (uint16, error) {
	f, err := c.factory.VersionInfo(sub)
	if err != nil {
		return 0, err
	}
	r, err := c.session.TransactExtended(f, Opcode(sub+1))
	if err != nil {
		return 0, err
	}
	return r.Value(), nil
}

func (c *Camera) query(f Frame, err error) (uint16, error) {
	if err != nil {
		return 0, err
	}
	expected, ok := ReplyOpcode(f.Opcode())
	if !ok {
		return 0, &OpcodeError{Expected: 0, Actual: byte(f.Opcode())}
	}
	r, err := c.session.TransactExtended(f, expected)
	if err != nil {
		return 0, err
	}
	return r.Value(), nil
}
