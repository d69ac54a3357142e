// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aurora

// Protocol commands that exist on the device but have no wire behavior
// here. Each returns a *NotImplementedError without touching the
// transport, so callers can tell them apart from transport failures.

// UnimplementedCommands lists the keywords of the operations below.
var UnimplementedCommands = []string{
	CmdBX, CmdTX, CmdDStart, CmdDStop, CmdGet, CmdSet, CmdPDis, CmdPEna,
	CmdPHF, CmdPHInf, CmdPInit, CmdPPRD, CmdPPWR, CmdPSel, CmdPSOut,
	CmdPSrch, CmdPURD, CmdPUWR, CmdPVWR, CmdSFList, CmdTTCfg, CmdVSel,
	CmdSerialBreak,
}

// IsUnimplemented reports whether keyword is one of UnimplementedCommands.
func IsUnimplemented(keyword string) bool {
	for _, k := range UnimplementedCommands {
		if k == keyword {
			return true
		}
	}
	return false
}

func notImplemented(keyword string) error {
	return &NotImplementedError{Command: keyword}
}

// BX returns tool transformations in binary format.
func (s *Session) BX(option string) error { return notImplemented(CmdBX) }

// TX returns tool transformations in text format.
func (s *Session) TX(option string) error { return notImplemented(CmdTX) }

// DStart is the deprecated form of TStart.
func (s *Session) DStart() error { return notImplemented(CmdDStart) }

// DStop is the deprecated form of TStop.
func (s *Session) DStop() error { return notImplemented(CmdDStop) }

// Get returns the value of a user parameter.
func (s *Session) Get(param string) error { return notImplemented(CmdGet) }

// Set changes the value of a user parameter.
func (s *Session) Set(param, value string) error { return notImplemented(CmdSet) }

// PDis disables transformation reporting for a port handle.
func (s *Session) PDis(handle string) error { return notImplemented(CmdPDis) }

// PEna enables transformation reporting for a port handle.
func (s *Session) PEna(handle string, priority string) error { return notImplemented(CmdPEna) }

// PHF frees a port handle.
func (s *Session) PHF(handle string) error { return notImplemented(CmdPHF) }

// PHInf returns tool information for a port handle.
func (s *Session) PHInf(handle string, option string) error { return notImplemented(CmdPHInf) }

// PInit initializes a port handle.
func (s *Session) PInit(handle string) error { return notImplemented(CmdPInit) }

// PPRD reads tool SROM data.
func (s *Session) PPRD(handle string, address string) error { return notImplemented(CmdPPRD) }

// PPWR writes tool SROM data.
func (s *Session) PPWR(handle string, address string, data string) error {
	return notImplemented(CmdPPWR)
}

// PSel selects the SROM device used by PPRD and PPWR.
func (s *Session) PSel(handle string, deviceID string) error { return notImplemented(CmdPSel) }

// PSOut sets GPIO output states.
func (s *Session) PSOut(handle string, states string) error { return notImplemented(CmdPSOut) }

// PSrch lists the SROM device IDs of a tool.
func (s *Session) PSrch(handle string) error { return notImplemented(CmdPSrch) }

// PURD reads the user section of a tool SROM.
func (s *Session) PURD(handle string, address string) error { return notImplemented(CmdPURD) }

// PUWR writes the user section of a tool SROM.
func (s *Session) PUWR(handle string, address string, data string) error {
	return notImplemented(CmdPUWR)
}

// PVWR writes a tool definition file to a port handle for testing.
func (s *Session) PVWR(handle string, address string, data string) error {
	return notImplemented(CmdPVWR)
}

// SFList returns the supported features list.
func (s *Session) SFList(option string) error { return notImplemented(CmdSFList) }

// TTCfg configures a tool without a tool definition file.
func (s *Session) TTCfg(handle string) error { return notImplemented(CmdTTCfg) }

// VSel selects a characterized measurement volume.
func (s *Session) VSel(volume string) error { return notImplemented(CmdVSel) }

// SerialBreak resets the device with a serial break condition.
func (s *Session) SerialBreak() error { return notImplemented(CmdSerialBreak) }
