package rs485

// SystemParam is the decoded CID2=0x4F response body, per
// pylon_rs485_responder.py's make_system_param_response.
type SystemParam struct {
	NumBatteries   byte
	CellsPerModule byte
}

// DecodeSystemParam parses a CID2=0x4F response.
func DecodeSystemParam(info []byte) SystemParam {
	r := cursor{data: info}
	_ = r.byte() // info flag, unused
	return SystemParam{
		NumBatteries:   r.byte(),
		CellsPerModule: r.byte(),
	}
}

// DecodeASCIIInfo decodes a manufacturer/firmware/serial-number
// response, each of which is just an ASCII string hex-encoded in the
// info field (CID2 0x61/0x62/0x63).
func DecodeASCIIInfo(info []byte) string {
	return string(info)
}

// Transport is the minimal request/response round trip a command
// helper needs; *Port (port.go) satisfies it over a real serial link,
// and tests can fake it directly.
type Transport interface {
	Do(request []byte) (response []byte, err error)
}

// Request sends an encoded command frame and decodes its response,
// returning ErrNonSuccessRTN when the module rejected the request so
// callers can distinguish a transport failure from a protocol-level
// refusal.
func Request(t Transport, addr byte, cid2 byte, info []byte) (Frame, error) {
	raw, err := t.Do(EncodeRequest(addr, cid2, info))
	if err != nil {
		return Frame{}, err
	}
	frame, err := DecodeResponse(raw)
	if err != nil {
		return Frame{}, err
	}
	if !frame.Success() {
		return frame, ErrNonSuccessRTN
	}
	return frame, nil
}

// GetAnalogValues requests and decodes a module's CID2=0x42 response.
func GetAnalogValues(t Transport, addr byte) (AnalogReading, error) {
	frame, err := Request(t, addr, CID2GetAnalogValues, []byte{0x00})
	if err != nil {
		return AnalogReading{}, err
	}
	return DecodeAnalog(frame.Info), nil
}

// GetAlarmInfo requests and decodes a module's CID2=0x44 response.
func GetAlarmInfo(t Transport, addr byte) (AlarmInfo, error) {
	frame, err := Request(t, addr, CID2GetAlarmInfo, []byte{0x00})
	if err != nil {
		return AlarmInfo{}, err
	}
	return DecodeAlarm(frame.Info), nil
}

// GetSystemParam requests and decodes a module's CID2=0x4F response.
func GetSystemParam(t Transport, addr byte) (SystemParam, error) {
	frame, err := Request(t, addr, CID2GetSystemParam, nil)
	if err != nil {
		return SystemParam{}, err
	}
	return DecodeSystemParam(frame.Info), nil
}

// GetManufacturer requests a module's CID2=0x61 manufacturer string.
func GetManufacturer(t Transport, addr byte) (string, error) {
	frame, err := Request(t, addr, CID2GetManufacturer, nil)
	if err != nil {
		return "", err
	}
	return DecodeASCIIInfo(frame.Info), nil
}

// GetFirmwareVersion requests a module's CID2=0x62 firmware string.
func GetFirmwareVersion(t Transport, addr byte) (string, error) {
	frame, err := Request(t, addr, CID2GetFirmware, nil)
	if err != nil {
		return "", err
	}
	return DecodeASCIIInfo(frame.Info), nil
}

// GetSerialNumber requests a module's CID2=0x63 serial number string.
func GetSerialNumber(t Transport, addr byte) (string, error) {
	frame, err := Request(t, addr, CID2GetSerialNumber, nil)
	if err != nil {
		return "", err
	}
	return DecodeASCIIInfo(frame.Info), nil
}

// GetProtocolVersion requests a module's CID2=0x90 protocol version,
// returned as the two raw BCD-style bytes, per
// pylon_rs485_responder.py's make_protocol_version_response ("0020" for
// version 2.0).
func GetProtocolVersion(t Transport, addr byte) ([]byte, error) {
	frame, err := Request(t, addr, CID2GetProtocolVer, nil)
	if err != nil {
		return nil, err
	}
	return frame.Info, nil
}
