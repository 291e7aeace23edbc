package memory

import "fmt"

// UnsupportedCartridgeError is returned when the cartridge header declares a
// controller type that cannot be emulated.
type UnsupportedCartridgeError struct {
	Type byte
}

func (e *UnsupportedCartridgeError) Error() string {
	return fmt.Sprintf("unsupported cartridge type 0x%02X", e.Type)
}

// InvalidMBCAddressError is the panic value raised when a controller is asked
// to translate an address outside the cartridge windows. The MMU never routes
// such addresses, so hitting it means a bug in the caller.
type InvalidMBCAddressError struct {
	Kind    Kind
	Address uint16
}

func (e *InvalidMBCAddressError) Error() string {
	return fmt.Sprintf("%s: invalid cartridge address 0x%04X", e.Kind, e.Address)
}

// HeaderError reports a ROM image too small to hold a cartridge header.
type HeaderError struct {
	Size int
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("rom image too small for a cartridge header: %d bytes", e.Size)
}
