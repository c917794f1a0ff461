package message

import (
	"strings"

	"github.com/beevik/etree"
)

// Fault is the content of a SOAP Fault element
type Fault struct {
	// Code is the fault code as written, usually prefix-qualified
	Code string
	// Reason is faultstring (1.1) or Reason/Text (1.2)
	Reason string
	// Actor is faultactor (1.1) or Role (1.2)
	Actor string
	// Detail is the detail element, if present
	Detail *etree.Element
}

// LocalCode returns the fault code without its namespace prefix
func (f *Fault) LocalCode() string {
	if i := strings.LastIndex(f.Code, ":"); i >= 0 {
		return f.Code[i+1:]
	}
	return f.Code
}
