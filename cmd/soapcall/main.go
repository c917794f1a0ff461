// Command soapcall sends SOAP requests through the go-soapws exchange engine.
//
// Usage:
//
//	soapcall send https://ws.example.com/orders --payload order.xml --action urn:getOrder
//	soapcall resolve --config soapcall.yaml
//	soapcall journal list --outcome fault-raised --limit 20
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
