// Package destination provides the destination URI of an exchange when the
// caller does not pass one explicitly.
//
// A [Provider] returns the current destination. The client consults it on
// every call, after an explicit URI argument and before its static default.
//
// # Providers
//
//   - [Static]: a fixed URI
//   - [ProviderFunc]: adapts a function
//   - [NAPTRProvider]: resolves the URI from DNS U-NAPTR records (RFC 4848)
//   - [CachingProvider]: caches another provider's answer for a TTL
//
// # U-NAPTR Lookup
//
// The NAPTR provider queries the configured domain, keeps records with the
// "U" flag whose service matches, orders them by order then preference,
// and returns the replacement URI of the best record's regexp field:
//
//	orders.example.com. 3600 IN NAPTR 100 10 "U" "SOAP:HTTP" "!^.*$!https://ws.example.com/orders!" .
//
// Wrap it in a caching provider to avoid a lookup per exchange:
//
//	provider := destination.NewCachingProvider(
//	    destination.NewNAPTRProvider(destination.NAPTRConfig{
//	        Domain:  "orders.example.com",
//	        Service: "SOAP:HTTP",
//	    }),
//	    10*time.Minute,
//	)
package destination
