// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package interceptor provides ready-made client interceptors.
//
//   - [Logging]: logs requests, responses, faults and completion with slog
//   - [Addressing]: adds WS-Addressing headers and correlates RelatesTo
//   - [Journal]: records every exchange in a [journal.Store]
//
// Interceptors share data through MessageContext properties. Addressing
// stores the outgoing message id under [PropertyMessageID], which the
// journal picks up.
//
// Place Addressing before Journal so the id is set when the journal
// entry is written:
//
//	tmpl, err := client.NewTemplate(client.Config{
//	    Interceptors: []client.Interceptor{
//	        interceptor.NewLogging(interceptor.LoggingConfig{}),
//	        interceptor.NewAddressing(interceptor.AddressingConfig{Action: "urn:getOrder"}),
//	        interceptor.NewJournal(store, nil),
//	    },
//	})
package interceptor
