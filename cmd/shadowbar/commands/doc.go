// Package commands defines the shadowbar CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init      Create the local identity and print its recovery phrase
//   - recover   Rebuild the identity from a recovery phrase
//   - address   Print the local agent address
//   - serve     Announce on the relay and answer incoming requests
//   - send      Send a request to an agent and print the reply
//   - lookup    Ask the relay whether an address is online
//   - status    Show relay health and the registered agents
//
// # Implementation
//
// The root command builds the dependency graph (key store, identity
// service, resolved config) before any subcommand runs. The relay URL and
// request timeout come from flags first, then SHADOWBAR_RELAY_URL and
// SHADOWBAR_TIMEOUT, then the built-in defaults.
package commands
